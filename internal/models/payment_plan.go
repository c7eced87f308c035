package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentPlan is one scheduled installment of an order
type PaymentPlan struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OrderID           uint            `gorm:"not null;uniqueIndex:idx_payment_plans_order_installment,priority:1" json:"order_id"`
	InstallmentNumber int             `gorm:"not null;uniqueIndex:idx_payment_plans_order_installment,priority:2" json:"installment_number"`
	Amount            decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	IsPaid            bool            `gorm:"not null;default:false" json:"is_paid"`
	DueDate           time.Time       `json:"due_date"`

	// Relationships
	Order    *Order    `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	Payments []Payment `gorm:"foreignKey:PaymentPlanID" json:"payments,omitempty"`
}
