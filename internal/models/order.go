package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusFailed    OrderStatus = "failed"
)

// Order is a purchase paid through a schedule of installments
type Order struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CustomerID   uint            `gorm:"index;not null" json:"customer_id"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	Installments int             `gorm:"not null;default:1" json:"installments"`
	Status       OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	// Relationships
	Customer      User           `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	ProductOrders []ProductOrder `gorm:"foreignKey:OrderID" json:"product_orders,omitempty"`
	PaymentPlans  []PaymentPlan  `gorm:"foreignKey:OrderID" json:"payment_plans,omitempty"`
}
