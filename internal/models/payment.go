package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// MaxAmount is the largest value the decimal(10,2) money columns hold.
var MaxAmount = decimal.RequireFromString("99999999.99")

// AmountScale is the number of decimal places money columns keep.
const AmountScale = 2

// Payment is one attempt to pay an installment, successful or not.
// Rows are only ever inserted.
type Payment struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	PaymentPlanID   uint            `gorm:"index;not null" json:"payment_plan_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	TransactionID   *string         `gorm:"type:varchar(255)" json:"transaction_id"`
	IsSuccess       bool            `gorm:"not null;default:false" json:"is_success"`
	GatewayResponse datatypes.JSON  `json:"-"`
}
