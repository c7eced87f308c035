package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog entry that can be ordered on installments
type Product struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"-"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name  string          `gorm:"type:varchar(255);not null" json:"name"`
	Brand string          `gorm:"type:varchar(255)" json:"brand"`
	Price decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
}

// ProductOrder is an order line item. It is never modified after creation.
type ProductOrder struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	OrderID   uint `gorm:"index;not null" json:"order_id"`
	ProductID uint `gorm:"index;not null" json:"product_id"`
	Quantity  int  `gorm:"not null" json:"quantity"`

	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}
