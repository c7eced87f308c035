package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a customer that places orders and pays installments
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name  string `gorm:"type:varchar(255)" json:"name"`
	Phone string `gorm:"type:varchar(50)" json:"phone"`
	Email string `gorm:"type:varchar(255);uniqueIndex" json:"email"`

	// Relationships
	Orders          []Order              `gorm:"foreignKey:CustomerID" json:"orders,omitempty"`
	NotifPreference *UserNotifPreference `gorm:"foreignKey:UserID" json:"notif_preference,omitempty"`
}
