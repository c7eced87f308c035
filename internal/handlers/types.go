package handlers

import (
	"github.com/shopspring/decimal"
)

// OrderProductRequest is one product line of CreateOrderRequest
type OrderProductRequest struct {
	ID       uint `json:"id" validate:"required"`
	Quantity int  `json:"quantity" validate:"required,min=1"`
}

// CreateOrderRequest is the body of POST /orders
type CreateOrderRequest struct {
	Products     []OrderProductRequest `json:"products" validate:"required,min=1,dive"`
	Installments int                   `json:"installments" validate:"required,min=1"`
}

// PayRequest is the body of POST /payments/pay
type PayRequest struct {
	OrderID           uint            `json:"order_id" validate:"required"`
	TotalPayment      decimal.Decimal `json:"total_payment" validate:"required,gt=0"`
	InstallmentNumber int             `json:"installment_number" validate:"required,min=1"`
}

// NotificationPreferenceRequest is the body of PUT /users/me/notification-preference
type NotificationPreferenceRequest struct {
	Channel            string `json:"channel" validate:"required,oneof=email whatsapp none"`
	WhatsappTargetType string `json:"whatsapp_target_type" validate:"omitempty,oneof=personal group"`
	WhatsappGroupID    string `json:"whatsapp_group_id" validate:"required_if=WhatsappTargetType group,max=100"`
}
