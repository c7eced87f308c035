package handlers

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"installment_app_echo/internal/apperr"
)

func TestFieldPath(t *testing.T) {
	assert.Equal(t, "products.0.quantity", fieldPath("CreateOrderRequest.products[0].quantity"))
	assert.Equal(t, "installments", fieldPath("CreateOrderRequest.installments"))
}

func TestValidateReportsFieldMessages(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&CreateOrderRequest{
		Products: []OrderProductRequest{{ID: 1, Quantity: 0}},
	})
	require.Error(t, err)

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.KindValidation, ae.Kind)
	assert.Equal(t, []string{"The installments field is required."}, ae.Fields["installments"])
	assert.Equal(t, []string{"The products.0.quantity field is required."}, ae.Fields["products.0.quantity"])

	err = v.Validate(&PayRequest{OrderID: 1, TotalPayment: decimal.RequireFromString("-5"), InstallmentNumber: 1})
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, []string{"The total_payment field must be greater than 0."}, ae.Fields["total_payment"])

	assert.NoError(t, v.Validate(&PayRequest{OrderID: 1, TotalPayment: decimal.RequireFromString("33.33"), InstallmentNumber: 1}))
}

func TestValidatePayAmountFitsStorage(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		amount string
		want   string
	}{
		{"100.001", "The total_payment field must have at most 2 decimal places."},
		{"100000000", "The total_payment field must not be greater than 99999999.99."},
		{"123456789.5", "The total_payment field must not be greater than 99999999.99."},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			err := v.Validate(&PayRequest{OrderID: 1, TotalPayment: decimal.RequireFromString(tt.amount), InstallmentNumber: 1})
			var ae *apperr.Error
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, []string{tt.want}, ae.Fields["total_payment"])
		})
	}

	assert.NoError(t, v.Validate(&PayRequest{OrderID: 1, TotalPayment: decimal.RequireFromString("99999999.99"), InstallmentNumber: 1}))
	assert.NoError(t, v.Validate(&PayRequest{OrderID: 1, TotalPayment: decimal.RequireFromString("100.10"), InstallmentNumber: 1}))
}
