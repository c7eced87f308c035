package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"classified", New(KindAlreadyPaid, "paid"), KindAlreadyPaid},
		{"wrapped", fmt.Errorf("pay: %w", New(KindSequenceViolation, "seq")), KindSequenceViolation},
		{"deadline", fmt.Errorf("db: %w", context.DeadlineExceeded), KindTimeout},
		{"unknown", errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusUnprocessableEntity},
		{KindNotFound, http.StatusNotFound},
		{KindInstallmentNotFound, http.StatusBadRequest},
		{KindAlreadyPaid, http.StatusBadRequest},
		{KindNoPendingPlan, http.StatusBadRequest},
		{KindSequenceViolation, http.StatusBadRequest},
		{KindAmountMismatch, http.StatusBadRequest},
		{KindGatewayRejected, http.StatusBadGateway},
		{KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(New(tt.kind, "x")))
		})
	}

	assert.Equal(t, http.StatusOK, HTTPStatus(nil))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestIsInvalidPayment(t *testing.T) {
	assert.True(t, IsInvalidPayment(New(KindAmountMismatch, "x")))
	assert.True(t, IsInvalidPayment(New(KindInstallmentNotFound, "x")))
	assert.False(t, IsInvalidPayment(New(KindGatewayRejected, "x")))
	assert.False(t, IsInvalidPayment(errors.New("boom")))
}

func TestErrorMessage(t *testing.T) {
	err := Internal("Order creation failed", errors.New("conn reset"))
	assert.Equal(t, "Order creation failed: conn reset", err.Error())
	assert.ErrorIs(t, err, err.Err)
}
