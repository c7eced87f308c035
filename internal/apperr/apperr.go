// Package apperr classifies the errors produced by the order and payment
// workflows so transports can map them to status codes without string
// matching.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind is the machine readable classification of an error.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindNotFound            Kind = "not_found"
	KindInstallmentNotFound Kind = "installment_not_found"
	KindAlreadyPaid         Kind = "already_paid"
	KindNoPendingPlan       Kind = "no_pending_plan"
	KindSequenceViolation   Kind = "sequence_violation"
	KindAmountMismatch      Kind = "amount_mismatch"
	KindGatewayRejected     Kind = "gateway_rejected"
	KindTimeout             Kind = "timeout"
	KindInternal            Kind = "internal"
)

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	// Fields holds per-field messages for validation errors.
	Fields map[string][]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validation returns a validation error with per-field messages.
func Validation(message string, fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// Internal wraps an unexpected fault.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the classification of err.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	default:
		return KindInternal
	}
}

// IsInvalidPayment reports whether err rejects a payment attempt on
// business grounds (sequencing, amount, already paid).
func IsInvalidPayment(err error) bool {
	switch KindOf(err) {
	case KindInstallmentNotFound, KindAlreadyPaid, KindNoPendingPlan,
		KindSequenceViolation, KindAmountMismatch:
		return true
	}
	return false
}

var kindToStatus = map[Kind]int{
	KindValidation:          http.StatusUnprocessableEntity,
	KindNotFound:            http.StatusNotFound,
	KindInstallmentNotFound: http.StatusBadRequest,
	KindAlreadyPaid:         http.StatusBadRequest,
	KindNoPendingPlan:       http.StatusBadRequest,
	KindSequenceViolation:   http.StatusBadRequest,
	KindAmountMismatch:      http.StatusBadRequest,
	KindGatewayRejected:     http.StatusBadGateway,
	KindTimeout:             http.StatusGatewayTimeout,
}

// HTTPStatus maps err to an HTTP status code.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if s, ok := kindToStatus[KindOf(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}
