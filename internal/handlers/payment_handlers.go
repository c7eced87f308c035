package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"installment_app_echo/internal/apperr"
	"installment_app_echo/internal/services"
)

type PaymentHandler struct {
	orders         *services.OrderService
	payments       *services.PaymentService
	plans          *services.PaymentPlanService
	requestTimeout time.Duration
}

func NewPaymentHandler(orders *services.OrderService, payments *services.PaymentService, plans *services.PaymentPlanService, requestTimeout time.Duration) *PaymentHandler {
	return &PaymentHandler{
		orders:         orders,
		payments:       payments,
		plans:          plans,
		requestTimeout: requestTimeout,
	}
}

// Pay processes one installment payment for the caller's order
func (h *PaymentHandler) Pay(c echo.Context) error {
	var req PayRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if h.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.requestTimeout)
		defer cancel()
	}

	order, err := h.orders.FindCustomerOrder(ctx, currentUserID(c), req.OrderID)
	if err != nil {
		return apperr.Internal("Payment processing failed", err)
	}
	if order == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "No existing payment plan for this customer"})
	}

	outcome, err := h.payments.Pay(ctx, services.PayRequest{
		OrderID:           req.OrderID,
		Amount:            req.TotalPayment,
		InstallmentNumber: req.InstallmentNumber,
	})
	if err != nil {
		// Rejections were already recorded; the error decides the response
		return err
	}
	return c.JSON(http.StatusCreated, outcome)
}

// PlanSummary lists the unpaid installments of an order
func (h *PaymentHandler) PlanSummary(c echo.Context) error {
	orderID, err := strconv.ParseUint(c.Param("orderId"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "No payment plans found"})
	}

	summary, err := h.plans.Summary(c.Request().Context(), uint(orderID))
	if err != nil {
		return apperr.Internal("Failed to fetch payment plans", err)
	}
	if summary == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "No payment plans found"})
	}
	return c.JSON(http.StatusOK, summary)
}
