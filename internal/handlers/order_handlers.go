package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"installment_app_echo/internal/apperr"
	"installment_app_echo/internal/services"
)

type OrderHandler struct {
	orders *services.OrderService
}

func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// ListOrders returns the caller's orders, or a single one when :orderId is set.
func (h *OrderHandler) ListOrders(c echo.Context) error {
	var orderID *uint
	if raw := c.Param("orderId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return apperr.Validation("The given data was invalid.", map[string][]string{
				"orderId": {"The orderId must be an integer."},
			})
		}
		v := uint(id)
		orderID = &v
	}

	list, err := h.orders.ListOrders(c.Request().Context(), currentUserID(c), orderID)
	if err != nil {
		return apperr.Internal("Failed to fetch orders", err)
	}
	return c.JSON(http.StatusOK, list)
}

// CreateOrder places an order for the caller
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	var req CreateOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	items := make([]services.OrderItemInput, len(req.Products))
	for i, p := range req.Products {
		items[i] = services.OrderItemInput{ProductID: p.ID, Quantity: p.Quantity}
	}

	result, err := h.orders.CreateOrder(c.Request().Context(), currentUserID(c), items, req.Installments)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}
