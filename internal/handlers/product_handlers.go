package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"installment_app_echo/internal/apperr"
	"installment_app_echo/internal/services"
)

type ProductHandler struct {
	products *services.ProductService
}

func NewProductHandler(products *services.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// ListProducts returns one page of the catalog. A missing or invalid page is page 1.
func (h *ProductHandler) ListProducts(c echo.Context) error {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		page = 1
	}

	result, err := h.products.ListProducts(c.Request().Context(), page)
	if err != nil {
		return apperr.Internal("Failed to fetch products", err)
	}
	return c.JSON(http.StatusOK, result)
}
