package handlers

import (
	"github.com/labstack/echo/v4"

	"installment_app_echo/internal/middleware"
)

func getUintFromContext(c echo.Context, key string) uint {
	val := c.Get(key)
	if val == nil {
		return 0
	}
	uintVal, ok := val.(uint)
	if !ok {
		return 0
	}
	return uintVal
}

func currentUserID(c echo.Context) uint {
	return getUintFromContext(c, middleware.ContextKeyUserID)
}
