package handlers

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"installment_app_echo/internal/events"
	"installment_app_echo/internal/middleware"
	"installment_app_echo/internal/services"
)

// Deps are the collaborators the HTTP layer is built from. Cache and
// Publisher are optional.
type Deps struct {
	DB             *gorm.DB
	Gateway        services.Authorizer
	Cache          *services.RedisCache
	Publisher      events.Publisher
	RequestTimeout time.Duration
}

// NewServer builds the echo instance with middleware and every route.
func NewServer(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.JSONErrorHandler
	e.Validator = NewValidator()

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	orders := services.NewOrderService(d.DB, d.Publisher)
	payments := services.NewPaymentService(d.DB, d.Gateway, d.Cache, d.Publisher)
	plans := services.NewPaymentPlanService(d.DB, d.Cache)
	products := services.NewProductService(d.DB, d.Cache)

	healthHandler := NewHealthHandler(d.DB)
	productHandler := NewProductHandler(products)
	orderHandler := NewOrderHandler(orders)
	paymentHandler := NewPaymentHandler(orders, payments, plans, d.RequestTimeout)
	preferenceHandler := NewUserPreferenceHandler(d.DB)

	// Public routes
	e.GET("/health", healthHandler.Health)
	e.GET("/products", productHandler.ListProducts)
	e.GET("/payments/plan/:orderId", paymentHandler.PlanSummary)

	// Customer routes. Middleware is attached per route so unknown paths still 404.
	requireUser := middleware.RequireUser(d.DB)
	e.GET("/orders", orderHandler.ListOrders, requireUser)
	e.GET("/orders/:orderId", orderHandler.ListOrders, requireUser)
	e.POST("/orders", orderHandler.CreateOrder, requireUser)
	e.POST("/payments/pay", paymentHandler.Pay, requireUser)
	e.GET("/users/me/notification-preference", preferenceHandler.GetUserPreference, requireUser)
	e.PUT("/users/me/notification-preference", preferenceHandler.UpdateUserPreference, requireUser)

	return e
}
