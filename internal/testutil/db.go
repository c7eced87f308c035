// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"installment_app_echo/internal/models"
	"installment_app_echo/internal/services"
)

// NewTestDB returns a migrated sqlite database private to the test.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000&_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// NewPostgresDB connects to TEST_DATABASE_URL or skips the test.
func NewPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping postgres integration test")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser inserts a customer.
func CreateUser(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()

	user := models.User{Name: name, Email: name + "-" + time.Now().Format("150405.000000000") + "@example.com", Phone: "081200000000"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// CreateProduct inserts a catalog product.
func CreateProduct(t *testing.T, db *gorm.DB, name string, price string) models.Product {
	t.Helper()

	product := models.Product{Name: name, Brand: "Acme", Price: decimal.RequireFromString(price)}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

// CreateOrderWithPlans inserts an order with the given installment amounts
// numbered from 1, all unpaid.
func CreateOrderWithPlans(t *testing.T, db *gorm.DB, customerID uint, status models.OrderStatus, amounts ...string) (models.Order, []models.PaymentPlan) {
	t.Helper()

	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.RequireFromString(a))
	}

	order := models.Order{CustomerID: customerID, TotalAmount: total, Installments: len(amounts), Status: status}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}

	plans := make([]models.PaymentPlan, len(amounts))
	for i, a := range amounts {
		plans[i] = models.PaymentPlan{
			OrderID:           order.ID,
			InstallmentNumber: i + 1,
			Amount:            decimal.RequireFromString(a),
			DueDate:           time.Now().AddDate(0, i, 0),
		}
	}
	if len(plans) > 0 {
		if err := db.Create(&plans).Error; err != nil {
			t.Fatalf("create plans: %v", err)
		}
	}
	return order, plans
}
