package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"installment_app_echo/internal/models"
)

const planSummaryTTL = 5 * time.Minute

// PlanSummaryCacheKey is the cache key of an order's unpaid installment summary.
func PlanSummaryCacheKey(orderID uint) string {
	return fmt.Sprintf("payment_plans:order:%d", orderID)
}

var errNoUnpaidPlans = errors.New("no unpaid payment plans")

// InstallmentSummary is an unpaid installment in the plan summary
type InstallmentSummary struct {
	Installment int       `json:"installment"`
	Amount      string    `json:"amount"`
	DueDate     time.Time `json:"due_date"`
	IsPaid      bool      `json:"is_paid"`
}

// PlanSummary lists the unpaid installments of an order
type PlanSummary struct {
	Customer          string               `json:"customer"`
	Order             uint                 `json:"order"`
	TotalInstallments int                  `json:"total_installments"`
	Installments      []InstallmentSummary `json:"installments"`
}

type PaymentPlanService struct {
	db    *gorm.DB
	cache *RedisCache
}

func NewPaymentPlanService(db *gorm.DB, cache *RedisCache) *PaymentPlanService {
	return &PaymentPlanService{db: db, cache: cache}
}

// Summary returns the unpaid installments of an order, or nil when there are
// none. Results are cached until the next successful payment on the order.
func (s *PaymentPlanService) Summary(ctx context.Context, orderID uint) (*PlanSummary, error) {
	summary, err := GetOrSet(s.cache, ctx, PlanSummaryCacheKey(orderID), planSummaryTTL, func() (*PlanSummary, error) {
		return s.loadSummary(ctx, orderID)
	})
	if errors.Is(err, errNoUnpaidPlans) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *PaymentPlanService) loadSummary(ctx context.Context, orderID uint) (*PlanSummary, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("PaymentPlans", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_paid = ?", false).Order("installment_number")
		}).
		First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errNoUnpaidPlans
	}
	if err != nil {
		return nil, fmt.Errorf("load plan summary: %w", err)
	}
	if len(order.PaymentPlans) == 0 {
		return nil, errNoUnpaidPlans
	}

	summary := &PlanSummary{
		Customer:          order.Customer.Name,
		Order:             order.ID,
		TotalInstallments: order.Installments,
		Installments:      make([]InstallmentSummary, 0, len(order.PaymentPlans)),
	}
	for _, p := range order.PaymentPlans {
		summary.Installments = append(summary.Installments, InstallmentSummary{
			Installment: p.InstallmentNumber,
			Amount:      p.Amount.StringFixed(2),
			DueDate:     p.DueDate,
			IsPaid:      p.IsPaid,
		})
	}
	return summary, nil
}
