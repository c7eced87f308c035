package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"installment_app_echo/internal/apperr"
	"installment_app_echo/internal/events"
	"installment_app_echo/internal/models"
)

const (
	MessageAllInstallmentsPaid = "Payment successful. All installments paid."
	MessageInstallmentsPending = "Payment successful. Pending installments remaining."
)

// PayRequest is one installment payment attempt
type PayRequest struct {
	OrderID           uint
	Amount            decimal.Decimal
	InstallmentNumber int
}

// PaymentOutcome describes what was committed for a payment attempt.
// It is returned for successful payments and for rejections that were recorded.
type PaymentOutcome struct {
	PaymentID     uint               `json:"payment_id"`
	OrderStatus   models.OrderStatus `json:"order_status"`
	Message       string             `json:"message"`
	TransactionID string             `json:"transaction_id,omitempty"`
}

type PaymentService struct {
	db        *gorm.DB
	gateway   Authorizer
	cache     *RedisCache
	publisher events.Publisher

	// cacheRedelete is how long after commit the plan summary key is deleted a
	// second time, evicting summaries read before the commit and written after it.
	cacheRedelete time.Duration
}

const defaultCacheRedelete = 2 * time.Second

func NewPaymentService(db *gorm.DB, gateway Authorizer, cache *RedisCache, publisher events.Publisher) *PaymentService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &PaymentService{
		db:        db,
		gateway:   gateway,
		cache:         cache,
		publisher:     publisher,
		cacheRedelete: defaultCacheRedelete,
	}
}

// WithCacheRedelete sets the delay of the second plan summary invalidation.
// Zero disables it.
func (s *PaymentService) WithCacheRedelete(d time.Duration) *PaymentService {
	s.cacheRedelete = d
	return s
}

// Pay validates the attempt against the order's schedule and authorizes it.
//
// Lookup failures (unknown installment, already paid, nothing pending) change
// nothing. Sequence and amount violations and gateway rejections are recorded
// as a failed payment and flip the order to failed; in that case both the
// committed outcome and the classified error are returned.
func (s *PaymentService) Pay(ctx context.Context, req PayRequest) (*PaymentOutcome, error) {
	var outcome *PaymentOutcome
	var rejection *apperr.Error

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The order row lock serializes attempts on the same order
		var order models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, req.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.KindNotFound, "Order %d not found", req.OrderID)
			}
			return fmt.Errorf("lock order: %w", err)
		}

		var requested models.PaymentPlan
		err := tx.Where("order_id = ? AND installment_number = ?", order.ID, req.InstallmentNumber).First(&requested).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.KindInstallmentNotFound,
				"Installment number %d does not exist for order %d", req.InstallmentNumber, order.ID)
		} else if err != nil {
			return fmt.Errorf("load installment: %w", err)
		}
		if requested.IsPaid {
			return apperr.New(apperr.KindAlreadyPaid,
				"Installment number %d for order %d is already paid", req.InstallmentNumber, order.ID)
		}

		var next models.PaymentPlan
		err = tx.Where("order_id = ? AND is_paid = ?", order.ID, false).Order("installment_number").First(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.KindNoPendingPlan, "No pending payment plan found for order %d", order.ID)
		} else if err != nil {
			return fmt.Errorf("load next installment: %w", err)
		}

		if next.InstallmentNumber != req.InstallmentNumber {
			rejection = apperr.New(apperr.KindSequenceViolation,
				"Must pay installment %d first, but received %d", next.InstallmentNumber, req.InstallmentNumber)
			outcome, err = recordFailure(tx, &order, &next, req.Amount, nil, rejection.Message)
			return err
		}

		if !req.Amount.Equal(next.Amount) {
			rejection = apperr.New(apperr.KindAmountMismatch,
				"Incorrect amount. Expected: %s, received: %s", next.Amount.StringFixed(2), req.Amount.String())
			outcome, err = recordFailure(tx, &order, &next, req.Amount, nil, rejection.Message)
			return err
		}

		result, err := s.gateway.Authorize(ctx, AuthorizeRequest{
			Amount:     req.Amount,
			CustomerID: order.CustomerID,
			OrderID:    order.ID,
		})
		if err != nil {
			return fmt.Errorf("authorize payment: %w", err)
		}
		if !result.Success {
			msg := result.Message
			if msg == "" {
				msg = "Payment was rejected by the payment gateway"
			}
			rejection = apperr.New(apperr.KindGatewayRejected, "%s", msg)
			outcome, err = recordFailure(tx, &order, &next, req.Amount, result.Raw, msg)
			return err
		}

		outcome, err = recordSuccess(tx, &order, &next, req.Amount, result)
		return err
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, err
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &apperr.Error{Kind: apperr.KindTimeout, Message: "Payment processing timed out", Err: err}
		}
		return nil, apperr.Internal("Payment processing failed", err)
	}

	s.afterCommit(ctx, req, outcome, rejection)

	if rejection != nil {
		return outcome, rejection
	}
	return outcome, nil
}

func recordFailure(tx *gorm.DB, order *models.Order, plan *models.PaymentPlan, amount decimal.Decimal, raw []byte, msg string) (*PaymentOutcome, error) {
	payment := models.Payment{
		PaymentPlanID:   plan.ID,
		Amount:          amount,
		IsSuccess:       false,
		GatewayResponse: datatypes.JSON(raw),
	}
	if err := tx.Create(&payment).Error; err != nil {
		return nil, fmt.Errorf("record failed payment: %w", err)
	}
	if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", models.OrderStatusFailed).Error; err != nil {
		return nil, fmt.Errorf("mark order failed: %w", err)
	}
	order.Status = models.OrderStatusFailed

	return &PaymentOutcome{
		PaymentID:   payment.ID,
		OrderStatus: models.OrderStatusFailed,
		Message:     msg,
	}, nil
}

func recordSuccess(tx *gorm.DB, order *models.Order, plan *models.PaymentPlan, amount decimal.Decimal, result AuthorizeResult) (*PaymentOutcome, error) {
	res := tx.Model(&models.PaymentPlan{}).Where("id = ? AND is_paid = ?", plan.ID, false).Update("is_paid", true)
	if res.Error != nil {
		return nil, fmt.Errorf("mark installment paid: %w", res.Error)
	}
	if res.RowsAffected != 1 {
		return nil, fmt.Errorf("installment %d was paid concurrently", plan.InstallmentNumber)
	}

	txID := result.TransactionID
	payment := models.Payment{
		PaymentPlanID:   plan.ID,
		Amount:          amount,
		TransactionID:   &txID,
		IsSuccess:       true,
		GatewayResponse: datatypes.JSON(result.Raw),
	}
	if err := tx.Create(&payment).Error; err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}

	var unpaid int64
	if err := tx.Model(&models.PaymentPlan{}).Where("order_id = ? AND is_paid = ?", order.ID, false).Count(&unpaid).Error; err != nil {
		return nil, fmt.Errorf("count unpaid installments: %w", err)
	}

	status, msg := models.OrderStatusPending, MessageInstallmentsPending
	if unpaid == 0 {
		status, msg = models.OrderStatusPaid, MessageAllInstallmentsPaid
	}
	if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	order.Status = status

	return &PaymentOutcome{
		PaymentID:     payment.ID,
		OrderStatus:   status,
		Message:       msg,
		TransactionID: txID,
	}, nil
}

// afterCommit runs side effects that must not roll back the payment.
func (s *PaymentService) afterCommit(ctx context.Context, req PayRequest, outcome *PaymentOutcome, rejection *apperr.Error) {
	payload := map[string]interface{}{
		"order_id":           req.OrderID,
		"installment_number": req.InstallmentNumber,
		"amount":             req.Amount.String(),
		"payment_id":         outcome.PaymentID,
		"order_status":       string(outcome.OrderStatus),
	}

	var evt events.Event
	if rejection != nil {
		log.Printf("Payment rejected for order %d installment %d: %s", req.OrderID, req.InstallmentNumber, rejection.Message)
		payload["reason"] = string(rejection.Kind)
		payload["message"] = rejection.Message
		evt = events.New(events.TypePaymentFailed, payload)
	} else {
		log.Printf("Payment %d succeeded for order %d installment %d", outcome.PaymentID, req.OrderID, req.InstallmentNumber)
		payload["transaction_id"] = outcome.TransactionID
		evt = events.New(events.TypePaymentSucceeded, payload)

		s.invalidatePlanSummary(ctx, req.OrderID)
	}

	if err := s.publisher.Publish(ctx, evt); err != nil {
		log.Printf("Failed to publish %s for order %d: %v", evt.Type, req.OrderID, err)
	}
}

func (s *PaymentService) invalidatePlanSummary(ctx context.Context, orderID uint) {
	if s.cache == nil {
		return
	}
	key := PlanSummaryCacheKey(orderID)
	if err := s.cache.Delete(ctx, key); err != nil {
		log.Printf("Failed to invalidate plan summary for order %d: %v", orderID, err)
	}
	if s.cacheRedelete <= 0 {
		return
	}
	time.AfterFunc(s.cacheRedelete, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.cache.Delete(ctx, key); err != nil {
			log.Printf("Failed to invalidate plan summary for order %d: %v", orderID, err)
		}
	})
}
