package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"installment_app_echo/internal/apperr"
	"installment_app_echo/internal/events"
	"installment_app_echo/internal/models"
)

// TaskInstallmentReminder is the scheduled task that reminds a customer of the next due installment.
const TaskInstallmentReminder = "installment_reminder"

// OrderItemInput is one requested product line
type OrderItemInput struct {
	ProductID uint
	Quantity  int
}

// CreateOrderResult is returned to the caller once the order is committed
type CreateOrderResult struct {
	OrderID uint   `json:"order_id"`
	Message string `json:"message"`
}

type OrderService struct {
	db        *gorm.DB
	publisher events.Publisher
	now       func() time.Time
}

func NewOrderService(db *gorm.DB, publisher events.Publisher) *OrderService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &OrderService{db: db, publisher: publisher, now: time.Now}
}

// WithClock overrides the time source used for due dates.
func (s *OrderService) WithClock(now func() time.Time) *OrderService {
	s.now = now
	return s
}

func validateOrderInput(items []OrderItemInput, installments int) error {
	fields := map[string][]string{}
	if len(items) == 0 {
		fields["products"] = append(fields["products"], "The products field is required.")
	}
	for i, item := range items {
		if item.ProductID == 0 {
			key := fmt.Sprintf("products.%d.id", i)
			fields[key] = append(fields[key], "The product id is required.")
		}
		if item.Quantity < 1 {
			key := fmt.Sprintf("products.%d.quantity", i)
			fields[key] = append(fields[key], "The quantity must be at least 1.")
		}
	}
	if installments < 1 {
		fields["installments"] = append(fields["installments"], "The installments must be at least 1.")
	}
	if len(fields) > 0 {
		return apperr.Validation("The given data was invalid.", fields)
	}
	return nil
}

// CreateOrder prices the requested products, stores the order with its line
// items and installment schedule, and schedules the installment reminder.
// Everything happens in one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, customerID uint, items []OrderItemInput, installments int) (*CreateOrderResult, error) {
	if err := validateOrderInput(items, installments); err != nil {
		return nil, err
	}

	var order models.Order
	var plans []models.PaymentPlan

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make([]uint, len(items))
		for i, item := range items {
			ids[i] = item.ProductID
		}

		// Lock product rows so concurrent orders read consistent prices
		var products []models.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", ids).
			Order("id").
			Find(&products).Error; err != nil {
			return fmt.Errorf("load products: %w", err)
		}
		if len(products) != len(items) {
			return apperr.Validation("One or more products are invalid", map[string][]string{
				"products": {"One or more products are invalid"},
			})
		}

		quantities := make(map[uint]int, len(items))
		for _, item := range items {
			quantities[item.ProductID] = item.Quantity
		}

		total := decimal.Zero
		for _, p := range products {
			total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(quantities[p.ID]))))
		}

		if total.GreaterThan(models.MaxAmount) {
			return apperr.Validation("The given data was invalid.", map[string][]string{
				"products": {fmt.Sprintf("The order total must not be greater than %s.", models.MaxAmount.StringFixed(2))},
			})
		}
		// Every installment must be payable, so none may round down to zero
		if total.Div(decimal.NewFromInt(int64(installments))).Truncate(models.AmountScale).IsZero() {
			return apperr.Validation("The given data was invalid.", map[string][]string{
				"installments": {fmt.Sprintf("An order total of %s cannot be split into %d installments of at least 0.01.", total.StringFixed(2), installments)},
			})
		}

		now := s.now()
		var err error
		plans, err = BuildInstallments(total, installments, now)
		if err != nil {
			return err
		}

		order = models.Order{
			CustomerID:   customerID,
			TotalAmount:  total,
			Installments: installments,
			Status:       models.OrderStatusPending,
		}
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		lines := make([]models.ProductOrder, 0, len(products))
		for _, p := range products {
			lines = append(lines, models.ProductOrder{
				OrderID:   order.ID,
				ProductID: p.ID,
				Quantity:  quantities[p.ID],
			})
		}
		if err := tx.Create(&lines).Error; err != nil {
			return fmt.Errorf("create order lines: %w", err)
		}

		for i := range plans {
			plans[i].OrderID = order.ID
		}
		if err := tx.Create(&plans).Error; err != nil {
			return fmt.Errorf("create payment plans: %w", err)
		}

		reminder := newReminderTask(order.ID, installments, now)
		if err := tx.Create(reminder).Error; err != nil {
			return fmt.Errorf("schedule reminder: %w", err)
		}
		return nil
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, err
		}
		return nil, apperr.Internal("Order creation failed", err)
	}

	log.Printf("Order %d created for customer %d: total=%s installments=%d", order.ID, customerID, order.TotalAmount.StringFixed(2), installments)

	evt := events.New(events.TypeOrderCreated, map[string]interface{}{
		"order_id":     order.ID,
		"customer_id":  customerID,
		"total_amount": order.TotalAmount.StringFixed(2),
		"installments": installments,
	})
	if err := s.publisher.Publish(ctx, evt); err != nil {
		log.Printf("Failed to publish %s for order %d: %v", evt.Type, order.ID, err)
	}

	return &CreateOrderResult{
		OrderID: order.ID,
		Message: "Order created successfully",
	}, nil
}

// newReminderTask builds the monthly reminder that follows the installment due dates.
func newReminderTask(orderID uint, installments int, start time.Time) *models.ScheduledTask {
	start = start.Truncate(time.Second)
	rule := fmt.Sprintf("FREQ=MONTHLY;COUNT=%d", installments)
	return &models.ScheduledTask{
		TaskName: TaskInstallmentReminder,
		Arguments: map[string]interface{}{
			"order_id":  orderID,
			"starts_at": start.Format(time.RFC3339),
		},
		Due:               start,
		RecurringInterval: &rule,
		Status:            models.ScheduledTaskStatusActive,
		TaskType:          models.ScheduledTaskTypeRecurring,
		MaxAttempt:        3,
	}
}

// FindCustomerOrder returns the order if it belongs to the customer, or nil.
func (s *OrderService) FindCustomerOrder(ctx context.Context, customerID, orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Where("customer_id = ? AND id = ?", customerID, orderID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// OrderProductView is a product line as shown in the order listing
type OrderProductView struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Total    string `json:"total"`
	Quantity int    `json:"quantity"`
}

// PaymentView is a payment attempt as shown in the order listing
type PaymentView struct {
	ID            uint      `json:"id"`
	Amount        string    `json:"amount"`
	IsSuccess     bool      `json:"is_success"`
	TransactionID *string   `json:"transaction_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// PaymentPlanView is an installment as shown in the order listing
type PaymentPlanView struct {
	InstallmentNumber int           `json:"installment_number"`
	Amount            string        `json:"amount"`
	DueDate           time.Time     `json:"due_date"`
	IsPaid            bool          `json:"is_paid"`
	Payments          []PaymentView `json:"payments"`
}

// OrderView is one entry of the order listing
type OrderView struct {
	ID           uint               `json:"id"`
	CustomerID   uint               `json:"customer_id"`
	Customer     string             `json:"customer"`
	Status       models.OrderStatus `json:"status"`
	TotalAmount  string             `json:"total_amount"`
	Installments int                `json:"installments"`
	Products     []OrderProductView `json:"products"`
	PaymentPlans []PaymentPlanView  `json:"payment_plans"`
}

// OrderList is the response of the order listing
type OrderList struct {
	Orders []OrderView `json:"orders"`
	Count  int         `json:"count"`
}

// ListOrders returns the customer's orders, optionally narrowed to one order id,
// with their products, installments and payment attempts.
func (s *OrderService) ListOrders(ctx context.Context, customerID uint, orderID *uint) (*OrderList, error) {
	query := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("ProductOrders", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("ProductOrders.Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("PaymentPlans", func(db *gorm.DB) *gorm.DB { return db.Order("installment_number") }).
		Preload("PaymentPlans.Payments", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("customer_id = ?", customerID)
	if orderID != nil {
		query = query.Where("id = ?", *orderID)
	}

	var orders []models.Order
	if err := query.Order("id").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	list := &OrderList{Orders: make([]OrderView, 0, len(orders)), Count: len(orders)}
	for _, o := range orders {
		view := OrderView{
			ID:           o.ID,
			CustomerID:   o.CustomerID,
			Customer:     o.Customer.Name,
			Status:       o.Status,
			TotalAmount:  o.TotalAmount.StringFixed(2),
			Installments: o.Installments,
			Products:     make([]OrderProductView, 0, len(o.ProductOrders)),
			PaymentPlans: make([]PaymentPlanView, 0, len(o.PaymentPlans)),
		}
		for _, line := range o.ProductOrders {
			view.Products = append(view.Products, OrderProductView{
				ID:       line.Product.ID,
				Name:     line.Product.Name,
				Price:    line.Product.Price.StringFixed(2),
				Total:    line.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))).StringFixed(2),
				Quantity: line.Quantity,
			})
		}
		for _, plan := range o.PaymentPlans {
			pv := PaymentPlanView{
				InstallmentNumber: plan.InstallmentNumber,
				Amount:            plan.Amount.StringFixed(2),
				DueDate:           plan.DueDate,
				IsPaid:            plan.IsPaid,
				Payments:          make([]PaymentView, 0, len(plan.Payments)),
			}
			for _, p := range plan.Payments {
				pv.Payments = append(pv.Payments, PaymentView{
					ID:            p.ID,
					Amount:        p.Amount.StringFixed(2),
					IsSuccess:     p.IsSuccess,
					TransactionID: p.TransactionID,
					CreatedAt:     p.CreatedAt,
				})
			}
			view.PaymentPlans = append(view.PaymentPlans, pv)
		}
		list.Orders = append(list.Orders, view)
	}
	return list, nil
}
