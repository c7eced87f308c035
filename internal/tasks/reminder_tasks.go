package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"installment_app_echo/internal/models"
	"installment_app_echo/internal/services"
)

const reminderTemplate = "Hi $name, installment $installment of your order #$order_id ($amount) is due on $due_date."

// InstallmentReminderArgs are the arguments stored on the recurring reminder
type InstallmentReminderArgs struct {
	OrderID  uint   `json:"order_id"`
	StartsAt string `json:"starts_at"`
}

// InstallmentReminderTaskDef looks up the next unpaid installment of an order
// and queues a notification for the customer.
type InstallmentReminderTaskDef struct{}

func (t *InstallmentReminderTaskDef) TaskID() string {
	return services.TaskInstallmentReminder
}

func (t *InstallmentReminderTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	var args InstallmentReminderArgs
	if err := decodeArgs(task, &args); err != nil {
		return nil, Permanent(err)
	}
	if args.OrderID == 0 {
		return nil, Permanent(fmt.Errorf("order_id not provided or invalid"))
	}

	db = db.WithContext(ctx)

	var order models.Order
	if err := db.Preload("Customer").First(&order, args.OrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Permanent(fmt.Errorf("order %d not found", args.OrderID))
		}
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}
	if order.Status == models.OrderStatusPaid || order.Status == models.OrderStatusCancelled {
		return map[string]interface{}{"status": "skipped", "message": fmt.Sprintf("Order is %s", order.Status)}, nil
	}

	var next models.PaymentPlan
	err := db.Where("order_id = ? AND is_paid = ?", order.ID, false).Order("installment_number").First(&next).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return map[string]interface{}{"status": "skipped", "message": "No unpaid installments"}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to fetch next installment: %w", err)
	}

	notif, err := SendNotificationTask.CreateTask(SendNotificationArgs{
		Users: []NotificationUser{{
			UserID:      order.Customer.ID,
			Username:    order.Customer.Name,
			Email:       order.Customer.Email,
			PhoneNumber: order.Customer.Phone,
		}},
		NotifTemplate:     reminderTemplate,
		Subject:           fmt.Sprintf("Installment %d of order #%d is due", next.InstallmentNumber, order.ID),
		OrderID:           order.ID,
		InstallmentNumber: next.InstallmentNumber,
		Amount:            next.Amount.StringFixed(2),
		DueDate:           next.DueDate.Format("2006-01-02"),
	}, time.Now())
	if err != nil {
		return nil, err
	}
	if err := db.Create(notif).Error; err != nil {
		return nil, fmt.Errorf("failed to queue notification: %w", err)
	}

	return map[string]interface{}{
		"status":               "success",
		"installment":          next.InstallmentNumber,
		"notification_task_id": notif.ID,
	}, nil
}

var InstallmentReminderTask = &InstallmentReminderTaskDef{}
