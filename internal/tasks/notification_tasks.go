package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"installment_app_echo/internal/models"
)

// EmailSender delivers a plain text email
type EmailSender interface {
	SendEmail(to []string, subject, body string) error
}

// WhatsappSender delivers a WhatsApp text message
type WhatsappSender interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// Notifiers are the delivery channels available to the notification task.
// A nil channel fails every delivery routed to it.
type Notifiers struct {
	Email    EmailSender
	Whatsapp WhatsappSender
}

// NotificationUser represents the user in the notification payload
type NotificationUser struct {
	UserID      uint   `json:"userId"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phonenumber"`
}

// SendNotificationArgs defines the arguments for a notification task
type SendNotificationArgs struct {
	Users             []NotificationUser `json:"users"`
	NotifTemplate     string             `json:"notiftemplate"`
	Subject           string             `json:"subject"`
	OrderID           uint               `json:"order_id"`
	InstallmentNumber int                `json:"installment_number"`
	Amount            string             `json:"amount"`
	DueDate           string             `json:"due_date"`
	AttemptCount      int                `json:"attempt_count"`
}

const notificationRetryDelay = 5 * time.Minute

// SendNotificationTaskDef encapsulates the notification task logic
type SendNotificationTaskDef struct {
	Notifiers Notifiers
}

func (t *SendNotificationTaskDef) TaskID() string {
	return "send_notification"
}

// CreateTask builds a ScheduledTask record for this task
func (t *SendNotificationTaskDef) CreateTask(args SendNotificationArgs, due time.Time) (*models.ScheduledTask, error) {
	return BuildScheduledTask(t.TaskID(), args, due, nil, models.ScheduledTaskTypeOneTime, 3)
}

// HandleExecution sends the notification to every user over their preferred
// channel. Users that failed are rescheduled in a new task until the attempt
// budget is spent.
func (t *SendNotificationTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	var parsedArgs SendNotificationArgs
	if err := decodeArgs(task, &parsedArgs); err != nil {
		return nil, Permanent(err)
	}

	db = db.WithContext(ctx)

	total := len(parsedArgs.Users)
	successCount := 0
	skippedCount := 0
	var failures []string
	var failedUsers []NotificationUser

	for _, user := range parsedArgs.Users {
		channel, pref, err := preferredChannel(db, user.UserID)
		if err != nil {
			log.Printf("Error fetching preference for %s: %v", user.Username, err)
			failures = append(failures, fmt.Sprintf("%s: db error", user.Username))
			failedUsers = append(failedUsers, user)
			continue
		}

		var sendErr error
		switch channel {
		case models.NotificationChannelEmail:
			sendErr = t.sendEmailNotif(user, parsedArgs)
		case models.NotificationChannelWhatsapp:
			sendErr = t.sendWhatsappNotif(ctx, user, parsedArgs, pref)
		case models.NotificationChannelNone:
			log.Printf("Notification disabled (none) for %s", user.Username)
			skippedCount++
			continue
		default:
			log.Printf("Unsupported notification channel %s for %s", channel, user.Username)
			skippedCount++
			continue
		}

		if sendErr != nil {
			log.Printf("Failed to send notification to %s via %s: %v", user.Username, channel, sendErr)
			failures = append(failures, fmt.Sprintf("%s: %v", user.Username, sendErr))
			failedUsers = append(failedUsers, user)
		} else {
			successCount++
		}
	}

	result := map[string]interface{}{
		"total":   total,
		"success": successCount,
		"skipped": skippedCount,
		"failure": len(failedUsers),
	}
	if len(failedUsers) == 0 {
		return result, nil
	}

	result["errors"] = failures

	attempt := parsedArgs.AttemptCount
	if attempt+1 >= task.MaxAttempt {
		log.Printf("Max attempts (%d) reached for %d failed users.", task.MaxAttempt, len(failedUsers))
		return result, Permanent(fmt.Errorf("max attempts reached, failed to deliver to %d users", len(failedUsers)))
	}

	log.Printf("Partial failure: %d users failed. Rescheduling for attempt %d", len(failedUsers), attempt+2)

	retryArgs := parsedArgs
	retryArgs.Users = failedUsers
	retryArgs.AttemptCount = attempt + 1

	retry, err := BuildScheduledTask(t.TaskID(), retryArgs, time.Now().Add(notificationRetryDelay), nil, models.ScheduledTaskTypeOneTime, task.MaxAttempt)
	if err != nil {
		return result, err
	}
	if err := db.Create(retry).Error; err != nil {
		return result, fmt.Errorf("failed to create retry task: %w", err)
	}
	result["retry_task_id"] = retry.ID

	return result, nil
}

// preferredChannel falls back to email for customers without a stored preference.
func preferredChannel(db *gorm.DB, userID uint) (models.NotificationChannel, models.UserNotifPreference, error) {
	var pref models.UserNotifPreference
	err := db.Where("user_id = ?", userID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NotificationChannelEmail, pref, nil
	}
	if err != nil {
		return "", pref, err
	}
	return pref.Channel, pref, nil
}

var SendNotificationTask = &SendNotificationTaskDef{}

func (t *SendNotificationTaskDef) sendWhatsappNotif(ctx context.Context, user NotificationUser, args SendNotificationArgs, pref models.UserNotifPreference) error {
	if args.NotifTemplate == "" {
		return fmt.Errorf("notiftemplate is missing")
	}
	if t.Notifiers.Whatsapp == nil {
		return fmt.Errorf("whatsapp channel is not configured")
	}

	msg := replacePlaceholders(args.NotifTemplate, user, args)

	var chatID string
	if pref.WhatsappTargetType == models.WhatsappTargetTypeGroup {
		chatID = pref.WhatsappGroupID
		if chatID == "" {
			return fmt.Errorf("group ID is empty")
		}
		if !strings.HasSuffix(chatID, "@g.us") {
			chatID = chatID + "@g.us"
		}
	} else {
		if user.PhoneNumber == "" {
			return fmt.Errorf("phone number is empty")
		}
		chatID = user.PhoneNumber
	}

	return t.Notifiers.Whatsapp.SendMessage(ctx, chatID, msg)
}

func (t *SendNotificationTaskDef) sendEmailNotif(user NotificationUser, args SendNotificationArgs) error {
	if args.NotifTemplate == "" {
		return fmt.Errorf("notiftemplate is missing")
	}
	if t.Notifiers.Email == nil {
		return fmt.Errorf("email channel is not configured")
	}

	subject := "Notification"
	if args.Subject != "" {
		subject = args.Subject
	}

	return t.Notifiers.Email.SendEmail([]string{user.Email}, subject, replacePlaceholders(args.NotifTemplate, user, args))
}

func replacePlaceholders(template string, user NotificationUser, args SendNotificationArgs) string {
	r := strings.NewReplacer(
		"$name", user.Username,
		"$email", user.Email,
		"$subject", args.Subject,
		"$order_id", fmt.Sprintf("%d", args.OrderID),
		"$installment", fmt.Sprintf("%d", args.InstallmentNumber),
		"$amount", args.Amount,
		"$due_date", args.DueDate,
	)
	return r.Replace(template)
}
