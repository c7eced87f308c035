package tasks_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"installment_app_echo/internal/models"
	"installment_app_echo/internal/services"
	"installment_app_echo/internal/tasks"
	"installment_app_echo/internal/testutil"
)

type sentEmail struct {
	to      []string
	subject string
	body    string
}

type fakeEmail struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (f *fakeEmail) SendEmail(to []string, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{to, subject, body})
	return nil
}

type fakeWhatsapp struct {
	mu    sync.Mutex
	chats []string
	texts []string
}

func (f *fakeWhatsapp) SendMessage(_ context.Context, chatID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats = append(f.chats, chatID)
	f.texts = append(f.texts, text)
	return nil
}

func notificationTask(t *testing.T, args tasks.SendNotificationArgs) models.ScheduledTask {
	t.Helper()
	task, err := tasks.SendNotificationTask.CreateTask(args, time.Now())
	require.NoError(t, err)
	return *task
}

func TestSendNotificationByPreference(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	carol := testutil.CreateUser(t, db, "carol")

	require.NoError(t, db.Create(&models.UserNotifPreference{UserID: bob.ID, Channel: models.NotificationChannelWhatsapp, WhatsappTargetType: models.WhatsappTargetTypePersonal}).Error)
	require.NoError(t, db.Create(&models.UserNotifPreference{UserID: carol.ID, Channel: models.NotificationChannelNone}).Error)

	email, wa := &fakeEmail{}, &fakeWhatsapp{}
	def := &tasks.SendNotificationTaskDef{Notifiers: tasks.Notifiers{Email: email, Whatsapp: wa}}

	task := notificationTask(t, tasks.SendNotificationArgs{
		Users: []tasks.NotificationUser{
			{UserID: alice.ID, Username: "alice", Email: alice.Email, PhoneNumber: alice.Phone},
			{UserID: bob.ID, Username: "bob", Email: bob.Email, PhoneNumber: "081200000001"},
			{UserID: carol.ID, Username: "carol", Email: carol.Email},
		},
		NotifTemplate:     "Hi $name, installment $installment of order #$order_id ($amount) is due on $due_date.",
		Subject:           "Reminder",
		OrderID:           9,
		InstallmentNumber: 2,
		Amount:            "33.33",
		DueDate:           "2026-05-01",
	})

	result, err := def.HandleExecution(context.Background(), db, task)
	require.NoError(t, err)
	assert.Equal(t, 3, result["total"])
	assert.Equal(t, 2, result["success"])
	assert.Equal(t, 1, result["skipped"])

	require.Len(t, email.sent, 1, "users without a preference get email")
	assert.Equal(t, []string{alice.Email}, email.sent[0].to)
	assert.Equal(t, "Reminder", email.sent[0].subject)
	assert.Equal(t, "Hi alice, installment 2 of order #9 (33.33) is due on 2026-05-01.", email.sent[0].body)

	require.Len(t, wa.chats, 1)
	assert.Equal(t, "081200000001", wa.chats[0])
	assert.Equal(t, "Hi bob, installment 2 of order #9 (33.33) is due on 2026-05-01.", wa.texts[0])
}

func TestSendNotificationReschedulesFailures(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateUser(t, db, "alice")

	def := &tasks.SendNotificationTaskDef{Notifiers: tasks.Notifiers{Email: &fakeEmail{err: errors.New("smtp down")}}}
	args := tasks.SendNotificationArgs{
		Users:         []tasks.NotificationUser{{UserID: alice.ID, Username: "alice", Email: alice.Email}},
		NotifTemplate: "Hi $name",
	}

	result, err := def.HandleExecution(context.Background(), db, notificationTask(t, args))
	require.NoError(t, err)
	assert.Equal(t, 1, result["failure"])
	require.Contains(t, result, "retry_task_id")

	var retry models.ScheduledTask
	require.NoError(t, db.First(&retry, result["retry_task_id"]).Error)
	assert.Equal(t, "send_notification", retry.TaskName)
	assert.True(t, retry.Due.After(time.Now()))
	assert.EqualValues(t, 1, retry.Arguments["attempt_count"])

	// The last attempt gives up for good
	args.AttemptCount = 2
	_, err = def.HandleExecution(context.Background(), db, notificationTask(t, args))
	require.Error(t, err)
	assert.ErrorIs(t, err, tasks.ErrPermanent)
}

func TestInstallmentReminderQueuesNotification(t *testing.T) {
	db := testutil.NewTestDB(t)
	user := testutil.CreateUser(t, db, "alice")
	order, _ := testutil.CreateOrderWithPlans(t, db, user.ID, models.OrderStatusPending, "40", "30", "30")
	require.NoError(t, db.Model(&models.PaymentPlan{}).
		Where("order_id = ? AND installment_number = ?", order.ID, 1).
		Update("is_paid", true).Error)

	task := models.ScheduledTask{
		TaskName:  services.TaskInstallmentReminder,
		Arguments: map[string]interface{}{"order_id": float64(order.ID)},
	}
	result, err := tasks.InstallmentReminderTask.HandleExecution(context.Background(), db, task)
	require.NoError(t, err)
	assert.Equal(t, 2, result["installment"])

	var notif models.ScheduledTask
	require.NoError(t, db.First(&notif, result["notification_task_id"]).Error)
	assert.Equal(t, "send_notification", notif.TaskName)
	assert.Equal(t, "30.00", notif.Arguments["amount"])
	assert.EqualValues(t, order.ID, notif.Arguments["order_id"])
	users, ok := notif.Arguments["users"].([]interface{})
	require.True(t, ok)
	require.Len(t, users, 1)
	assert.Equal(t, user.Email, users[0].(map[string]interface{})["email"])
}

func TestInstallmentReminderSkipsSettledOrders(t *testing.T) {
	db := testutil.NewTestDB(t)
	user := testutil.CreateUser(t, db, "bob")
	paid, _ := testutil.CreateOrderWithPlans(t, db, user.ID, models.OrderStatusPaid, "10")

	result, err := tasks.InstallmentReminderTask.HandleExecution(context.Background(), db, models.ScheduledTask{
		Arguments: map[string]interface{}{"order_id": float64(paid.ID)},
	})
	require.NoError(t, err)
	assert.Equal(t, "skipped", result["status"])

	_, err = tasks.InstallmentReminderTask.HandleExecution(context.Background(), db, models.ScheduledTask{
		Arguments: map[string]interface{}{"order_id": float64(paid.ID + 100)},
	})
	assert.ErrorIs(t, err, tasks.ErrPermanent)

	var count int64
	require.NoError(t, db.Model(&models.ScheduledTask{}).Count(&count).Error)
	assert.Zero(t, count)
}
