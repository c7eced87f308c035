package models

import (
	"time"

	"github.com/teambition/rrule-go"
	"gorm.io/gorm"
)

// ScheduledTaskStatus represents the status of a scheduled task
type ScheduledTaskStatus string

const (
	ScheduledTaskStatusActive   ScheduledTaskStatus = "active"
	ScheduledTaskStatusDone     ScheduledTaskStatus = "done"
	ScheduledTaskStatusFailure  ScheduledTaskStatus = "failure"
	ScheduledTaskStatusDisabled ScheduledTaskStatus = "disabled"
)

// ScheduledTaskType represents the type of scheduled task
type ScheduledTaskType string

const (
	ScheduledTaskTypeOneTime   ScheduledTaskType = "onetime"
	ScheduledTaskTypeRecurring ScheduledTaskType = "recurring"
)

// ScheduledTask is a unit of background work picked up by the worker once Due has passed
type ScheduledTask struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	TaskName  string                 `gorm:"type:varchar(255)" json:"task_name"`
	Arguments map[string]interface{} `gorm:"serializer:json" json:"arguments"`
	LastRun   *time.Time             `json:"last_run"`
	Due       time.Time              `gorm:"index:idx_scheduled_tasks_status_due,priority:2" json:"due"`
	// RecurringInterval is an RFC 5545 RRULE, e.g. FREQ=MONTHLY;COUNT=3
	RecurringInterval *string             `gorm:"type:text" json:"recurring_interval"`
	Status            ScheduledTaskStatus `gorm:"type:varchar(20);index:idx_scheduled_tasks_status_due,priority:1" json:"status"`
	TaskType          ScheduledTaskType   `gorm:"type:varchar(20);default:'onetime'" json:"task_type"`
	MaxAttempt        int                 `json:"max_attempt"`
}

// NextDue returns the first occurrence of the recurrence strictly after the
// current Due. One-time tasks, unparsable rules and exhausted rules return Due.
func (t ScheduledTask) NextDue() time.Time {
	if t.TaskType == ScheduledTaskTypeOneTime {
		return t.Due
	}

	if t.RecurringInterval != nil && *t.RecurringInterval != "" {
		rule, err := rrule.StrToRRule(*t.RecurringInterval)
		if err == nil {
			rule.DTStart(t.firstDue())
			next := rule.After(t.Due, false)
			if !next.IsZero() {
				return next
			}
		}
	}
	return t.Due
}

// firstDue anchors the recurrence at the original start stored in the
// arguments, falling back to the current Due.
func (t ScheduledTask) firstDue() time.Time {
	if s, ok := t.Arguments["starts_at"].(string); ok {
		if start, err := time.Parse(time.RFC3339, s); err == nil {
			return start
		}
	}
	return t.Due
}

// ScheduledTaskHistory tracks the execution history of scheduled tasks
type ScheduledTaskHistory struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	ScheduledTaskID uint           `gorm:"index" json:"scheduled_task_id"`

	TaskName      string                 `gorm:"type:varchar(255)" json:"task_name"`
	RunAt         time.Time              `json:"run_at"`
	Runtime       int                    `json:"runtime"` // milliseconds
	Status        string                 `gorm:"type:varchar(50)" json:"status"`
	AttemptNumber int                    `json:"attempt_number"`
	Arguments     map[string]interface{} `gorm:"serializer:json" json:"arguments"`
	Result        map[string]interface{} `gorm:"serializer:json" json:"result"`
}
