package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"installment_app_echo/internal/models"
)

// ErrPermanent marks a task failure that must not be retried.
var ErrPermanent = errors.New("permanent task failure")

// Permanent wraps err so the runner stops retrying it.
func Permanent(err error) error {
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// Runner executes due scheduled tasks and records their history
type Runner struct {
	db       *gorm.DB
	registry *Registry
	now      func() time.Time
}

func NewRunner(db *gorm.DB, registry *Registry) *Runner {
	return &Runner{db: db, registry: registry, now: time.Now}
}

// Run processes due tasks immediately and then on every tick until ctx is done.
func (r *Runner) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.RunDue(ctx)

	for {
		select {
		case <-ticker.C:
			r.RunDue(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// RunDue executes every active task whose due time has passed and returns how many ran.
func (r *Runner) RunDue(ctx context.Context) int {
	log.Println("Checking for pending tasks...")

	var pendingTasks []models.ScheduledTask
	if err := r.db.WithContext(ctx).
		Where("status = ? AND due <= ?", models.ScheduledTaskStatusActive, r.now()).
		Order("due").
		Find(&pendingTasks).Error; err != nil {
		log.Printf("Error fetching pending tasks: %v", err)
		return 0
	}

	if len(pendingTasks) == 0 {
		log.Println("No pending tasks found.")
		return 0
	}

	log.Printf("Found %d pending tasks.", len(pendingTasks))

	ran := 0
	for _, task := range pendingTasks {
		if ctx.Err() != nil {
			break
		}
		r.Execute(ctx, task)
		ran++
	}
	return ran
}

// Execute runs one task, retrying failures up to MaxAttempt times, and
// advances or closes the task afterwards.
func (r *Runner) Execute(ctx context.Context, task models.ScheduledTask) {
	log.Printf("Processing task: %s (ID: %d)", task.TaskName, task.ID)

	db := r.db.WithContext(ctx)

	handler, found := r.registry.Get(task.TaskName)
	if !found {
		log.Printf("Task handler not found for: %s. Marking as failure.", task.TaskName)

		now := r.now()
		if err := db.Model(&task).Updates(map[string]interface{}{
			"status":   models.ScheduledTaskStatusFailure,
			"last_run": &now,
		}).Error; err != nil {
			log.Printf("Failed to update task %d: %v", task.ID, err)
		}
		if err := db.Create(&models.ScheduledTaskHistory{
			ScheduledTaskID: task.ID,
			TaskName:        task.TaskName,
			RunAt:           now,
			Status:          "handler_not_found",
			AttemptNumber:   1,
			Arguments:       task.Arguments,
			Result:          map[string]interface{}{"error": "Handler not found"},
		}).Error; err != nil {
			log.Printf("Failed to record history for task %d: %v", task.ID, err)
		}
		return
	}

	maxAttempt := task.MaxAttempt
	if maxAttempt < 1 {
		maxAttempt = 1
	}

	var startTime time.Time
	var err error
	for attempt := 1; attempt <= maxAttempt; attempt++ {
		startTime = r.now()
		var result map[string]interface{}
		result, err = handler(ctx, r.db, task)
		runtimeMs := int(time.Since(startTime).Milliseconds())

		status := "success"
		resultData := result
		if err != nil {
			status = "failure"
			resultData = map[string]interface{}{"error": err.Error()}
			for k, v := range result {
				resultData[k] = v
			}
			log.Printf("Task %s failed (attempt %d/%d): %v", task.TaskName, attempt, maxAttempt, err)
		} else {
			log.Printf("Task %s completed successfully.", task.TaskName)
		}

		if herr := db.Create(&models.ScheduledTaskHistory{
			ScheduledTaskID: task.ID,
			TaskName:        task.TaskName,
			RunAt:           startTime,
			Runtime:         runtimeMs,
			Status:          status,
			AttemptNumber:   attempt,
			Arguments:       task.Arguments,
			Result:          resultData,
		}).Error; herr != nil {
			log.Printf("Failed to record history for task %d attempt %d: %v", task.ID, attempt, herr)
		}

		if err == nil || errors.Is(err, ErrPermanent) || ctx.Err() != nil {
			break
		}
	}

	taskUpdates := map[string]interface{}{
		"last_run": &startTime,
	}

	if err != nil {
		taskUpdates["status"] = models.ScheduledTaskStatusFailure
	} else {
		switch task.TaskType {
		case models.ScheduledTaskTypeRecurring:
			// Close the task once the rule is exhausted so it does not run again for the same due
			nextDue := task.NextDue()
			if nextDue.After(task.Due) {
				taskUpdates["status"] = models.ScheduledTaskStatusActive
				taskUpdates["due"] = nextDue
			} else {
				taskUpdates["status"] = models.ScheduledTaskStatusDone
			}
		default:
			taskUpdates["status"] = models.ScheduledTaskStatusDone
		}
	}

	if err := db.Model(&task).Updates(taskUpdates).Error; err != nil {
		log.Printf("Failed to update task %d: %v", task.ID, err)
	}
}
