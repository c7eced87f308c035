package tasks

import (
	"context"
	"log"

	"gorm.io/gorm"

	"installment_app_echo/internal/models"
)

// LogInfoTaskDef writes its message argument to the worker log. Handy for
// checking that the worker picks tasks up.
type LogInfoTaskDef struct{}

func (t *LogInfoTaskDef) TaskID() string {
	return "log_info"
}

func (t *LogInfoTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	message, ok := task.Arguments["message"].(string)
	if !ok {
		message = "No message provided"
	}
	log.Printf("[Task: log_info] Message: %s", message)

	return map[string]interface{}{
		"status":  "success",
		"message": message,
	}, nil
}

var LogInfoTask = &LogInfoTaskDef{}
