package tasks

// DefineTasks registers every task the worker knows how to run
func DefineTasks(r *Registry, notifiers Notifiers) {
	r.Register(LogInfoTask.TaskID(), LogInfoTask.HandleExecution)

	r.Register(InstallmentReminderTask.TaskID(), InstallmentReminderTask.HandleExecution)

	sendNotification := &SendNotificationTaskDef{Notifiers: notifiers}
	r.Register(sendNotification.TaskID(), sendNotification.HandleExecution)
}
