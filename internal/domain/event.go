package domain

// Task event types pushed to live clients.
const (
	EventTaskCreated     = "task.created"
	EventTaskUpdated     = "task.updated"
	EventTaskDeleted     = "task.deleted"
	EventTaskCompleted   = "task.completed"
	EventTaskUncompleted = "task.uncompleted"
)

// TaskEvent describes a change to one of the user's tasks.
type TaskEvent struct {
	Type   string `json:"type"`
	TaskID int64  `json:"task_id"`
	Date   string `json:"date,omitempty"`
	Task   *Task  `json:"task,omitempty"`
}
