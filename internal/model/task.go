package model

// TaskStatus is the lifecycle state of a server-side generation task.
type TaskStatus string

// Task statuses reported by the status endpoint.
const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// Terminal reports whether the status ends the task lifecycle.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// SummaryTask tracks one asynchronous AI summary generation task.
type SummaryTask struct {
	ID       string     `json:"task_id"`
	Status   TaskStatus `json:"status"`
	Progress float64    `json:"progress,omitempty"`
	Error    string     `json:"error,omitempty"`
}
