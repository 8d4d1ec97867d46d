package agentloop

import "time"

// TaskStatus is the lifecycle state of a Task record.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

// terminal reports whether a status cannot transition further, matching
// the rule that a task, once it leaves running, is done for good.
func (s TaskStatus) terminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCancelled
}

// Task is a node in the Visibility tracker's task tree: a planned or
// running subtask, owned and mutated only by the agent executing it.
type Task struct {
	ID            string     `json:"id"`
	ParentID      string     `json:"parent_id,omitempty"`
	Depth         int        `json:"depth"`
	AssignedAgent string     `json:"assigned_agent"`
	Description   string     `json:"description"`
	Status        TaskStatus `json:"status"`
	Result        string     `json:"result,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
