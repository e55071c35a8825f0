package model

import "time"

// TaskStatus is the lifecycle state of a background tuning task.
type TaskStatus string

// Task states.
const (
	TaskPending TaskStatus = "pending"
	TaskRunning TaskStatus = "running"
	TaskDone    TaskStatus = "done"
	TaskFailed  TaskStatus = "failed"
)

// Finished reports whether the task reached a terminal state.
func (s TaskStatus) Finished() bool { return s == TaskDone || s == TaskFailed }

// TuneJob is a queued tuning request.
type TuneJob struct {
	TaskID      string
	Mode        Mode
	FirstSeason int
	LastSeason  int
	Trials      int
	// Refresh re-downloads the games table instead of reading the cache.
	Refresh    bool
	EnqueuedAt time.Time
}

// Task is the status handle of a tuning job.
type Task struct {
	ID         string              `json:"task_id"`
	Mode       Mode                `json:"mode"`
	Status     TaskStatus          `json:"status"`
	Error      string              `json:"error,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	StartedAt  *time.Time          `json:"started_at,omitempty"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
	Result     *TunedConfiguration `json:"result,omitempty"`
}
