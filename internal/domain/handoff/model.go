package handoff

import "time"

// EntryStatus is the lifecycle status of a completion queue entry.
type EntryStatus string

const (
	StatusQueued     EntryStatus = "queued"
	StatusProcessing EntryStatus = "processing"
	StatusFailed     EntryStatus = "failed"
	StatusDone       EntryStatus = "done"
)

// Entry is one row of the completion handoff queue, consumed by an
// out-of-process worker.
type Entry struct {
	ID        string      `json:"id"`
	TenantID  string      `json:"tenant_id"`
	SessionID string      `json:"session_id"`
	UserID    string      `json:"user_id"`
	Status    EntryStatus `json:"status"`
	Attempts  int         `json:"attempts"`
	LastError string      `json:"last_error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// EnqueueStatus discriminates the outcome of an enqueue attempt.
type EnqueueStatus string

const (
	EnqueueQueued           EnqueueStatus = "queued"
	EnqueueRequeued         EnqueueStatus = "requeued"
	EnqueueAlreadyCompleted EnqueueStatus = "already_completed"
)

// EnqueueResult is the result of EnqueueCompletion.
type EnqueueResult struct {
	Status EnqueueStatus `json:"status"`
}
