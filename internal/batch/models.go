package batch

import "time"

// Status mirrors the provider's batch job states.
type Status string

const (
	StatusPending    Status = "pending"
	StatusSubmitted  Status = "submitted"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
	StatusRetrying   Status = "retrying"
)

// Terminal states block cancel; only terminal states allow retry.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusFailed:
		return true
	}
	return false
}

// Job is the local record of a batch submission.
//
// Invariants:
// - call_name is not unique; lookups take the most recently created row.
// - status is whatever the provider last reported when the row was read through the service.
type Job struct {
	ID            int64      `json:"id" db:"id"`
	UserID        int64      `json:"user_id" db:"user_id"`
	AgentID       string     `json:"agent_id" db:"agent_id"`
	BatchJobID    string     `json:"batch_job_id" db:"batch_job_id"`
	CallName      string     `json:"call_name" db:"call_name"`
	TotalNumbers  int        `json:"total_numbers" db:"total_numbers"`
	ScheduledTime *time.Time `json:"scheduled_time,omitempty" db:"scheduled_time"`
	Status        Status     `json:"status" db:"status"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

type SubmitRequest struct {
	AgentName string
	CallName  string
	// Column names the sheet column holding phone numbers.
	Column        string
	Filename      string
	File          []byte
	ScheduledTime string
}

type SubmitResult struct {
	Job        Job `json:"job"`
	Recipients int `json:"recipients"`
	// Dropped counts rows whose cell did not normalize to a phone number.
	Dropped int `json:"dropped"`
}

// StatusResult pairs the synced local row with the live provider view.
type StatusResult struct {
	Job                  Job    `json:"job"`
	Live                 Status `json:"live_status"`
	TotalCallsDispatched int    `json:"total_calls_dispatched"`
	TotalCallsScheduled  int    `json:"total_calls_scheduled"`
}
