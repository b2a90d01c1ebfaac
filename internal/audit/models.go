package audit

import "time"

// Event is an immutable, append-only record of an operator-relevant action.
//
// Invariants:
// - Events are never updated or deleted.
// - owner_user_id is the user owning the affected row; actor fields describe the caller.
// - Writes are best-effort; provisioning never fails on an audit error.
type Event struct {
	ID          string    `json:"id" db:"id"`
	OwnerUserID int64     `json:"owner_user_id" db:"owner_user_id"`
	Type        EventType `json:"type" db:"type"`

	ActorUserID int64  `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorEmail  string `json:"actor_email,omitempty" db:"actor_email"`
	ActorRole   string `json:"actor_role,omitempty" db:"actor_role"`

	// Target identifiers, depending on the event type.
	AgentRowID int64  `json:"agent_row_id,omitempty" db:"agent_row_id"`
	AgentID    string `json:"agent_id,omitempty" db:"agent_id"`
	BatchJobID string `json:"batch_job_id,omitempty" db:"batch_job_id"`

	Message string `json:"message,omitempty" db:"message"`
	// Metadata is optional JSON, e.g. a cleanup report.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeAgentProvisioned    EventType = "agent_provisioned"
	EventTypeAgentDecommissioned EventType = "agent_decommissioned"
	EventTypeCrossOwnerAccess    EventType = "cross_owner_access"
	EventTypeBatchSubmitted      EventType = "batch_submitted"
)

// Actor is the authenticated caller behind an event.
type Actor struct {
	UserID int64
	Email  string
	Role   string
}
