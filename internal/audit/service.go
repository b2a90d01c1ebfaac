package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events. It is append-only.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records audit events. Callers treat failures as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s == nil || s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.OwnerUserID == 0 || e.Type == "" {
		return ErrInvalidEvent
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// LogAgentProvisioned records a completed create pipeline; metadata carries the step report.
func (s *Service) LogAgentProvisioned(ctx context.Context, actor Actor, ownerID, agentRowID int64, agentID, metadata string) error {
	return s.Append(ctx, Event{
		OwnerUserID: ownerID,
		Type:        EventTypeAgentProvisioned,
		ActorUserID: actor.UserID,
		ActorEmail:  actor.Email,
		ActorRole:   actor.Role,
		AgentRowID:  agentRowID,
		AgentID:     agentID,
		Message:     "agent provisioned",
		Metadata:    metadata,
	})
}

// LogAgentDecommissioned records a delete; metadata carries the cleanup report.
func (s *Service) LogAgentDecommissioned(ctx context.Context, actor Actor, ownerID, agentRowID int64, agentID, metadata string) error {
	return s.Append(ctx, Event{
		OwnerUserID: ownerID,
		Type:        EventTypeAgentDecommissioned,
		ActorUserID: actor.UserID,
		ActorEmail:  actor.Email,
		ActorRole:   actor.Role,
		AgentRowID:  agentRowID,
		AgentID:     agentID,
		Message:     "agent decommissioned",
		Metadata:    metadata,
	})
}

// LogCrossOwnerAccess records a Super Admin acting on another user's rows.
func (s *Service) LogCrossOwnerAccess(ctx context.Context, actor Actor, ownerID int64, message string) error {
	return s.Append(ctx, Event{
		OwnerUserID: ownerID,
		Type:        EventTypeCrossOwnerAccess,
		ActorUserID: actor.UserID,
		ActorEmail:  actor.Email,
		ActorRole:   actor.Role,
		Message:     message,
	})
}

// LogBatchSubmitted records a batch-calling submission.
func (s *Service) LogBatchSubmitted(ctx context.Context, actor Actor, ownerID int64, agentID, batchJobID, metadata string) error {
	return s.Append(ctx, Event{
		OwnerUserID: ownerID,
		Type:        EventTypeBatchSubmitted,
		ActorUserID: actor.UserID,
		ActorEmail:  actor.Email,
		ActorRole:   actor.Role,
		AgentID:     agentID,
		BatchJobID:  batchJobID,
		Message:     "batch call submitted",
		Metadata:    metadata,
	})
}
