package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"speakai-platform/internal/agents"
	"speakai-platform/internal/apperr"
	"speakai-platform/internal/audit"
	"speakai-platform/internal/auth"
	"speakai-platform/internal/convai"
	"speakai-platform/internal/rbac"
	"speakai-platform/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Provider is the batch-calling surface of the conversational-agent API.
type Provider interface {
	SubmitBatchCall(ctx context.Context, in convai.SubmitBatchCallRequest) (convai.BatchCall, error)
	GetBatchCall(ctx context.Context, batchID string) (convai.BatchCall, error)
	CancelBatchCall(ctx context.Context, batchID string) (convai.BatchCall, error)
	RetryBatchCall(ctx context.Context, batchID string) (convai.BatchCall, error)
}

// AgentResolver finds the agent a batch runs on, honoring ownership.
type AgentResolver interface {
	ResolveByName(ctx context.Context, caller auth.Identity, name string) (agents.Agent, error)
	PhoneNumberID(ctx context.Context, a agents.Agent) (string, error)
}

type Auditor interface {
	LogBatchSubmitted(ctx context.Context, actor audit.Actor, ownerID int64, agentID, batchJobID, metadata string) error
}

// listSyncConcurrency bounds provider status calls made by List.
const listSyncConcurrency = 4

// Service submits batch jobs and keeps their local status in step with the provider.
// Status is pulled on every read; there is no background sync.
type Service struct {
	repo     Repository
	provider Provider
	agents   AgentResolver
	audit    Auditor
	loc      *time.Location
}

// NewService builds the dispatcher. auditor may be nil. Schedule times without a zone are read in loc.
func NewService(repo Repository, provider Provider, resolver AgentResolver, auditor Auditor, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, provider: provider, agents: resolver, audit: auditor, loc: loc}
}

func (s *Service) Submit(ctx context.Context, caller auth.Identity, req SubmitRequest) (SubmitResult, error) {
	req.CallName = strings.TrimSpace(req.CallName)
	if req.CallName == "" || strings.TrimSpace(req.AgentName) == "" || strings.TrimSpace(req.Column) == "" {
		return SubmitResult{}, apperr.Validation("agent_name, call_name and column_name are required")
	}
	if len(req.File) == 0 {
		return SubmitResult{}, apperr.Validation("a CSV or Excel file is required")
	}

	sheet, err := ReadSheet(req.Filename, bytes.NewReader(req.File))
	if err != nil {
		return SubmitResult{}, err
	}
	numbers, dropped, err := ExtractPhoneNumbers(sheet, req.Column)
	if err != nil {
		return SubmitResult{}, err
	}
	log := logger.From(ctx).With("call_name", req.CallName)
	if dropped > 0 {
		log.Info("dropped invalid phone numbers", "dropped", dropped, "kept", len(numbers))
	}
	if len(numbers) == 0 {
		return SubmitResult{}, apperr.Validation("no valid phone numbers found in column %q", req.Column)
	}
	scheduled, err := ParseScheduledTime(req.ScheduledTime, s.loc)
	if err != nil {
		return SubmitResult{}, err
	}

	agent, err := s.agents.ResolveByName(ctx, caller, req.AgentName)
	if err != nil {
		return SubmitResult{}, err
	}
	phoneID, err := s.agents.PhoneNumberID(ctx, agent)
	if err != nil {
		return SubmitResult{}, err
	}
	if phoneID == "" {
		return SubmitResult{}, apperr.Validation("agent %q has no provider phone number", agent.AgentName)
	}

	recipients := make([]convai.Recipient, len(numbers))
	for i, n := range numbers {
		recipients[i] = convai.Recipient{PhoneNumber: n}
	}
	bc, err := s.provider.SubmitBatchCall(ctx, convai.SubmitBatchCallRequest{
		CallName:           req.CallName,
		AgentID:            agent.AgentID,
		AgentPhoneNumberID: phoneID,
		ScheduledTimeUnix:  scheduled,
		Recipients:         recipients,
	})
	if err != nil {
		return SubmitResult{}, err
	}

	job := Job{
		UserID:       agent.UserID,
		AgentID:      agent.AgentID,
		BatchJobID:   bc.ID,
		CallName:     req.CallName,
		TotalNumbers: len(numbers),
		Status:       statusOr(bc.Status, StatusSubmitted),
	}
	if scheduled != convai.ImmediateSchedule {
		t := time.Unix(scheduled, 0).UTC()
		job.ScheduledTime = &t
	}
	job, err = s.repo.Create(ctx, job)
	if err != nil {
		return SubmitResult{}, err
	}

	if s.audit != nil {
		meta, _ := json.Marshal(map[string]any{"call_name": job.CallName, "total_numbers": job.TotalNumbers, "dropped": dropped})
		actor := audit.Actor{UserID: caller.UserID, Email: caller.Email, Role: caller.Role}
		if err := s.audit.LogBatchSubmitted(ctx, actor, job.UserID, job.AgentID, job.BatchJobID, string(meta)); err != nil {
			log.Warn("audit append failed", "err", err)
		}
	}
	log.Info("batch submitted", "batch_job_id", job.BatchJobID, "recipients", len(numbers))
	return SubmitResult{Job: job, Recipients: len(numbers), Dropped: dropped}, nil
}

// Status returns the job after overwriting its local status with the live one.
func (s *Service) Status(ctx context.Context, caller auth.Identity, callName string) (StatusResult, error) {
	job, err := s.lookup(ctx, caller, callName)
	if err != nil {
		return StatusResult{}, err
	}
	return s.refresh(ctx, job)
}

// Cancel stops a job that has not reached a terminal state.
func (s *Service) Cancel(ctx context.Context, caller auth.Identity, callName string) (StatusResult, error) {
	job, err := s.lookup(ctx, caller, callName)
	if err != nil {
		return StatusResult{}, err
	}
	cur, err := s.refresh(ctx, job)
	if err != nil {
		return StatusResult{}, err
	}
	if cur.Live.Terminal() {
		return cur, apperr.Validation("batch %q is already %s and cannot be cancelled", job.CallName, cur.Live)
	}

	bc, err := s.provider.CancelBatchCall(ctx, job.BatchJobID)
	if err != nil {
		return StatusResult{}, err
	}
	return s.apply(ctx, cur.Job, bc, StatusCancelled)
}

// Retry re-runs the failed calls of a job. The live status must be terminal.
func (s *Service) Retry(ctx context.Context, caller auth.Identity, callName string) (StatusResult, error) {
	job, err := s.lookup(ctx, caller, callName)
	if err != nil {
		return StatusResult{}, err
	}
	cur, err := s.refresh(ctx, job)
	if err != nil {
		return StatusResult{}, err
	}
	if !cur.Live.Terminal() {
		return cur, apperr.Validation("batch %q is %s, only completed, failed or cancelled batches can be retried", job.CallName, cur.Live)
	}

	bc, err := s.provider.RetryBatchCall(ctx, job.BatchJobID)
	if err != nil {
		return StatusResult{}, err
	}
	return s.apply(ctx, cur.Job, bc, StatusRetrying)
}

// List returns the caller's jobs (all jobs for Super Admin), each synced with the provider.
// A job whose live status cannot be fetched keeps its cached status.
func (s *Service) List(ctx context.Context, caller auth.Identity) ([]Job, error) {
	var (
		jobs []Job
		err  error
	)
	if rbac.IsSuperAdmin(caller.Role) {
		jobs, err = s.repo.ListAll(ctx)
	} else {
		jobs, err = s.repo.ListByUser(ctx, caller.UserID)
	}
	if err != nil {
		return nil, err
	}

	log := logger.From(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listSyncConcurrency)
	for i := range jobs {
		i := i
		g.Go(func() error {
			res, err := s.refresh(gctx, jobs[i])
			if err != nil {
				log.Warn("batch status sync failed", "batch_job_id", jobs[i].BatchJobID, "err", err)
				return nil
			}
			jobs[i] = res.Job
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (s *Service) lookup(ctx context.Context, caller auth.Identity, callName string) (Job, error) {
	callName = strings.TrimSpace(callName)
	if callName == "" {
		return Job{}, apperr.Validation("call_name is required")
	}
	var (
		job Job
		err error
	)
	if rbac.IsSuperAdmin(caller.Role) {
		job, err = s.repo.LatestByCallNameAnyOwner(ctx, callName)
	} else {
		job, err = s.repo.LatestByCallName(ctx, caller.UserID, callName)
	}
	if errors.Is(err, ErrNotFound) {
		return Job{}, apperr.NotFound("Batch call %q not found", callName)
	}
	return job, err
}

func (s *Service) refresh(ctx context.Context, job Job) (StatusResult, error) {
	bc, err := s.provider.GetBatchCall(ctx, job.BatchJobID)
	if err != nil {
		return StatusResult{}, err
	}
	return s.apply(ctx, job, bc, job.Status)
}

// apply stores the provider status on the row when it differs. fallback is used when the
// provider omits a status.
func (s *Service) apply(ctx context.Context, job Job, bc convai.BatchCall, fallback Status) (StatusResult, error) {
	live := statusOr(bc.Status, fallback)
	if live != job.Status {
		updated, err := s.repo.UpdateStatus(ctx, job.ID, live)
		if err != nil {
			return StatusResult{}, err
		}
		logger.From(ctx).Info("batch status synced", "batch_job_id", job.BatchJobID, "from", job.Status, "to", live)
		job = updated
	}
	return StatusResult{
		Job:                  job,
		Live:                 live,
		TotalCallsDispatched: bc.TotalCallsDispatched,
		TotalCallsScheduled:  bc.TotalCallsScheduled,
	}, nil
}

func statusOr(s string, fallback Status) Status {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return fallback
	}
	if s == "canceled" {
		return StatusCancelled
	}
	return Status(s)
}
