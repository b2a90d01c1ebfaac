package batch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"speakai-platform/internal/agents"
	"speakai-platform/internal/apperr"
	"speakai-platform/internal/audit"
	"speakai-platform/internal/auth"
	"speakai-platform/internal/convai"
	"speakai-platform/internal/rbac"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu        sync.Mutex
	submitted []convai.SubmitBatchCallRequest
	live      map[string]string
	cancelled []string
	retried   []string
	getErr    error
}

func (f *fakeProvider) SubmitBatchCall(_ context.Context, in convai.SubmitBatchCallRequest) (convai.BatchCall, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, in)
	id := "btcal_" + in.CallName
	f.live[id] = "pending"
	return convai.BatchCall{ID: id, Name: in.CallName, Status: "pending"}, nil
}

func (f *fakeProvider) GetBatchCall(_ context.Context, id string) (convai.BatchCall, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return convai.BatchCall{}, f.getErr
	}
	return convai.BatchCall{ID: id, Status: f.live[id], TotalCallsDispatched: 1, TotalCallsScheduled: 2}, nil
}

func (f *fakeProvider) CancelBatchCall(_ context.Context, id string) (convai.BatchCall, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, id)
	f.live[id] = "cancelled"
	return convai.BatchCall{ID: id, Status: "cancelled"}, nil
}

func (f *fakeProvider) RetryBatchCall(_ context.Context, id string) (convai.BatchCall, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retried = append(f.retried, id)
	f.live[id] = "pending"
	return convai.BatchCall{ID: id}, nil
}

type fakeResolver struct {
	rows []agents.Agent
}

func (r fakeResolver) ResolveByName(_ context.Context, caller auth.Identity, name string) (agents.Agent, error) {
	for i := len(r.rows) - 1; i >= 0; i-- {
		a := r.rows[i]
		if a.AgentName == name && rbac.CanAccess(caller.Role, caller.UserID, a.UserID) {
			return a, nil
		}
	}
	return agents.Agent{}, apperr.NotFound("Agent %q not found", name)
}

func (r fakeResolver) PhoneNumberID(_ context.Context, a agents.Agent) (string, error) {
	if a.PhoneNumberID == nil {
		return "", nil
	}
	return *a.PhoneNumberID, nil
}

var (
	owner = auth.Identity{UserID: 1, Email: "owner@example.com", Role: rbac.RoleAdmin}
	other = auth.Identity{UserID: 2, Email: "other@example.com", Role: rbac.RoleAdmin}
	super = auth.Identity{UserID: 3, Email: "root@example.com", Role: rbac.RoleSuperAdmin}
)

func newTestService(t *testing.T) (*Service, *fakeProvider, *MemoryRepo, *audit.MemoryRepo) {
	t.Helper()
	phone := "phnum_1"
	resolver := fakeResolver{rows: []agents.Agent{
		{ID: 1, UserID: 1, AgentID: "agent_1", AgentName: "Front Desk", PhoneNumberID: &phone},
		{ID: 2, UserID: 1, AgentID: "agent_2", AgentName: "Unlinked"},
	}}
	p := &fakeProvider{live: map[string]string{}}
	repo := NewMemoryRepo()
	ar := audit.NewMemoryRepo()
	return NewService(repo, p, resolver, audit.NewService(ar), time.UTC), p, repo, ar
}

const leads = "name,phone\nAda,(555) 123-4567\nBob,n/a\nCy,5559876543\n"

func submitReq(callName string) SubmitRequest {
	return SubmitRequest{
		AgentName: "Front Desk",
		CallName:  callName,
		Column:    "phone",
		Filename:  "leads.csv",
		File:      []byte(leads),
	}
}

func TestSubmit(t *testing.T) {
	svc, p, _, ar := newTestService(t)
	req := submitReq("july-promo")
	req.ScheduledTime = "2025-07-10 15:30"

	res, err := svc.Submit(context.Background(), owner, req)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Recipients)
	assert.Equal(t, 1, res.Dropped)
	assert.Equal(t, StatusPending, res.Job.Status)
	require.NotNil(t, res.Job.ScheduledTime)
	assert.Equal(t, time.Date(2025, 7, 10, 15, 30, 0, 0, time.UTC), *res.Job.ScheduledTime)

	require.Len(t, p.submitted, 1)
	sent := p.submitted[0]
	assert.Equal(t, "agent_1", sent.AgentID)
	assert.Equal(t, "phnum_1", sent.AgentPhoneNumberID)
	assert.Equal(t, []convai.Recipient{{PhoneNumber: "+15551234567"}, {PhoneNumber: "+15559876543"}}, sent.Recipients)

	events := ar.Events()
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventTypeBatchSubmitted, events[0].Type)
}

func TestSubmit_ImmediateWhenNoSchedule(t *testing.T) {
	svc, p, _, _ := newTestService(t)
	res, err := svc.Submit(context.Background(), owner, submitReq("now"))
	require.NoError(t, err)
	assert.Nil(t, res.Job.ScheduledTime)
	assert.Equal(t, convai.ImmediateSchedule, p.submitted[0].ScheduledTimeUnix)
}

func TestSubmit_ValidationBeforeUpstream(t *testing.T) {
	svc, p, _, _ := newTestService(t)
	ctx := context.Background()

	noNumbers := submitReq("x")
	noNumbers.File = []byte("phone\nnan\n123\n")
	_, err := svc.Submit(ctx, owner, noNumbers)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	badTime := submitReq("x")
	badTime.ScheduledTime = "whenever"
	_, err = svc.Submit(ctx, owner, badTime)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	badColumn := submitReq("x")
	badColumn.Column = "mobile"
	_, err = svc.Submit(ctx, owner, badColumn)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	unlinked := submitReq("x")
	unlinked.AgentName = "Unlinked"
	_, err = svc.Submit(ctx, owner, unlinked)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Submit(ctx, other, submitReq("x"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.Empty(t, p.submitted)
}

func TestStatus_OverwritesLocalWithLive(t *testing.T) {
	svc, p, repo, _ := newTestService(t)
	ctx := context.Background()
	res, err := svc.Submit(ctx, owner, submitReq("promo"))
	require.NoError(t, err)

	p.live[res.Job.BatchJobID] = "in_progress"
	st, err := svc.Status(ctx, owner, "promo")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, st.Live)
	assert.Equal(t, StatusInProgress, st.Job.Status)

	stored, err := repo.LatestByCallName(ctx, 1, "promo")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, stored.Status)

	_, err = svc.Status(ctx, other, "promo")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.Status(ctx, super, "promo")
	assert.NoError(t, err)
}

func TestStatus_MostRecentCallNameWins(t *testing.T) {
	svc, _, repo, _ := newTestService(t)
	ctx := context.Background()
	_, err := repo.Create(ctx, Job{UserID: 1, BatchJobID: "old", CallName: "promo", Status: StatusCompleted})
	require.NoError(t, err)
	_, err = repo.Create(ctx, Job{UserID: 1, BatchJobID: "new", CallName: "promo", Status: StatusPending})
	require.NoError(t, err)

	st, err := svc.Status(ctx, owner, "promo")
	require.NoError(t, err)
	assert.Equal(t, "new", st.Job.BatchJobID)
}

func TestCancel(t *testing.T) {
	svc, p, _, _ := newTestService(t)
	ctx := context.Background()
	res, err := svc.Submit(ctx, owner, submitReq("promo"))
	require.NoError(t, err)

	st, err := svc.Cancel(ctx, owner, "promo")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, st.Job.Status)
	assert.Equal(t, []string{res.Job.BatchJobID}, p.cancelled)

	_, err = svc.Cancel(ctx, owner, "promo")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Len(t, p.cancelled, 1)
}

func TestRetry_UsesLiveStatus(t *testing.T) {
	svc, p, repo, _ := newTestService(t)
	ctx := context.Background()
	res, err := svc.Submit(ctx, owner, submitReq("promo"))
	require.NoError(t, err)

	// Cached terminal, live still running: refused.
	_, err = repo.UpdateStatus(ctx, res.Job.ID, StatusFailed)
	require.NoError(t, err)
	for _, live := range []string{"in_progress", "pending", "submitted", "retrying"} {
		p.live[res.Job.BatchJobID] = live
		_, err = svc.Retry(ctx, owner, "promo")
		assert.ErrorIs(t, err, apperr.ErrValidation, live)
	}
	assert.Empty(t, p.retried)

	p.live[res.Job.BatchJobID] = "failed"
	st, err := svc.Retry(ctx, owner, "promo")
	require.NoError(t, err)
	assert.Equal(t, StatusRetrying, st.Job.Status)
	assert.Len(t, p.retried, 1)
}

func TestList_SyncsAndKeepsCachedOnError(t *testing.T) {
	svc, p, _, _ := newTestService(t)
	ctx := context.Background()
	a, err := svc.Submit(ctx, owner, submitReq("a"))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, owner, submitReq("b"))
	require.NoError(t, err)

	p.live[a.Job.BatchJobID] = "completed"
	jobs, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "b", jobs[0].CallName)
	assert.Equal(t, StatusCompleted, jobs[1].Status)

	p.getErr = errors.New("provider down")
	jobs, err = svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, jobs[1].Status)

	none, err := svc.List(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, none)
}
