package agents

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"speakai-platform/internal/apperr"
	"speakai-platform/internal/audit"
	"speakai-platform/internal/auth"
	"speakai-platform/internal/convai"
	"speakai-platform/internal/rbac"
	"speakai-platform/internal/storage"
	"speakai-platform/internal/telephony"
	"speakai-platform/internal/users"
)

type fakeProvider struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error

	lastPayload convai.AgentPayload
	lastVoice   convai.AddVoiceRequest
	assigned    map[string]*string
	numbers     []convai.PhoneNumber
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{fail: map[string]error{}, assigned: map[string]*string{}}
}

func (f *fakeProvider) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
	return f.fail[op]
}

func (f *fakeProvider) called(op string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == op {
			return true
		}
	}
	return false
}

func (f *fakeProvider) CreateKnowledgeBaseDocument(_ context.Context, filename, _ string, r io.Reader) (convai.KnowledgeBaseDocument, error) {
	_, _ = io.ReadAll(r)
	if err := f.record("kb_create"); err != nil {
		return convai.KnowledgeBaseDocument{}, err
	}
	return convai.KnowledgeBaseDocument{ID: "doc_1", Name: filename}, nil
}

func (f *fakeProvider) TriggerRAGIndex(context.Context, string, convai.RAGIndexRequest) (convai.RAGIndexStatus, error) {
	return convai.RAGIndexStatus{Status: "created"}, f.record("rag_index")
}

func (f *fakeProvider) DeleteKnowledgeBaseDocument(_ context.Context, id string) error {
	return f.record("kb_delete:" + id)
}

func (f *fakeProvider) AddVoice(_ context.Context, in convai.AddVoiceRequest) (convai.AddVoiceResult, error) {
	f.mu.Lock()
	f.lastVoice = in
	f.mu.Unlock()
	if err := f.record("voice_add"); err != nil {
		return convai.AddVoiceResult{}, err
	}
	return convai.AddVoiceResult{VoiceID: "voice_custom"}, nil
}

func (f *fakeProvider) DeleteVoice(_ context.Context, id string) error {
	return f.record("voice_delete:" + id)
}

func (f *fakeProvider) CreateAgent(_ context.Context, in convai.AgentPayload) (string, error) {
	f.mu.Lock()
	f.lastPayload = in
	f.mu.Unlock()
	if err := f.record("agent_create"); err != nil {
		return "", err
	}
	return "agent_1", nil
}

func (f *fakeProvider) UpdateAgent(_ context.Context, _ string, in convai.AgentPayload) error {
	f.mu.Lock()
	f.lastPayload = in
	f.mu.Unlock()
	return f.record("agent_update")
}

func (f *fakeProvider) DeleteAgent(_ context.Context, id string) error {
	return f.record("agent_delete:" + id)
}

func (f *fakeProvider) ImportPhoneNumber(context.Context, convai.ImportPhoneNumberRequest) (string, error) {
	if err := f.record("number_import"); err != nil {
		return "", err
	}
	return "phnum_1", nil
}

func (f *fakeProvider) AssignAgent(_ context.Context, phoneID string, agentID *string) error {
	if err := f.record("number_assign"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assigned[phoneID] = agentID
	return nil
}

func (f *fakeProvider) ListPhoneNumbers(context.Context) ([]convai.PhoneNumber, error) {
	if err := f.record("number_list"); err != nil {
		return nil, err
	}
	return f.numbers, nil
}

func (f *fakeProvider) DeletePhoneNumber(_ context.Context, id string) error {
	return f.record("number_delete:" + id)
}

type fakeNumbers struct {
	bought   []string
	released []string
	buyErr   error
	notFound bool
}

func (n *fakeNumbers) BuyNumber(_ context.Context, req telephony.BuyNumberRequest) (telephony.BuyNumberResult, error) {
	if n.buyErr != nil {
		return telephony.BuyNumberResult{}, n.buyErr
	}
	n.bought = append(n.bought, req.FriendlyName)
	return telephony.BuyNumberResult{Number: "+15551230000", ProviderNumberID: "PN1"}, nil
}

func (n *fakeNumbers) ReleaseNumber(_ context.Context, req telephony.ReleaseNumberRequest) (telephony.ReleaseNumberResult, error) {
	n.released = append(n.released, req.Number)
	if n.notFound {
		return telephony.ReleaseNumberResult{NotFound: true}, nil
	}
	return telephony.ReleaseNumberResult{Released: true}, nil
}

func (n *fakeNumbers) Credentials() telephony.Credentials {
	return telephony.Credentials{AccountSID: "AC1", AuthToken: "tok"}
}

type denyCap struct{}

func (denyCap) Acquire(context.Context, string) (string, bool, error) { return "", false, nil }
func (denyCap) Release(context.Context, string, string) error         { return nil }

type fixture struct {
	svc      *Service
	repo     *MemoryRepo
	provider *fakeProvider
	numbers  *fakeNumbers
	store    *storage.MemoryStore
	audit    *audit.MemoryRepo
	owner    auth.Identity
	other    auth.Identity
	super    auth.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ur := users.NewMemoryRepo()
	ur.Put(users.User{ID: 1, Email: "owner@example.com", Role: rbac.RoleAdmin, IsActive: true})
	ur.Put(users.User{ID: 2, Email: "other@example.com", Role: rbac.RoleAdmin, IsActive: true})
	ur.Put(users.User{ID: 3, Email: "root@example.com", Role: rbac.RoleSuperAdmin, IsActive: true})

	f := &fixture{
		repo:     NewMemoryRepo(),
		provider: newFakeProvider(),
		numbers:  &fakeNumbers{},
		store:    storage.NewMemoryStore("speakai-assets", "us-east-1"),
		audit:    audit.NewMemoryRepo(),
		owner:    auth.Identity{UserID: 1, Email: "owner@example.com", Role: rbac.RoleAdmin, IsActive: true},
		other:    auth.Identity{UserID: 2, Email: "other@example.com", Role: rbac.RoleAdmin, IsActive: true},
		super:    auth.Identity{UserID: 3, Email: "root@example.com", Role: rbac.RoleSuperAdmin, IsActive: true},
	}
	f.svc = NewService(Deps{
		Repo:        f.repo,
		Agents:      f.provider,
		Numbers:     f.numbers,
		Store:       f.store,
		Owners:      users.NewService(ur, nil, nil),
		Audit:       audit.NewService(f.audit),
		StepTimeout: time.Second,
	})
	return f
}

func baseCreate() CreateRequest {
	return CreateRequest{
		AgentName:    "Front Desk",
		FirstMessage: "Hello, how can I help?",
		Prompt:       "You are a receptionist.",
		LLM:          "gpt-4o-mini",
	}
}

func TestCreate_FullChain(t *testing.T) {
	f := newFixture(t)
	req := baseCreate()
	req.Document = &Upload{Filename: "faq.pdf", ContentType: "application/pdf", Data: pdfBytes}
	req.Voice = &Upload{Filename: "me.mp3", ContentType: "audio/mpeg", Data: mp3Bytes}

	res, err := f.svc.Create(context.Background(), f.owner, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	a := res.Agent
	if a.AgentID != "agent_1" || a.TwilioNumber != "+15551230000" || a.VoiceID != "voice_custom" {
		t.Fatalf("unexpected agent: %+v", a)
	}
	if deref(a.PhoneNumberID) != "phnum_1" || deref(a.DocumentationID) != "doc_1" {
		t.Fatalf("expected provider ids to be stored: %+v", a)
	}
	if deref(a.FileURL) != "https://speakai-assets.s3.us-east-1.amazonaws.com/user_docs/owner@example.com/faq.pdf" {
		t.Fatalf("unexpected file url %q", deref(a.FileURL))
	}
	if _, ok := f.store.Get("user_voices/owner@example.com/me.mp3"); !ok {
		t.Fatalf("expected voice sample in object storage")
	}
	if got := f.provider.lastPayload.ConversationConfig.TTS.VoiceID; got != "voice_custom" {
		t.Fatalf("expected cloned voice on agent, got %q", got)
	}
	kb := f.provider.lastPayload.ConversationConfig.Agent.Prompt.KnowledgeBase
	if len(kb) != 1 || kb[0].ID != "doc_1" || kb[0].Name != "faq.pdf" {
		t.Fatalf("unexpected knowledge base refs %+v", kb)
	}
	if f.provider.lastVoice.Name != "Front Desk_voice" || f.provider.lastVoice.Labels["user_uploaded"] != "true" {
		t.Fatalf("unexpected voice request %+v", f.provider.lastVoice)
	}
	if len(f.numbers.bought) != 1 || f.numbers.bought[0] != "Front Desk Line" {
		t.Fatalf("unexpected purchases %v", f.numbers.bought)
	}
	if got := f.provider.assigned["phnum_1"]; got == nil || *got != "agent_1" {
		t.Fatalf("expected number linked to agent")
	}
	if len(res.Report.Warnings()) != 0 {
		t.Fatalf("unexpected warnings %+v", res.Report.Warnings())
	}
	if ev := f.audit.Events(); len(ev) != 1 || ev[0].Type != audit.EventTypeAgentProvisioned {
		t.Fatalf("expected provisioned audit event, got %+v", ev)
	}
}

func TestCreate_DefaultVoiceWithoutSample(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Create(context.Background(), f.owner, baseCreate())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Agent.VoiceID != DefaultVoiceID || res.Agent.DocumentationID != nil {
		t.Fatalf("unexpected agent %+v", res.Agent)
	}
	if f.provider.called("voice_add") || f.provider.called("kb_create") {
		t.Fatalf("no upload steps expected, calls=%v", f.provider.calls)
	}
}

func TestCreate_LinkFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.provider.fail["number_assign"] = &apperr.UpstreamError{Provider: "elevenlabs", Op: "phone number link", Status: 500, Body: "oops"}

	res, err := f.svc.Create(context.Background(), f.owner, baseCreate())
	if err != nil {
		t.Fatalf("link failure must not fail create: %v", err)
	}
	w := res.Report.Warnings()
	if len(w) != 1 || w[0].Name != "link_number" {
		t.Fatalf("expected link_number warning, got %+v", w)
	}
	if _, err := f.repo.GetByName(context.Background(), 1, "Front Desk"); err != nil {
		t.Fatalf("expected row persisted: %v", err)
	}
}

func TestCreate_AgentFailureCompensates(t *testing.T) {
	f := newFixture(t)
	f.provider.fail["agent_create"] = &apperr.UpstreamError{Provider: "elevenlabs", Op: "agent creation", Status: 422, Body: "bad llm"}
	req := baseCreate()
	req.Voice = &Upload{Filename: "me.mp3", ContentType: "audio/mpeg", Data: mp3Bytes}

	res, err := f.svc.Create(context.Background(), f.owner, req)
	ue, ok := apperr.AsUpstream(err)
	if !ok || ue.Status != 422 {
		t.Fatalf("expected upstream 422, got %v", err)
	}
	if len(f.numbers.released) != 1 || f.numbers.released[0] != "+15551230000" {
		t.Fatalf("expected purchased number released, got %v", f.numbers.released)
	}
	if !f.provider.called("voice_delete:voice_custom") {
		t.Fatalf("expected cloned voice deleted, calls=%v", f.provider.calls)
	}
	if len(res.Report.Compensations) != 2 {
		t.Fatalf("expected two compensations, got %+v", res.Report.Compensations)
	}
	if rows, _ := f.repo.ListAll(context.Background()); len(rows) != 0 {
		t.Fatalf("no row expected after failed create")
	}
}

func TestCreate_PurchaseFailureStopsChain(t *testing.T) {
	f := newFixture(t)
	f.numbers.buyErr = telephony.ErrNoNumbersAvailable

	_, err := f.svc.Create(context.Background(), f.owner, baseCreate())
	if !errors.Is(err, telephony.ErrNoNumbersAvailable) {
		t.Fatalf("expected purchase error, got %v", err)
	}
	if f.provider.called("agent_create") {
		t.Fatalf("agent must not be created after purchase failure")
	}
}

func TestCreate_PreconditionsBeforeUpstream(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Create(ctx, f.owner, baseCreate()); err != nil {
		t.Fatalf("seed create: %v", err)
	}
	f.provider.calls = nil
	f.numbers.bought = nil

	if _, err := f.svc.Create(ctx, f.owner, baseCreate()); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict for duplicate name, got %v", err)
	}

	bad := baseCreate()
	bad.AgentName = "Other"
	bad.Document = &Upload{Filename: "notes.txt", ContentType: "text/plain", Data: []byte("hi")}
	if _, err := f.svc.Create(ctx, f.owner, bad); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	foreign := baseCreate()
	foreign.AgentName = "Other"
	foreign.OwnerEmail = "other@example.com"
	if _, err := f.svc.Create(ctx, f.owner, foreign); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found for foreign owner, got %v", err)
	}

	if len(f.provider.calls) != 0 || len(f.numbers.bought) != 0 {
		t.Fatalf("no upstream calls expected, got %v %v", f.provider.calls, f.numbers.bought)
	}
}

func TestCreate_SuperAdminOnBehalf(t *testing.T) {
	f := newFixture(t)
	req := baseCreate()
	req.OwnerEmail = "Other@Example.com"
	res, err := f.svc.Create(context.Background(), f.super, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Agent.UserID != 2 {
		t.Fatalf("expected row owned by user 2, got %d", res.Agent.UserID)
	}
	if cross := f.audit.OfType(audit.EventTypeCrossOwnerAccess); len(cross) != 1 || cross[0].OwnerUserID != 2 {
		t.Fatalf("expected one cross owner audit event for user 2, got %+v", cross)
	}
}

func TestCreate_ConcurrencyCap(t *testing.T) {
	f := newFixture(t)
	f.svc.cap = denyCap{}
	_, err := f.svc.Create(context.Background(), f.owner, baseCreate())
	if !errors.Is(err, apperr.ErrRateLimited) {
		t.Fatalf("expected rate limited, got %v", err)
	}
}

func TestUpdate_OnlyFirstMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, f.owner, baseCreate())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	msg := "Welcome back!"
	blank := ""
	res, err := f.svc.Update(ctx, f.owner, UpdateRequest{AgentName: "Front Desk", FirstMessage: &msg, Prompt: &blank})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	a := res.Agent
	if a.FirstMessage != msg {
		t.Fatalf("first message not updated: %q", a.FirstMessage)
	}
	if a.Prompt != created.Agent.Prompt || a.LLM != created.Agent.LLM || a.VoiceID != created.Agent.VoiceID || a.AgentName != created.Agent.AgentName {
		t.Fatalf("unexpected changes: %+v", a)
	}
	if deref(a.PhoneNumberID) != "phnum_1" || a.TwilioNumber != created.Agent.TwilioNumber {
		t.Fatalf("number linkage must be immutable: %+v", a)
	}
	p := f.provider.lastPayload.ConversationConfig
	if p.Agent.FirstMessage != msg || p.Agent.Prompt.Prompt != created.Agent.Prompt || p.TTS.VoiceID != DefaultVoiceID {
		t.Fatalf("expected full payload re-issued, got %+v", p)
	}
}

func TestUpdate_NewVoiceReplacesOld(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := baseCreate()
	req.Voice = &Upload{Filename: "me.mp3", ContentType: "audio/mpeg", Data: mp3Bytes}
	if _, err := f.svc.Create(ctx, f.owner, req); err != nil {
		t.Fatalf("create: %v", err)
	}
	// The fake hands out the same id; make the stored one distinct.
	a, _ := f.repo.GetByName(ctx, 1, "Front Desk")
	a.VoiceID = "voice_old"
	if _, err := f.repo.Update(ctx, a); err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := f.svc.Update(ctx, f.owner, UpdateRequest{
		AgentName: "Front Desk",
		Voice:     &Upload{Filename: "new.mp3", ContentType: "audio/mpeg", Data: mp3Bytes},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if res.Agent.VoiceID != "voice_custom" {
		t.Fatalf("expected new voice id, got %q", res.Agent.VoiceID)
	}
	if !f.provider.called("voice_delete:voice_old") {
		t.Fatalf("expected old voice deleted, calls=%v", f.provider.calls)
	}
}

type failingUpdateRepo struct {
	*MemoryRepo
	err error
}

func (r failingUpdateRepo) Update(context.Context, Agent) (Agent, error) { return Agent{}, r.err }

func TestUpdate_PersistFailureRestoresProviderAgent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Create(ctx, f.owner, baseCreate()); err != nil {
		t.Fatalf("create: %v", err)
	}
	f.svc.repo = failingUpdateRepo{MemoryRepo: f.repo, err: errors.New("db down")}

	_, err := f.svc.Update(ctx, f.owner, UpdateRequest{
		AgentName: "Front Desk",
		Voice:     &Upload{Filename: "new.mp3", ContentType: "audio/mpeg", Data: mp3Bytes},
	})
	if err == nil {
		t.Fatalf("expected persist failure")
	}
	if !f.provider.called("voice_delete:voice_custom") {
		t.Fatalf("expected new voice deleted, calls=%v", f.provider.calls)
	}
	if got := f.provider.lastPayload.ConversationConfig.TTS.VoiceID; got != DefaultVoiceID {
		t.Fatalf("provider agent left on voice %q", got)
	}
	row, _ := f.repo.GetByName(ctx, 1, "Front Desk")
	if row.VoiceID != DefaultVoiceID {
		t.Fatalf("stored voice changed: %q", row.VoiceID)
	}
}

func TestUpdate_UnknownAgent(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Update(context.Background(), f.owner, UpdateRequest{AgentName: "missing"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDelete_OrderedCleanup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := baseCreate()
	req.Voice = &Upload{Filename: "me.mp3", ContentType: "audio/mpeg", Data: mp3Bytes}
	req.Document = &Upload{Filename: "faq.pdf", ContentType: "application/pdf", Data: pdfBytes}
	created, err := f.svc.Create(ctx, f.owner, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	f.provider.fail["voice_delete:voice_custom"] = &apperr.UpstreamError{Provider: "elevenlabs", Op: "delete voice", Status: 404, Body: "gone"}
	f.provider.fail["kb_delete:doc_1"] = &apperr.UpstreamError{Provider: "elevenlabs", Op: "delete knowledge base document", Status: 500, Body: "boom"}

	report, err := f.svc.Delete(ctx, f.owner, created.Agent.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	want := []struct {
		name   string
		status StepStatus
	}{
		{"delete_agent", StepOK},
		{"delete_voice", StepNotFound},
		{"delete_phone_number", StepOK},
		{"release_number", StepOK},
		{"delete_document", StepFailed},
		{"delete_local_row", StepOK},
	}
	if len(report.Steps) != len(want) {
		t.Fatalf("unexpected steps %+v", report.Steps)
	}
	for i, w := range want {
		if report.Steps[i].Name != w.name || report.Steps[i].Status != w.status {
			t.Fatalf("step %d = %+v, want %s %s", i, report.Steps[i], w.name, w.status)
		}
	}
	if report.Complete {
		t.Fatalf("report must be incomplete when a step failed")
	}
	if _, err := f.repo.Get(ctx, created.Agent.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected row deleted")
	}

	if _, err := f.svc.Delete(ctx, f.owner, created.Agent.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("second delete must be not found, got %v", err)
	}
}

func TestDelete_DefaultVoiceAndLegacyRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	row, _ := f.repo.Create(ctx, Agent{UserID: 1, AgentID: "agent_legacy", AgentName: "Legacy", VoiceID: DefaultVoiceID, TwilioNumber: "+15550001111"})
	f.provider.numbers = []convai.PhoneNumber{{PhoneNumberID: "phnum_legacy", PhoneNumber: "+15550001111"}}

	report, err := f.svc.Delete(ctx, f.owner, row.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if report.Steps[1].Status != StepSkipped {
		t.Fatalf("default voice must be skipped, got %+v", report.Steps[1])
	}
	if !f.provider.called("number_delete:phnum_legacy") {
		t.Fatalf("expected scan fallback to find phone number, calls=%v", f.provider.calls)
	}
	if f.provider.called("voice_delete:" + DefaultVoiceID) {
		t.Fatalf("default voice must never be deleted")
	}
	if !report.Complete {
		t.Fatalf("expected complete report: %+v", report)
	}
}

func TestDelete_Authorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, f.owner, baseCreate())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	f.provider.calls = nil

	if _, err := f.svc.Delete(ctx, f.other, created.Agent.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("non-owner must get not found, got %v", err)
	}
	if len(f.provider.calls) != 0 {
		t.Fatalf("no upstream side effects expected, got %v", f.provider.calls)
	}
	if _, err := f.svc.Delete(ctx, f.super, created.Agent.ID); err != nil {
		t.Fatalf("super admin delete: %v", err)
	}
}

func TestPauseResume(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, f.owner, baseCreate())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := f.svc.Pause(ctx, f.owner, created.Agent.ID)
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if res.State != LinkPaused || f.provider.assigned["phnum_1"] != nil {
		t.Fatalf("expected agent detached, got %+v", res)
	}

	res, err = f.svc.Resume(ctx, f.owner, created.Agent.ID)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if got := f.provider.assigned["phnum_1"]; res.State != LinkActive || got == nil || *got != "agent_1" {
		t.Fatalf("expected agent re-attached, got %+v", res)
	}

	if _, err := f.svc.Pause(ctx, f.other, created.Agent.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found for other owner, got %v", err)
	}
}

func TestListAndResolveByName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Create(ctx, f.owner, baseCreate()); err != nil {
		t.Fatalf("create: %v", err)
	}
	other := baseCreate()
	if _, err := f.svc.Create(ctx, f.other, other); err != nil {
		t.Fatalf("create other: %v", err)
	}

	mine, _ := f.svc.List(ctx, f.owner)
	all, _ := f.svc.List(ctx, f.super)
	if len(mine) != 1 || len(all) != 2 {
		t.Fatalf("unexpected list sizes %d %d", len(mine), len(all))
	}

	a, err := f.svc.ResolveByName(ctx, f.super, "Front Desk")
	if err != nil || a.UserID != 2 {
		t.Fatalf("expected latest row across owners, got %+v %v", a, err)
	}
	if _, err := f.svc.ResolveByName(ctx, f.owner, "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
