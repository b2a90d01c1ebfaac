package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"speakai-platform/internal/apperr"
	"speakai-platform/internal/audit"
	"speakai-platform/internal/auth"
	"speakai-platform/internal/convai"
	"speakai-platform/internal/rbac"
	"speakai-platform/internal/storage"
	"speakai-platform/internal/telephony"
	"speakai-platform/internal/users"
	"speakai-platform/pkg/logger"
)

// AgentProvider is the subset of the conversational-agent API used by the lifecycle.
type AgentProvider interface {
	CreateKnowledgeBaseDocument(ctx context.Context, filename, contentType string, r io.Reader) (convai.KnowledgeBaseDocument, error)
	TriggerRAGIndex(ctx context.Context, docID string, in convai.RAGIndexRequest) (convai.RAGIndexStatus, error)
	DeleteKnowledgeBaseDocument(ctx context.Context, docID string) error

	AddVoice(ctx context.Context, in convai.AddVoiceRequest) (convai.AddVoiceResult, error)
	DeleteVoice(ctx context.Context, voiceID string) error

	CreateAgent(ctx context.Context, in convai.AgentPayload) (string, error)
	UpdateAgent(ctx context.Context, agentID string, in convai.AgentPayload) error
	DeleteAgent(ctx context.Context, agentID string) error

	ImportPhoneNumber(ctx context.Context, in convai.ImportPhoneNumberRequest) (string, error)
	AssignAgent(ctx context.Context, phoneNumberID string, agentID *string) error
	ListPhoneNumbers(ctx context.Context) ([]convai.PhoneNumber, error)
	DeletePhoneNumber(ctx context.Context, phoneNumberID string) error
}

// NumberProvider buys and releases telephony numbers.
type NumberProvider interface {
	BuyNumber(ctx context.Context, req telephony.BuyNumberRequest) (telephony.BuyNumberResult, error)
	ReleaseNumber(ctx context.Context, req telephony.ReleaseNumberRequest) (telephony.ReleaseNumberResult, error)
	Credentials() telephony.Credentials
}

// Owners resolves the user that owns an agent.
type Owners interface {
	GetByEmail(ctx context.Context, email string) (users.User, error)
	GetByID(ctx context.Context, id int64) (users.User, error)
}

type Auditor interface {
	LogAgentProvisioned(ctx context.Context, actor audit.Actor, ownerID, agentRowID int64, agentID, metadata string) error
	LogAgentDecommissioned(ctx context.Context, actor audit.Actor, ownerID, agentRowID int64, agentID, metadata string) error
	LogCrossOwnerAccess(ctx context.Context, actor audit.Actor, ownerID int64, message string) error
}

// ConcurrencyCap limits simultaneous provisioning runs per key. Acquire returns
// the lease to hand back to Release.
type ConcurrencyCap interface {
	Acquire(ctx context.Context, key string) (lease string, ok bool, err error)
	Release(ctx context.Context, key, lease string) error
}

type Deps struct {
	Repo    Repository
	Agents  AgentProvider
	Numbers NumberProvider
	Store   storage.ObjectStore
	Owners  Owners

	// Optional.
	Audit Auditor
	Cap   ConcurrencyCap

	StepTimeout time.Duration
}

// Service runs the agent lifecycle: create, update, pause, resume and decommission.
//
// Invariants:
//   - Uploads, owner and name uniqueness are checked before any upstream call.
//   - A failed create leaves no purchased number, provider agent, voice or KB document behind
//     unless the compensation itself failed; the report says which.
//   - Delete always removes the local row once authorization passes.
type Service struct {
	repo    Repository
	agents  AgentProvider
	numbers NumberProvider
	store   storage.ObjectStore
	owners  Owners
	audit   Auditor
	cap     ConcurrencyCap

	stepTimeout time.Duration
}

func NewService(d Deps) *Service {
	return &Service{
		repo:        d.Repo,
		agents:      d.Agents,
		numbers:     d.Numbers,
		store:       d.Store,
		owners:      d.Owners,
		audit:       d.Audit,
		cap:         d.Cap,
		stepTimeout: d.StepTimeout,
	}
}

type owner struct {
	ID    int64
	Email string
}

// draft collects what the create pipeline produced so far.
type draft struct {
	docID    string
	fileName string
	fileURL  string

	voiceID  string
	voiceURL string

	number    string
	numberSID string

	agentID       string
	phoneNumberID string

	row Agent
}

func (s *Service) Create(ctx context.Context, caller auth.Identity, req CreateRequest) (CreateResult, error) {
	req.AgentName = strings.TrimSpace(req.AgentName)
	if req.AgentName == "" {
		return CreateResult{}, apperr.Validation("agent_name is required")
	}
	if strings.TrimSpace(req.FirstMessage) == "" || strings.TrimSpace(req.Prompt) == "" || strings.TrimSpace(req.LLM) == "" {
		return CreateResult{}, apperr.Validation("first_message, prompt and llm are required")
	}
	if err := ValidateDocument(req.Document); err != nil {
		return CreateResult{}, err
	}
	if err := ValidateVoice(req.Voice); err != nil {
		return CreateResult{}, err
	}

	own, err := s.resolveOwner(ctx, caller, req.OwnerEmail)
	if err != nil {
		return CreateResult{}, err
	}
	if _, err := s.repo.GetByName(ctx, own.ID, req.AgentName); err == nil {
		return CreateResult{}, apperr.Conflict("agent %q already exists", req.AgentName)
	} else if !errors.Is(err, ErrNotFound) {
		return CreateResult{}, err
	}

	release, err := s.acquire(ctx, own.ID)
	if err != nil {
		return CreateResult{}, err
	}
	defer release()

	d := &draft{voiceID: DefaultVoiceID}
	log := logger.From(ctx).With("agent_name", req.AgentName, "owner_user_id", own.ID)
	report, err := NewPipeline(s.stepTimeout, log, s.createSteps(own, req, d)...).Run(ctx)
	if err != nil {
		return CreateResult{Report: report}, err
	}

	s.logProvisioned(ctx, caller, d.row, report)
	log.Info("agent provisioned", "agent_id", d.row.AgentID, "twilio_number", d.row.TwilioNumber)
	return CreateResult{Agent: d.row, Report: report}, nil
}

func (s *Service) createSteps(own owner, req CreateRequest, d *draft) []Step {
	doc, voice := req.Document, req.Voice
	return []Step{
		{
			Name: "upload_document",
			Skip: doc == nil,
			Run: func(ctx context.Context) error {
				url, err := s.putUpload(ctx, storage.DocumentKey(own.Email, doc.Filename), doc)
				d.fileName, d.fileURL = doc.Filename, url
				return err
			},
		},
		{
			Name: "register_document",
			Skip: doc == nil,
			Run: func(ctx context.Context) error {
				kb, err := s.agents.CreateKnowledgeBaseDocument(ctx, doc.Filename, doc.ContentType, bytes.NewReader(doc.Data))
				d.docID = kb.ID
				return err
			},
			Compensate: func(ctx context.Context) error {
				return ignoreNotFound(s.agents.DeleteKnowledgeBaseDocument(ctx, d.docID))
			},
		},
		{
			Name: "index_document",
			Skip: doc == nil,
			Run: func(ctx context.Context) error {
				_, err := s.agents.TriggerRAGIndex(ctx, d.docID, convai.DefaultRAGIndex)
				return err
			},
		},
		{
			Name: "upload_voice",
			Skip: voice == nil,
			Run: func(ctx context.Context) error {
				url, err := s.putUpload(ctx, storage.VoiceKey(own.Email, voice.Filename), voice)
				d.voiceURL = url
				return err
			},
		},
		{
			Name: "clone_voice",
			Skip: voice == nil,
			Run: func(ctx context.Context) error {
				res, err := s.agents.AddVoice(ctx, cloneRequest(req.AgentName, voice))
				if err != nil {
					return err
				}
				d.voiceID = res.VoiceID
				return nil
			},
			Compensate: func(ctx context.Context) error {
				if d.voiceID == DefaultVoiceID {
					return nil
				}
				return ignoreNotFound(s.agents.DeleteVoice(ctx, d.voiceID))
			},
		},
		{
			Name: "purchase_number",
			Run: func(ctx context.Context) error {
				res, err := s.numbers.BuyNumber(ctx, telephony.BuyNumberRequest{FriendlyName: req.AgentName + " Line"})
				if err != nil {
					return err
				}
				d.number, d.numberSID = res.Number, res.ProviderNumberID
				return nil
			},
			Compensate: func(ctx context.Context) error {
				_, err := s.numbers.ReleaseNumber(ctx, telephony.ReleaseNumberRequest{Number: d.number, ProviderNumberID: d.numberSID})
				return ignoreNotFound(err)
			},
		},
		{
			Name: "create_agent",
			Run: func(ctx context.Context) error {
				id, err := s.agents.CreateAgent(ctx, agentPayload(req.AgentName, req.FirstMessage, req.Prompt, req.LLM, d.docID, d.fileName, d.voiceID))
				d.agentID = id
				return err
			},
			Compensate: func(ctx context.Context) error {
				return ignoreNotFound(s.agents.DeleteAgent(ctx, d.agentID))
			},
		},
		{
			Name:     "import_number",
			FailOpen: true,
			Run: func(ctx context.Context) error {
				creds := s.numbers.Credentials()
				id, err := s.agents.ImportPhoneNumber(ctx, convai.ImportPhoneNumberRequest{
					PhoneNumber:      d.number,
					Label:            req.AgentName,
					SID:              creds.AccountSID,
					Token:            creds.AuthToken,
					SupportsInbound:  true,
					SupportsOutbound: true,
				})
				d.phoneNumberID = id
				return err
			},
			Compensate: func(ctx context.Context) error {
				if d.phoneNumberID == "" {
					return nil
				}
				return ignoreNotFound(s.agents.DeletePhoneNumber(ctx, d.phoneNumberID))
			},
		},
		{
			Name:     "link_number",
			FailOpen: true,
			Run: func(ctx context.Context) error {
				if d.phoneNumberID == "" {
					return errors.New("phone number was not imported")
				}
				agentID := d.agentID
				return s.agents.AssignAgent(ctx, d.phoneNumberID, &agentID)
			},
		},
		{
			Name: "persist",
			Run: func(ctx context.Context) error {
				row, err := s.repo.Create(ctx, Agent{
					UserID:          own.ID,
					AgentID:         d.agentID,
					AgentName:       req.AgentName,
					FirstMessage:    req.FirstMessage,
					Prompt:          req.Prompt,
					LLM:             req.LLM,
					DocumentationID: optional(d.docID),
					FileName:        optional(d.fileName),
					FileURL:         optional(d.fileURL),
					VoiceID:         d.voiceID,
					VoiceURL:        optional(d.voiceURL),
					TwilioNumber:    d.number,
					PhoneNumberID:   optional(d.phoneNumberID),
					BusinessName:    req.BusinessName,
					AgentType:       req.AgentType,
					SpeakingStyle:   req.SpeakingStyle,
				})
				if errors.Is(err, ErrDuplicateName) {
					return apperr.Conflict("agent %q already exists", req.AgentName)
				}
				d.row = row
				return err
			},
		},
	}
}

// Update rewrites an agent found by (owner, agent_name). Absent fields keep their value.
func (s *Service) Update(ctx context.Context, caller auth.Identity, req UpdateRequest) (UpdateResult, error) {
	req.AgentName = strings.TrimSpace(req.AgentName)
	if req.AgentName == "" {
		return UpdateResult{}, apperr.Validation("agent_name is required")
	}
	if err := ValidateDocument(req.Document); err != nil {
		return UpdateResult{}, err
	}
	if err := ValidateVoice(req.Voice); err != nil {
		return UpdateResult{}, err
	}

	own, err := s.resolveOwner(ctx, caller, req.OwnerEmail)
	if err != nil {
		return UpdateResult{}, err
	}
	cur, err := s.repo.GetByName(ctx, own.ID, req.AgentName)
	if errors.Is(err, ErrNotFound) {
		return UpdateResult{}, apperr.NotFound("Agent not found")
	}
	if err != nil {
		return UpdateResult{}, err
	}

	next := cur
	overwrite(&next.FirstMessage, req.FirstMessage)
	overwrite(&next.Prompt, req.Prompt)
	overwrite(&next.LLM, req.LLM)
	overwriteOptional(&next.BusinessName, req.BusinessName)
	overwriteOptional(&next.AgentType, req.AgentType)
	overwriteOptional(&next.SpeakingStyle, req.SpeakingStyle)

	doc, voice := req.Document, req.Voice
	var newDocID, newVoiceID string
	steps := []Step{
		{
			Name: "upload_document",
			Skip: doc == nil,
			Run: func(ctx context.Context) error {
				url, err := s.putUpload(ctx, storage.DocumentKey(own.Email, doc.Filename), doc)
				next.FileName, next.FileURL = optional(doc.Filename), optional(url)
				return err
			},
		},
		{
			Name: "register_document",
			Skip: doc == nil,
			Run: func(ctx context.Context) error {
				kb, err := s.agents.CreateKnowledgeBaseDocument(ctx, doc.Filename, doc.ContentType, bytes.NewReader(doc.Data))
				newDocID = kb.ID
				next.DocumentationID = optional(kb.ID)
				return err
			},
			Compensate: func(ctx context.Context) error {
				return ignoreNotFound(s.agents.DeleteKnowledgeBaseDocument(ctx, newDocID))
			},
		},
		{
			Name: "index_document",
			Skip: doc == nil,
			Run: func(ctx context.Context) error {
				_, err := s.agents.TriggerRAGIndex(ctx, newDocID, convai.DefaultRAGIndex)
				return err
			},
		},
		{
			Name: "upload_voice",
			Skip: voice == nil,
			Run: func(ctx context.Context) error {
				url, err := s.putUpload(ctx, storage.VoiceKey(own.Email, voice.Filename), voice)
				next.VoiceURL = optional(url)
				return err
			},
		},
		{
			Name: "clone_voice",
			Skip: voice == nil,
			Run: func(ctx context.Context) error {
				res, err := s.agents.AddVoice(ctx, cloneRequest(cur.AgentName, voice))
				if err != nil {
					return err
				}
				newVoiceID = res.VoiceID
				next.VoiceID = res.VoiceID
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return ignoreNotFound(s.agents.DeleteVoice(ctx, newVoiceID))
			},
		},
		{
			Name: "update_agent",
			Run: func(ctx context.Context) error {
				return s.agents.UpdateAgent(ctx, cur.AgentID, agentPayload(
					cur.AgentName, next.FirstMessage, next.Prompt, next.LLM,
					deref(next.DocumentationID), deref(next.FileName), next.VoiceID,
				))
			},
			// Restores the stored configuration before the new voice and document are deleted.
			Compensate: func(ctx context.Context) error {
				return s.agents.UpdateAgent(ctx, cur.AgentID, agentPayload(
					cur.AgentName, cur.FirstMessage, cur.Prompt, cur.LLM,
					deref(cur.DocumentationID), deref(cur.FileName), cur.VoiceID,
				))
			},
		},
		{
			Name: "persist",
			Run: func(ctx context.Context) error {
				row, err := s.repo.Update(ctx, next)
				if err != nil {
					return err
				}
				next = row
				return nil
			},
		},
	}

	log := logger.From(ctx).With("agent_name", cur.AgentName, "agent_id", cur.AgentID)
	report, err := NewPipeline(s.stepTimeout, log, steps...).Run(ctx)
	if err != nil {
		return UpdateResult{Report: report}, err
	}

	// Replaced upstream artifacts are no longer referenced by the agent.
	cleanup := context.WithoutCancel(ctx)
	if newDocID != "" && cur.DocumentationID != nil && *cur.DocumentationID != newDocID {
		if err := ignoreNotFound(s.agents.DeleteKnowledgeBaseDocument(cleanup, *cur.DocumentationID)); err != nil {
			log.Warn("delete replaced knowledge base document failed", "documentation_id", *cur.DocumentationID, "err", err)
		}
	}
	if newVoiceID != "" && cur.HasCustomVoice() && cur.VoiceID != newVoiceID {
		if err := ignoreNotFound(s.agents.DeleteVoice(cleanup, cur.VoiceID)); err != nil {
			log.Warn("delete replaced voice failed", "voice_id", cur.VoiceID, "err", err)
		}
	}

	log.Info("agent updated")
	return UpdateResult{Agent: next, Report: report}, nil
}

// Get returns an agent row the caller may see. Rows of other owners read as not found.
func (s *Service) Get(ctx context.Context, caller auth.Identity, id int64) (Agent, error) {
	a, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Agent{}, apperr.NotFound("Agent not found")
	}
	if err != nil {
		return Agent{}, err
	}
	if !rbac.CanAccess(caller.Role, caller.UserID, a.UserID) {
		return Agent{}, apperr.NotFound("Agent not found")
	}
	return a, nil
}

// List returns the caller's agents, or every agent for Super Admin.
func (s *Service) List(ctx context.Context, caller auth.Identity) ([]Agent, error) {
	if rbac.IsSuperAdmin(caller.Role) {
		return s.repo.ListAll(ctx)
	}
	return s.repo.ListByUser(ctx, caller.UserID)
}

// ResolveByName finds the caller's agent by name. Super Admin falls back to the
// most recently created agent of that name across all owners.
func (s *Service) ResolveByName(ctx context.Context, caller auth.Identity, name string) (Agent, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Agent{}, apperr.Validation("agent_name is required")
	}
	a, err := s.repo.GetByName(ctx, caller.UserID, name)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Agent{}, err
	}
	if rbac.IsSuperAdmin(caller.Role) {
		a, err = s.repo.FindLatestByName(ctx, name)
		if err == nil {
			return a, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Agent{}, err
		}
	}
	return Agent{}, apperr.NotFound("Agent %q not found", name)
}

// Pause detaches the agent from its provider phone number; calls to the number stop reaching it.
func (s *Service) Pause(ctx context.Context, caller auth.Identity, id int64) (LinkResult, error) {
	return s.setLink(ctx, caller, id, LinkPaused)
}

// Resume re-attaches the agent to its provider phone number.
func (s *Service) Resume(ctx context.Context, caller auth.Identity, id int64) (LinkResult, error) {
	return s.setLink(ctx, caller, id, LinkActive)
}

func (s *Service) setLink(ctx context.Context, caller auth.Identity, id int64, state LinkState) (LinkResult, error) {
	a, err := s.Get(ctx, caller, id)
	if err != nil {
		return LinkResult{}, err
	}
	phoneID, err := s.PhoneNumberID(ctx, a)
	if err != nil {
		return LinkResult{}, err
	}
	if phoneID == "" {
		return LinkResult{}, apperr.NotFound("no provider phone number linked to agent %q", a.AgentName)
	}

	var agentID *string
	if state == LinkActive {
		agentID = &a.AgentID
	}
	if err := s.agents.AssignAgent(ctx, phoneID, agentID); err != nil {
		return LinkResult{}, err
	}
	logger.From(ctx).Info("agent link changed", "agent_id", a.AgentID, "phone_number_id", phoneID, "state", state)
	return LinkResult{
		AgentRowID:    a.ID,
		AgentID:       a.AgentID,
		PhoneNumberID: phoneID,
		TwilioNumber:  a.TwilioNumber,
		State:         state,
	}, nil
}

// PhoneNumberID returns the stored provider number id, or finds it by twilio_number
// for rows created before the id was recorded. Empty means none exists.
func (s *Service) PhoneNumberID(ctx context.Context, a Agent) (string, error) {
	if a.PhoneNumberID != nil && *a.PhoneNumberID != "" {
		return *a.PhoneNumberID, nil
	}
	if a.TwilioNumber == "" {
		return "", nil
	}
	numbers, err := s.agents.ListPhoneNumbers(ctx)
	if err != nil {
		return "", err
	}
	for _, n := range numbers {
		if n.PhoneNumber == a.TwilioNumber {
			return n.PhoneNumberID, nil
		}
	}
	return "", nil
}

func (s *Service) resolveOwner(ctx context.Context, caller auth.Identity, email string) (owner, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || email == strings.ToLower(caller.Email) {
		return owner{ID: caller.UserID, Email: caller.Email}, nil
	}
	if !rbac.IsSuperAdmin(caller.Role) {
		return owner{}, apperr.NotFound("User not found with provided email")
	}
	u, err := s.owners.GetByEmail(ctx, email)
	if err != nil {
		return owner{}, err
	}
	if s.audit != nil {
		if err := s.audit.LogCrossOwnerAccess(ctx, actorOf(caller), u.ID, "agent write on behalf of "+u.Email); err != nil {
			logger.From(ctx).Warn("audit append failed", "err", err)
		}
	}
	return owner{ID: u.ID, Email: u.Email}, nil
}

func (s *Service) acquire(ctx context.Context, ownerID int64) (func(), error) {
	if s.cap == nil {
		return func() {}, nil
	}
	key := "provision:user:" + strconv.FormatInt(ownerID, 10)
	lease, ok, err := s.cap.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: another agent is already being provisioned for this user", apperr.ErrRateLimited)
	}
	return func() {
		if err := s.cap.Release(context.WithoutCancel(ctx), key, lease); err != nil {
			logger.From(ctx).Warn("release provisioning cap failed", "key", key, "err", err)
		}
	}, nil
}

func (s *Service) putUpload(ctx context.Context, key string, u *Upload) (string, error) {
	return s.store.Put(ctx, key, bytes.NewReader(u.Data), int64(len(u.Data)), u.ContentType)
}

func (s *Service) logProvisioned(ctx context.Context, caller auth.Identity, a Agent, report StepReport) {
	if s.audit == nil {
		return
	}
	meta, _ := json.Marshal(report)
	if err := s.audit.LogAgentProvisioned(ctx, actorOf(caller), a.UserID, a.ID, a.AgentID, string(meta)); err != nil {
		logger.From(ctx).Warn("audit append failed", "err", err)
	}
}

func cloneRequest(agentName string, voice *Upload) convai.AddVoiceRequest {
	return convai.AddVoiceRequest{
		Name:        agentName + "_voice",
		Description: "Voice clone for agent " + agentName,
		Labels:      map[string]string{"user_uploaded": "true"},
		Filename:    voice.Filename,
		ContentType: voice.ContentType,
		Audio:       bytes.NewReader(voice.Data),
	}
}

func agentPayload(name, firstMessage, prompt, llm, docID, fileName, voiceID string) convai.AgentPayload {
	ps := convai.PromptSettings{Prompt: prompt, LLM: llm}
	if docID != "" {
		if fileName == "" {
			fileName = "uploaded-doc"
		}
		ps.KnowledgeBase = []convai.KnowledgeBaseRef{{ID: docID, Type: "file", Name: fileName}}
	}
	return convai.AgentPayload{
		Name: name,
		ConversationConfig: convai.ConversationConfig{
			Conversation: convai.ConversationSettings{ClientEvents: convai.DefaultClientEvents},
			Agent: convai.AgentSettings{
				FirstMessage: firstMessage,
				Language:     "en",
				Prompt:       ps,
			},
			TTS: &convai.TTSSettings{VoiceID: voiceID},
		},
	}
}

func actorOf(caller auth.Identity) audit.Actor {
	return audit.Actor{UserID: caller.UserID, Email: caller.Email, Role: caller.Role}
}

func ignoreNotFound(err error) error {
	if apperr.IsUpstreamNotFound(err) {
		return nil
	}
	return err
}

func overwrite(dst *string, v *string) {
	if v != nil && strings.TrimSpace(*v) != "" {
		*dst = *v
	}
}

func overwriteOptional(dst **string, v *string) {
	if v != nil && strings.TrimSpace(*v) != "" {
		s := *v
		*dst = &s
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
