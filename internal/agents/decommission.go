package agents

import (
	"context"
	"encoding/json"
	"errors"

	"speakai-platform/internal/apperr"
	"speakai-platform/internal/auth"
	"speakai-platform/internal/telephony"
	"speakai-platform/pkg/logger"
)

// CleanupReport lists every decommission action and its outcome.
// Complete is false when any upstream action failed and left a resource behind.
type CleanupReport struct {
	AgentRowID      int64        `json:"id"`
	ProviderAgentID string       `json:"agent_id"`
	AgentName       string       `json:"agent_name"`
	Steps           []StepResult `json:"steps"`
	Complete        bool         `json:"complete"`
}

type cleanupAction struct {
	name string
	// run returns StepSkipped when there is nothing to clean up.
	run func(ctx context.Context) (StepStatus, error)
}

// Delete decommissions an agent. Upstream cleanup is best-effort and runs in a fixed
// order; the local row is deleted last and regardless of upstream outcomes.
// Only the owner or a Super Admin may delete; anyone else gets not found.
func (s *Service) Delete(ctx context.Context, caller auth.Identity, id int64) (CleanupReport, error) {
	a, err := s.Get(ctx, caller, id)
	if err != nil {
		return CleanupReport{}, err
	}
	log := logger.From(ctx).With("agent_row_id", a.ID, "agent_id", a.AgentID)

	report := CleanupReport{AgentRowID: a.ID, ProviderAgentID: a.AgentID, AgentName: a.AgentName, Complete: true}
	for _, act := range s.cleanupActions(a) {
		status, err := s.runCleanup(ctx, act)
		res := StepResult{Name: act.name, Status: status}
		if err != nil {
			res.Error = err.Error()
			report.Complete = false
			log.Warn("decommission step failed", "step", act.name, "err", err)
		}
		report.Steps = append(report.Steps, res)
	}

	if err := s.repo.Delete(context.WithoutCancel(ctx), a.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return report, apperr.NotFound("Agent not found")
		}
		return report, err
	}
	report.Steps = append(report.Steps, StepResult{Name: "delete_local_row", Status: StepOK})

	if s.audit != nil {
		meta, _ := json.Marshal(report)
		if err := s.audit.LogAgentDecommissioned(ctx, actorOf(caller), a.UserID, a.ID, a.AgentID, string(meta)); err != nil {
			log.Warn("audit append failed", "err", err)
		}
	}
	log.Info("agent decommissioned", "complete", report.Complete)
	return report, nil
}

func (s *Service) runCleanup(ctx context.Context, act cleanupAction) (StepStatus, error) {
	stepCtx := ctx
	if s.stepTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, s.stepTimeout)
		defer cancel()
	}
	status, err := act.run(stepCtx)
	if err == nil {
		return status, nil
	}
	if apperr.IsUpstreamNotFound(err) {
		return StepNotFound, nil
	}
	return StepFailed, err
}

func (s *Service) cleanupActions(a Agent) []cleanupAction {
	return []cleanupAction{
		{name: "delete_agent", run: func(ctx context.Context) (StepStatus, error) {
			if a.AgentID == "" {
				return StepSkipped, nil
			}
			return StepOK, s.agents.DeleteAgent(ctx, a.AgentID)
		}},
		{name: "delete_voice", run: func(ctx context.Context) (StepStatus, error) {
			if !a.HasCustomVoice() {
				return StepSkipped, nil
			}
			return StepOK, s.agents.DeleteVoice(ctx, a.VoiceID)
		}},
		{name: "delete_phone_number", run: func(ctx context.Context) (StepStatus, error) {
			phoneID, err := s.PhoneNumberID(ctx, a)
			if err != nil {
				return StepFailed, err
			}
			if phoneID == "" {
				if a.TwilioNumber == "" {
					return StepSkipped, nil
				}
				return StepNotFound, nil
			}
			return StepOK, s.agents.DeletePhoneNumber(ctx, phoneID)
		}},
		{name: "release_number", run: func(ctx context.Context) (StepStatus, error) {
			if a.TwilioNumber == "" {
				return StepSkipped, nil
			}
			res, err := s.numbers.ReleaseNumber(ctx, telephony.ReleaseNumberRequest{Number: a.TwilioNumber})
			if err != nil {
				return StepFailed, err
			}
			if res.NotFound {
				return StepNotFound, nil
			}
			return StepOK, nil
		}},
		{name: "delete_document", run: func(ctx context.Context) (StepStatus, error) {
			if a.DocumentationID == nil || *a.DocumentationID == "" {
				return StepSkipped, nil
			}
			return StepOK, s.agents.DeleteKnowledgeBaseDocument(ctx, *a.DocumentationID)
		}},
	}
}
