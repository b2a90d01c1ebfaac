package convai

import (
	"context"
	"errors"
	"net/http"
)

// DefaultClientEvents are streamed to clients of every agent.
var DefaultClientEvents = []string{
	"agent_response",
	"interruption",
	"user_transcript",
	"agent_response_correction",
	"audio",
}

type AgentPayload struct {
	Name               string             `json:"name"`
	ConversationConfig ConversationConfig `json:"conversation_config"`
}

type ConversationConfig struct {
	Conversation ConversationSettings `json:"conversation"`
	Agent        AgentSettings        `json:"agent"`
	TTS          *TTSSettings         `json:"tts,omitempty"`
}

type ConversationSettings struct {
	ClientEvents []string `json:"client_events"`
}

type AgentSettings struct {
	FirstMessage string         `json:"first_message"`
	Language     string         `json:"language"`
	Prompt       PromptSettings `json:"prompt"`
}

type PromptSettings struct {
	Prompt        string             `json:"prompt"`
	LLM           string             `json:"llm"`
	KnowledgeBase []KnowledgeBaseRef `json:"knowledge_base,omitempty"`
}

type KnowledgeBaseRef struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`
}

type TTSSettings struct {
	VoiceID string `json:"voice_id"`
}

type createAgentResult struct {
	AgentID string `json:"agent_id"`
	ID      string `json:"id"`
}

type Agent struct {
	AgentID string `json:"agent_id"`
	Name    string `json:"name"`
}

// CreateAgent returns the provider-assigned agent id.
func (c *Client) CreateAgent(ctx context.Context, in AgentPayload) (string, error) {
	var out createAgentResult
	req := c.r().SetBody(in).SetResult(&out)
	if _, err := c.do(ctx, "agent creation", http.MethodPost, "/convai/agents/create", req); err != nil {
		return "", err
	}
	id := out.AgentID
	if id == "" {
		id = out.ID
	}
	if id == "" {
		return "", errors.New("convai: agent response missing agent_id")
	}
	return id, nil
}

// UpdateAgent sends the complete payload; omitted fields are not preserved upstream.
func (c *Client) UpdateAgent(ctx context.Context, agentID string, in AgentPayload) error {
	req := c.r().SetPathParam("id", agentID).SetBody(in)
	_, err := c.do(ctx, "agent update", http.MethodPatch, "/convai/agents/{id}", req)
	return err
}

func (c *Client) GetAgent(ctx context.Context, agentID string) (Agent, error) {
	var out Agent
	req := c.r().SetPathParam("id", agentID).SetResult(&out)
	if _, err := c.do(ctx, "get agent", http.MethodGet, "/convai/agents/{id}", req); err != nil {
		return Agent{}, err
	}
	return out, nil
}

func (c *Client) DeleteAgent(ctx context.Context, agentID string) error {
	req := c.r().SetPathParam("id", agentID)
	_, err := c.do(ctx, "delete agent", http.MethodDelete, "/convai/agents/{id}", req)
	return err
}
