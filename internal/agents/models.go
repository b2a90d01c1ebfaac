package agents

import "time"

// DefaultVoiceID is used when no voice sample is supplied. It belongs to the
// provider's shared library and is never deleted upstream.
const DefaultVoiceID = "IKne3meq5aSn9XLyUdCD"

// Agent is the local record of a provisioned voice agent.
//
// Invariants:
// - (user_id, agent_name) is unique.
// - agent_name, phone_number_id and twilio_number do not change after creation.
// - twilio_number is released upstream before the row is deleted.
type Agent struct {
	ID      int64  `json:"id" db:"id"`
	UserID  int64  `json:"user_id" db:"user_id"`
	AgentID string `json:"agent_id" db:"agent_id"`

	AgentName    string `json:"agent_name" db:"agent_name"`
	FirstMessage string `json:"first_message" db:"first_message"`
	Prompt       string `json:"prompt" db:"prompt"`
	LLM          string `json:"llm" db:"llm"`

	DocumentationID *string `json:"documentation_id,omitempty" db:"documentation_id"`
	FileName        *string `json:"file_name,omitempty" db:"file_name"`
	FileURL         *string `json:"file_url,omitempty" db:"file_url"`

	VoiceID  string  `json:"voice_id" db:"voice_id"`
	VoiceURL *string `json:"voice_url,omitempty" db:"voice_url"`

	TwilioNumber  string  `json:"twilio_number" db:"twilio_number"`
	PhoneNumberID *string `json:"phone_number_id,omitempty" db:"phone_number_id"`

	BusinessName  *string `json:"business_name,omitempty" db:"business_name"`
	AgentType     *string `json:"agent_type,omitempty" db:"agent_type"`
	SpeakingStyle *string `json:"speaking_style,omitempty" db:"speaking_style"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasCustomVoice reports whether VoiceID was cloned for this agent.
func (a Agent) HasCustomVoice() bool {
	return a.VoiceID != "" && a.VoiceID != DefaultVoiceID
}

// Upload is a file received from the caller, buffered in memory.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

type CreateRequest struct {
	AgentName    string
	FirstMessage string
	Prompt       string
	LLM          string
	// OwnerEmail selects the owning user. Empty means the caller.
	OwnerEmail string

	BusinessName  *string
	AgentType     *string
	SpeakingStyle *string

	Document *Upload
	Voice    *Upload
}

// UpdateRequest overwrites only the fields that are present.
type UpdateRequest struct {
	AgentName  string
	OwnerEmail string

	FirstMessage  *string
	Prompt        *string
	LLM           *string
	BusinessName  *string
	AgentType     *string
	SpeakingStyle *string

	Document *Upload
	Voice    *Upload
}

type CreateResult struct {
	Agent  Agent      `json:"agent"`
	Report StepReport `json:"report"`
}

type UpdateResult struct {
	Agent  Agent      `json:"agent"`
	Report StepReport `json:"report"`
}

// LinkState is the provider-side number to agent association toggled by pause and resume.
type LinkState string

const (
	LinkActive LinkState = "active"
	LinkPaused LinkState = "paused"
)

type LinkResult struct {
	AgentRowID    int64     `json:"id"`
	AgentID       string    `json:"agent_id"`
	PhoneNumberID string    `json:"phone_number_id"`
	TwilioNumber  string    `json:"twilio_number"`
	State         LinkState `json:"state"`
}
