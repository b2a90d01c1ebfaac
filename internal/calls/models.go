package calls

import "time"

// Call is one call record from the telephony provider's history.
// DurationSeconds is nil while the provider has not reported a duration.
type Call struct {
	SID           string     `json:"sid"`
	From          string     `json:"from"`
	FromFormatted string     `json:"from_formatted,omitempty"`
	To            string     `json:"to"`
	Status        CallStatus `json:"status"`
	Direction     string     `json:"direction"`

	DurationSeconds *int      `json:"duration,omitempty"`
	DateCreated     time.Time `json:"date_created"`
}

// Duration returns the reported duration, or zero when none was reported.
func (c Call) Duration() int {
	if c.DurationSeconds == nil {
		return 0
	}
	return *c.DurationSeconds
}

type CallStatus string

// Values match the telephony provider's enumeration, including the hyphenated no-answer.
const (
	CallStatusQueued     CallStatus = "queued"
	CallStatusRinging    CallStatus = "ringing"
	CallStatusInProgress CallStatus = "in-progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
	CallStatusNoAnswer   CallStatus = "no-answer"
	CallStatusBusy       CallStatus = "busy"
	CallStatusCanceled   CallStatus = "canceled"
)

// IsUnsuccessful reports statuses counted against the failure rate.
func (s CallStatus) IsUnsuccessful() bool {
	switch s {
	case CallStatusFailed, CallStatusBusy, CallStatusNoAnswer, CallStatusCanceled:
		return true
	default:
		return false
	}
}

// Message is one SMS/MMS record from the telephony provider's history.
type Message struct {
	SID         string        `json:"sid"`
	From        string        `json:"from"`
	To          string        `json:"to"`
	Status      MessageStatus `json:"status"`
	Direction   string        `json:"direction"`
	DateCreated time.Time     `json:"date_created"`
}

type MessageStatus string

const (
	MessageStatusQueued      MessageStatus = "queued"
	MessageStatusSent        MessageStatus = "sent"
	MessageStatusDelivered   MessageStatus = "delivered"
	MessageStatusUndelivered MessageStatus = "undelivered"
	MessageStatusFailed      MessageStatus = "failed"
	MessageStatusReceived    MessageStatus = "received"
)
