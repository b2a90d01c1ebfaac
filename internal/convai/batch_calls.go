package convai

import (
	"context"
	"errors"
	"net/http"
	"strconv"
)

// ImmediateSchedule as scheduled_time_unix asks the provider to start the batch right away.
const ImmediateSchedule int64 = -1

type Recipient struct {
	PhoneNumber string `json:"phone_number"`
}

type SubmitBatchCallRequest struct {
	CallName           string      `json:"call_name"`
	AgentID            string      `json:"agent_id"`
	AgentPhoneNumberID string      `json:"agent_phone_number_id"`
	ScheduledTimeUnix  int64       `json:"scheduled_time_unix"`
	Recipients         []Recipient `json:"recipients"`
}

// BatchCall is the provider view of a batch job.
type BatchCall struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	AgentID              string `json:"agent_id"`
	PhoneNumberID        string `json:"phone_number_id,omitempty"`
	Status               string `json:"status"`
	CreatedAtUnix        int64  `json:"created_at_unix"`
	ScheduledTimeUnix    int64  `json:"scheduled_time_unix"`
	LastUpdatedAtUnix    int64  `json:"last_updated_at_unix,omitempty"`
	TotalCallsDispatched int    `json:"total_calls_dispatched"`
	TotalCallsScheduled  int    `json:"total_calls_scheduled"`
}

type batchCallList struct {
	BatchCalls []BatchCall `json:"batch_calls"`
	NextDocID  string      `json:"next_doc,omitempty"`
	HasMore    bool        `json:"has_more"`
}

func (c *Client) SubmitBatchCall(ctx context.Context, in SubmitBatchCallRequest) (BatchCall, error) {
	if len(in.Recipients) == 0 {
		return BatchCall{}, errors.New("convai: batch call needs at least one recipient")
	}
	var out BatchCall
	req := c.r().SetBody(in).SetResult(&out)
	if _, err := c.do(ctx, "batch call submit", http.MethodPost, "/convai/batch-calling/submit", req); err != nil {
		return BatchCall{}, err
	}
	if out.ID == "" {
		return BatchCall{}, errors.New("convai: batch call response missing id")
	}
	return out, nil
}

func (c *Client) GetBatchCall(ctx context.Context, batchID string) (BatchCall, error) {
	var out BatchCall
	req := c.r().SetPathParam("id", batchID).SetResult(&out)
	if _, err := c.do(ctx, "batch call status", http.MethodGet, "/convai/batch-calling/{id}", req); err != nil {
		return BatchCall{}, err
	}
	return out, nil
}

func (c *Client) CancelBatchCall(ctx context.Context, batchID string) (BatchCall, error) {
	var out BatchCall
	req := c.r().SetPathParam("id", batchID).SetResult(&out)
	if _, err := c.do(ctx, "batch call cancel", http.MethodPost, "/convai/batch-calling/{id}/cancel", req); err != nil {
		return BatchCall{}, err
	}
	return out, nil
}

func (c *Client) RetryBatchCall(ctx context.Context, batchID string) (BatchCall, error) {
	var out BatchCall
	req := c.r().SetPathParam("id", batchID).SetResult(&out)
	if _, err := c.do(ctx, "batch call retry", http.MethodPost, "/convai/batch-calling/{id}/retry", req); err != nil {
		return BatchCall{}, err
	}
	return out, nil
}

// ListBatchCalls returns the workspace's batch jobs, newest first.
func (c *Client) ListBatchCalls(ctx context.Context, limit int) ([]BatchCall, error) {
	var out batchCallList
	req := c.r().SetResult(&out)
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	if _, err := c.do(ctx, "batch call list", http.MethodGet, "/convai/batch-calling/workspace", req); err != nil {
		return nil, err
	}
	return out.BatchCalls, nil
}
