package convai

import (
	"context"
	"errors"
	"net/http"
)

type ImportPhoneNumberRequest struct {
	PhoneNumber      string `json:"phone_number"`
	Label            string `json:"label"`
	SID              string `json:"sid"`
	Token            string `json:"token"`
	Provider         string `json:"provider,omitempty"`
	SupportsInbound  bool   `json:"supports_inbound"`
	SupportsOutbound bool   `json:"supports_outbound"`
}

type ImportPhoneNumberResult struct {
	PhoneNumberID string `json:"phone_number_id"`
}

type PhoneNumber struct {
	PhoneNumberID string         `json:"phone_number_id"`
	PhoneNumber   string         `json:"phone_number"`
	Label         string         `json:"label"`
	Provider      string         `json:"provider"`
	AssignedAgent *AssignedAgent `json:"assigned_agent,omitempty"`
}

type AssignedAgent struct {
	AgentID   string `json:"agent_id"`
	AgentName string `json:"agent_name"`
}

// assignRequest keeps agent_id in the body even when nil so the provider detaches the agent.
type assignRequest struct {
	AgentID *string `json:"agent_id"`
}

func (c *Client) ImportPhoneNumber(ctx context.Context, in ImportPhoneNumberRequest) (string, error) {
	var out ImportPhoneNumberResult
	req := c.r().SetBody(in).SetResult(&out)
	if _, err := c.do(ctx, "phone number import", http.MethodPost, "/convai/phone-numbers", req); err != nil {
		return "", err
	}
	if out.PhoneNumberID == "" {
		return "", errors.New("convai: phone number response missing phone_number_id")
	}
	return out.PhoneNumberID, nil
}

// AssignAgent links agentID to the number, or unlinks it when agentID is nil.
func (c *Client) AssignAgent(ctx context.Context, phoneNumberID string, agentID *string) error {
	req := c.r().SetPathParam("id", phoneNumberID).SetBody(assignRequest{AgentID: agentID})
	_, err := c.do(ctx, "phone number link", http.MethodPatch, "/convai/phone-numbers/{id}", req)
	return err
}

func (c *Client) ListPhoneNumbers(ctx context.Context) ([]PhoneNumber, error) {
	var out []PhoneNumber
	req := c.r().SetResult(&out)
	if _, err := c.do(ctx, "list phone numbers", http.MethodGet, "/convai/phone-numbers", req); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeletePhoneNumber(ctx context.Context, phoneNumberID string) error {
	req := c.r().SetPathParam("id", phoneNumberID)
	_, err := c.do(ctx, "delete phone number", http.MethodDelete, "/convai/phone-numbers/{id}", req)
	return err
}
