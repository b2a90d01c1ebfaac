// Package convai is a typed client for the ElevenLabs conversational-agent API:
// knowledge base, voice cloning, agents, phone-number linking and batch calling.
package convai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"speakai-platform/internal/apperr"
	"speakai-platform/internal/config"

	"github.com/go-resty/resty/v2"
)

const providerName = "elevenlabs"

// Client calls the provider with one fixed timeout and no retries.
type Client struct {
	http *resty.Client
}

func NewClient(cfg config.ElevenLabsConfig, timeout time.Duration) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("convai: api key is required")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = config.DefaultElevenLabsBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	h := resty.New().
		SetBaseURL(base).
		SetTimeout(timeout).
		SetHeader("xi-api-key", cfg.APIKey).
		SetHeader("Accept", "application/json")
	return &Client{http: h}, nil
}

// do executes req and turns transport failures and non-2xx answers into errors.
func (c *Client) do(ctx context.Context, op, method, path string, req *resty.Request) (*resty.Response, error) {
	resp, err := req.SetContext(ctx).Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", providerName, op, err)
	}
	if resp.IsError() || resp.StatusCode() >= 300 {
		return nil, &apperr.UpstreamError{
			Provider: providerName,
			Op:       op,
			Status:   resp.StatusCode(),
			Body:     resp.String(),
		}
	}
	return resp, nil
}

func (c *Client) r() *resty.Request {
	return c.http.R()
}
