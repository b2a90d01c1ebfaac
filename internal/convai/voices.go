package convai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

type AddVoiceRequest struct {
	Name        string
	Description string
	Labels      map[string]string

	Filename    string
	ContentType string
	Audio       io.Reader
}

type AddVoiceResult struct {
	VoiceID string `json:"voice_id"`
}

// AddVoice clones a voice from one audio sample.
func (c *Client) AddVoice(ctx context.Context, in AddVoiceRequest) (AddVoiceResult, error) {
	if in.Audio == nil {
		return AddVoiceResult{}, errors.New("convai: voice sample is required")
	}
	labels := "{}"
	if len(in.Labels) > 0 {
		b, err := json.Marshal(in.Labels)
		if err != nil {
			return AddVoiceResult{}, err
		}
		labels = string(b)
	}

	var out AddVoiceResult
	req := c.r().
		SetFormData(map[string]string{
			"name":        in.Name,
			"description": in.Description,
			"labels":      labels,
		}).
		SetMultipartField("files", in.Filename, in.ContentType, in.Audio).
		SetResult(&out)
	if _, err := c.do(ctx, "voice cloning", http.MethodPost, "/voices/add", req); err != nil {
		return AddVoiceResult{}, err
	}
	if out.VoiceID == "" {
		return AddVoiceResult{}, errors.New("convai: voice response missing voice_id")
	}
	return out, nil
}

func (c *Client) DeleteVoice(ctx context.Context, voiceID string) error {
	req := c.r().SetPathParam("id", voiceID)
	_, err := c.do(ctx, "delete voice", http.MethodDelete, "/voices/{id}", req)
	return err
}
