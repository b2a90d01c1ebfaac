package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationMessageStripsSentinel(t *testing.T) {
	err := Validation("column %q not found", "phone")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation in chain")
	}
	if got := Message(err); got != `column "phone" not found` {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestIsUpstreamNotFound(t *testing.T) {
	wrapped := fmt.Errorf("delete agent: %w", &UpstreamError{Provider: "elevenlabs", Op: "delete agent", Status: 404, Body: "{}"})
	if !IsUpstreamNotFound(wrapped) {
		t.Fatalf("expected wrapped 404 to be detected")
	}
	if IsUpstreamNotFound(&UpstreamError{Status: 500}) {
		t.Fatalf("500 is not a not-found")
	}
	if IsUpstreamNotFound(errors.New("boom")) {
		t.Fatalf("plain errors are not upstream")
	}
}
