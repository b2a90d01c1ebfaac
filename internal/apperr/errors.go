// Package apperr holds the error taxonomy shared by services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limited")
)

// UpstreamError is a non-2xx answer from an external provider.
// Body is the raw response body, surfaced to the caller unchanged.
type UpstreamError struct {
	Provider string
	Op       string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s %s failed: status %d: %s", e.Provider, e.Op, e.Status, e.Body)
}

// Validation wraps ErrValidation with a caller-facing message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound wraps ErrNotFound with a caller-facing message.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Conflict wraps ErrConflict with a caller-facing message.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// AsUpstream returns the provider error in err's chain, if any.
func AsUpstream(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// IsUpstreamNotFound reports whether a provider answered 404.
// Cleanup paths treat this the same as success.
func IsUpstreamNotFound(err error) bool {
	ue, ok := AsUpstream(err)
	return ok && ue.Status == http.StatusNotFound
}

// Message strips the sentinel prefix so handlers can return the detail alone.
func Message(err error) string {
	for _, s := range []error{ErrValidation, ErrNotFound, ErrConflict, ErrUnauthorized, ErrRateLimited} {
		if errors.Is(err, s) {
			msg := err.Error()
			prefix := s.Error() + ": "
			if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
				return msg[len(prefix):]
			}
			return msg
		}
	}
	return err.Error()
}
