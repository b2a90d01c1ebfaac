package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

const redacted = "[REDACTED]"

// secretKeys are attribute names whose values never reach the log: user
// passwords, bearer tokens and provider credentials.
var secretKeys = map[string]bool{
	"password":      true,
	"token":         true,
	"access_token":  true,
	"authorization": true,
	"auth_token":    true,
	"api_key":       true,
	"xi-api-key":    true,
	"dsn":           true,
}

// New returns the process logger writing JSON to stdout.
func New(appEnv string) *slog.Logger {
	return NewWithWriter(appEnv, os.Stdout)
}

// NewWithWriter builds the JSON logger on w. Debug records are kept only in local and dev.
func NewWithWriter(appEnv string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo, ReplaceAttr: redact}
	if appEnv == "local" || appEnv == "dev" {
		opts.Level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, opts)).With("service", "speakai-api", "env", appEnv)
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if secretKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, redacted)
	}
	return a
}

type ctxKey struct{}

// With returns ctx carrying l, for services that log below the handler.
func With(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From returns the request-scoped logger, or slog.Default outside a request.
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}
