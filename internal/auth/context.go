package auth

import (
	"context"
	"errors"
)

// Identity is the authenticated caller resolved from a bearer token.
type Identity struct {
	UserID   int64
	Email    string
	Role     string
	IsActive bool
}

type ctxKey int

const ctxIdentity ctxKey = iota

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxIdentity, id)
}

// FromContext returns the caller identity stored by RequireAccessToken.
func FromContext(ctx context.Context) (Identity, error) {
	if id, ok := ctx.Value(ctxIdentity).(Identity); ok && id.Email != "" {
		return id, nil
	}
	return Identity{}, errors.New("identity not in context")
}

func UserID(ctx context.Context) (int64, error) {
	id, err := FromContext(ctx)
	if err != nil {
		return 0, err
	}
	if id.UserID == 0 {
		return 0, errors.New("user_id not in context")
	}
	return id.UserID, nil
}

func Role(ctx context.Context) (string, error) {
	id, err := FromContext(ctx)
	if err != nil {
		return "", err
	}
	if id.Role == "" {
		return "", errors.New("role not in context")
	}
	return id.Role, nil
}
