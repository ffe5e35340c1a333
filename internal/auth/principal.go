package auth

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned by a SessionStore for unknown or expired ids.
var ErrSessionNotFound = errors.New("session not found")

// Principal is the authenticated caller handed to the ask pipeline.
type Principal struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// IsZero reports whether p carries no identity.
func (p Principal) IsZero() bool {
	return p.Email == "" && p.Name == ""
}

// SessionStore keeps principals behind opaque session ids.
type SessionStore interface {
	Create(ctx context.Context, p Principal, ttl time.Duration) (string, error)
	Get(ctx context.Context, id string) (Principal, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom extracts the principal stored by RequireSession.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
