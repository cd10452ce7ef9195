package auth

import (
	"context"

	"hoaportal/pkg/models"
)

type ctxSessionKey struct{}

// WithSession attaches a validated session to a request context.
func WithSession(ctx context.Context, s models.Session) context.Context {
	return context.WithValue(ctx, ctxSessionKey{}, s)
}

// SessionFromContext returns the validated session, if any.
func SessionFromContext(ctx context.Context) (models.Session, bool) {
	s, ok := ctx.Value(ctxSessionKey{}).(models.Session)
	return s, ok
}

// OwnerIDFromContext returns the authenticated owner id or empty string.
func OwnerIDFromContext(ctx context.Context) string {
	s, _ := SessionFromContext(ctx)
	return s.OwnerID
}

// RoleFromContext returns the authenticated role or empty string.
func RoleFromContext(ctx context.Context) string {
	s, _ := SessionFromContext(ctx)
	return s.Role
}
