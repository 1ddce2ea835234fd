package auth

import (
	"context"

	"eato/internal/domain"
)

type userKey struct{}

// WithUser returns a copy of ctx carrying the signed-in user.
func WithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// FromContext returns the signed-in user stored in ctx, if any.
func FromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey{}).(*domain.User)
	return u, ok && u != nil
}

// ContextIdentity resolves the current user from the request context.
// The HTTP layer stores the user there after validating the bearer token.
type ContextIdentity struct{}

func (ContextIdentity) CurrentUser(ctx context.Context) (*domain.User, bool) {
	return FromContext(ctx)
}
