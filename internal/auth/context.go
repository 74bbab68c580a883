package auth

import (
	"context"

	"spendwise/internal/core"
)

type contextKey struct{}

type principal struct {
	user    core.User
	session core.Session
}

func NewContext(ctx context.Context, user core.User, session core.Session) context.Context {
	return context.WithValue(ctx, contextKey{}, principal{user: user, session: session})
}

// UserFromContext returns the authenticated user set by the session middleware.
func UserFromContext(ctx context.Context) (core.User, bool) {
	p, ok := ctx.Value(contextKey{}).(principal)
	return p.user, ok
}

func SessionFromContext(ctx context.Context) (core.Session, bool) {
	p, ok := ctx.Value(contextKey{}).(principal)
	return p.session, ok
}
