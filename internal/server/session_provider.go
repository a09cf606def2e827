package server

import (
	"context"

	"github.com/pscheid92/mailpulse/internal/domain"
)

type sessionContextKey struct{}

// WithSession returns a context carrying the authenticated session. The
// requireAuth middleware attaches it per request; the OAuth callback
// attaches it manually for the freshly signed-in user.
func WithSession(ctx context.Context, sess *domain.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionProvider implements domain.SessionProvider by reading the session
// the middleware attached to the request context. Every lookup resolves the
// live request's session, so key derivation never sees stale identity: once
// the cookie session is gone, so is the context value.
type SessionProvider struct{}

func (SessionProvider) Current(ctx context.Context) (*domain.Session, error) {
	sess, ok := ctx.Value(sessionContextKey{}).(*domain.Session)
	if !ok || sess == nil {
		return nil, domain.ErrNoSession
	}
	return sess, nil
}
