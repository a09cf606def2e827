package domain

import (
	"context"

	"github.com/google/uuid"
)

// Session is the live authenticated session identity. It is key-derivation
// input for the token cipher and must never be persisted.
type Session struct {
	UserID uuid.UUID
	Email  string
	Token  string
}

// SessionProvider exposes the current session. Implementations must resolve
// it fresh on every call so that key material always reflects the live
// session, never a cached one.
type SessionProvider interface {
	// Current returns the authenticated session or ErrNoSession.
	Current(ctx context.Context) (*Session, error)
}

// LegacySecretStore holds the deprecated static encryption secret. Its
// presence is the marker that token migration is still pending.
type LegacySecretStore interface {
	// Get returns the legacy secret for the user or ErrNoLegacySecret.
	Get(ctx context.Context, userID uuid.UUID) (string, error)
	// Clear removes every legacy key entry for the user.
	Clear(ctx context.Context, userID uuid.UUID) error
}
