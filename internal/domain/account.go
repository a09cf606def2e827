package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MailboxAccount is a connected mailbox and its OAuth credentials.
// Token columns hold the JSON-serialized encrypted envelope (or, before
// migration, the legacy base64-packed ciphertext) and are nil when the
// field has been cleared. Encryption happens above the repository layer,
// so the repository treats both columns as opaque text.
type MailboxAccount struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Provider     string
	Email        string
	AccessToken  *string
	RefreshToken *string
	// Active is false when the stored credentials are unrecoverable and the
	// user has to reconnect the mailbox. Records are marked, never deleted.
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type MailboxAccountRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*MailboxAccount, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*MailboxAccount, error)
	Upsert(ctx context.Context, userID uuid.UUID, provider, email string, accessToken, refreshToken *string) (*MailboxAccount, error)
	UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken *string, active bool) error
}
