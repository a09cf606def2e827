package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pscheid92/mailpulse/internal/crypto"
	"github.com/pscheid92/mailpulse/internal/domain"
)

// Service is the steady-state token API for connected mailboxes. All writes
// go through the session-bound cipher; plaintext tokens only ever exist in
// memory for the duration of a call.
type Service struct {
	accounts domain.MailboxAccountRepository
	cipher   *crypto.TokenCipher
}

func NewService(accounts domain.MailboxAccountRepository, cipher *crypto.TokenCipher) *Service {
	return &Service{accounts: accounts, cipher: cipher}
}

// ConnectMailbox stores a freshly authorized mailbox with both tokens
// encrypted under the current session.
func (s *Service) ConnectMailbox(ctx context.Context, userID uuid.UUID, provider, email, accessToken, refreshToken string) (*domain.MailboxAccount, error) {
	encAccess, err := s.seal(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}
	encRefresh, err := s.seal(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	account, err := s.accounts.Upsert(ctx, userID, provider, email, encAccess, encRefresh)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert mailbox account: %w", err)
	}
	return account, nil
}

// Accounts lists the user's connected mailboxes. Token columns stay
// encrypted; nothing here needs the plaintext.
func (s *Service) Accounts(ctx context.Context, userID uuid.UUID) ([]*domain.MailboxAccount, error) {
	return s.accounts.ListByUser(ctx, userID)
}

// AccessToken decrypts the stored access token of one account.
func (s *Service) AccessToken(ctx context.Context, accountID uuid.UUID) (string, error) {
	return s.openToken(ctx, accountID, func(a *domain.MailboxAccount) *string { return a.AccessToken })
}

// RefreshToken decrypts the stored refresh token of one account.
func (s *Service) RefreshToken(ctx context.Context, accountID uuid.UUID) (string, error) {
	return s.openToken(ctx, accountID, func(a *domain.MailboxAccount) *string { return a.RefreshToken })
}

// RotateTokens replaces both tokens after a refresh-token rotation and
// reactivates the record.
func (s *Service) RotateTokens(ctx context.Context, accountID uuid.UUID, accessToken, refreshToken string) error {
	encAccess, err := s.seal(ctx, accessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}
	encRefresh, err := s.seal(ctx, refreshToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	if err := s.accounts.UpdateTokens(ctx, accountID, encAccess, encRefresh, true); err != nil {
		return fmt.Errorf("failed to update tokens: %w", err)
	}
	return nil
}

func (s *Service) seal(ctx context.Context, plaintext string) (*string, error) {
	env, err := s.cipher.Encrypt(ctx, plaintext)
	if err != nil {
		return nil, err
	}
	encoded, err := env.Encode()
	if err != nil {
		return nil, err
	}
	return &encoded, nil
}

func (s *Service) openToken(ctx context.Context, accountID uuid.UUID, field func(*domain.MailboxAccount) *string) (string, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return "", err
	}
	if !account.Active {
		return "", domain.ErrAccountInactive
	}

	stored := field(account)
	if stored == nil {
		return "", domain.ErrAccountInactive
	}

	env, err := crypto.ParseEnvelope(*stored)
	if err != nil {
		return "", err
	}
	return s.cipher.Decrypt(ctx, env)
}
