package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/mailpulse/internal/crypto"
	"github.com/pscheid92/mailpulse/internal/domain"
	"github.com/pscheid92/mailpulse/internal/metrics"
)

// MigrationResult is the aggregate outcome surfaced for user-facing
// reporting.
type MigrationResult struct {
	MigratedCount  int `json:"migrated_count"`
	CorruptedCount int `json:"corrupted_count"`
}

// TokenMigrator re-encrypts a user's mailbox tokens from the deprecated
// static-key scheme into session-bound envelopes.
//
// Callers must not run two migrations for the same user concurrently; the
// UI disables the trigger while a run is in flight.
type TokenMigrator struct {
	accounts domain.MailboxAccountRepository
	secrets  domain.LegacySecretStore
	sessions domain.SessionProvider
	cipher   *crypto.TokenCipher
	clock    clockwork.Clock
}

func NewTokenMigrator(
	accounts domain.MailboxAccountRepository,
	secrets domain.LegacySecretStore,
	sessions domain.SessionProvider,
	cipher *crypto.TokenCipher,
	clock clockwork.Clock,
) *TokenMigrator {
	return &TokenMigrator{
		accounts: accounts,
		secrets:  secrets,
		sessions: sessions,
		cipher:   cipher,
		clock:    clock,
	}
}

// Run migrates every credential record of the current user. Records are
// processed sequentially: the KDF is expensive by design and interleaved
// writes to the same record must never happen. A record whose legacy data
// is unreadable is marked corrupted and the run continues; a session expiry
// or storage failure aborts the run with the legacy secret left in place so
// a later attempt can finish the remaining records.
//
// After a complete pass the legacy secret is removed unconditionally, even
// when every record failed: retrying with the same inputs cannot do better,
// and a lingering secret would re-trigger migration on every call. A second
// Run therefore finds no secret and is a no-op.
func (m *TokenMigrator) Run(ctx context.Context) (MigrationResult, error) {
	var result MigrationResult
	start := m.clock.Now()

	sess, err := m.sessions.Current(ctx)
	if err != nil {
		return result, err
	}

	secret, err := m.secrets.Get(ctx, sess.UserID)
	if errors.Is(err, domain.ErrNoLegacySecret) {
		slog.Debug("No legacy token secret present, nothing to migrate", "user_id", sess.UserID)
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("failed to read legacy token secret: %w", err)
	}

	codec, err := crypto.NewLegacyCodec(secret)
	if err != nil {
		return result, err
	}

	accounts, err := m.accounts.ListByUser(ctx, sess.UserID)
	if err != nil {
		return result, fmt.Errorf("failed to list mailbox accounts: %w", err)
	}

	for _, account := range accounts {
		migrated, corrupted, err := m.migrateAccount(ctx, codec, account)
		if err != nil {
			return result, err
		}
		if migrated {
			result.MigratedCount++
		}
		if corrupted {
			result.CorruptedCount++
		}
	}

	if err := m.secrets.Clear(ctx, sess.UserID); err != nil {
		return result, fmt.Errorf("failed to clear legacy token secret: %w", err)
	}

	slog.Info("Token migration finished",
		"user_id", sess.UserID,
		"migrated", result.MigratedCount,
		"corrupted", result.CorruptedCount,
		"duration_ms", m.clock.Since(start).Milliseconds())

	return result, nil
}

// migrateAccount handles one credential record as a unit: both tokens are
// re-encrypted first and persisted in a single write, so an aborted run
// leaves the record in its pre-migration state.
//
// An unreadable access token condemns the record: the access field is
// cleared, the record goes inactive, and the refresh token is not attempted
// (a record without its access token is not worth partially repairing). An
// unreadable refresh token alone only clears that field.
func (m *TokenMigrator) migrateAccount(ctx context.Context, codec *crypto.LegacyCodec, account *domain.MailboxAccount) (migrated, corrupted bool, err error) {
	if account.AccessToken == nil && account.RefreshToken == nil {
		return false, false, nil
	}

	var newAccess *string
	if account.AccessToken != nil {
		reencrypted, err := m.reencrypt(ctx, codec, *account.AccessToken)
		if errors.Is(err, crypto.ErrLegacyDecryptionFailed) {
			slog.Warn("Access token unrecoverable, marking account corrupted",
				"account_id", account.ID, "error", err)
			metrics.MigrationRecords.WithLabelValues("corrupted").Inc()
			if err := m.accounts.UpdateTokens(ctx, account.ID, nil, account.RefreshToken, false); err != nil {
				return false, false, fmt.Errorf("failed to persist corrupted account: %w", err)
			}
			return false, true, nil
		}
		if err != nil {
			return false, false, err
		}
		newAccess = &reencrypted
	}

	newRefresh := account.RefreshToken
	if account.RefreshToken != nil {
		reencrypted, err := m.reencrypt(ctx, codec, *account.RefreshToken)
		switch {
		case errors.Is(err, crypto.ErrLegacyDecryptionFailed):
			slog.Warn("Refresh token unrecoverable, clearing it",
				"account_id", account.ID, "error", err)
			newRefresh = nil
		case err != nil:
			return false, false, err
		default:
			newRefresh = &reencrypted
		}
	}

	if err := m.accounts.UpdateTokens(ctx, account.ID, newAccess, newRefresh, true); err != nil {
		return false, false, fmt.Errorf("failed to persist migrated tokens: %w", err)
	}

	metrics.MigrationRecords.WithLabelValues("migrated").Inc()
	return true, false, nil
}

// reencrypt decodes one legacy-packed token and seals it into a new
// envelope. The session is re-fetched inside Encrypt, so an expiry
// mid-run surfaces here as domain.ErrNoSession.
func (m *TokenMigrator) reencrypt(ctx context.Context, codec *crypto.LegacyCodec, packed string) (string, error) {
	plaintext, err := codec.Decrypt(packed)
	if err != nil {
		return "", err
	}

	env, err := m.cipher.Encrypt(ctx, plaintext)
	if err != nil {
		return "", err
	}

	return env.Encode()
}
