package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pscheid92/mailpulse/internal/domain"
)

// accountColumns must match the Scan order in scanAccount.
const accountColumns = `id, user_id, provider, email, access_token, refresh_token, active, created_at, updated_at`

// AccountRepo implements domain.MailboxAccountRepository backed by PostgreSQL.
type AccountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

func scanAccount(row pgx.Row) (*domain.MailboxAccount, error) {
	var account domain.MailboxAccount
	err := row.Scan(
		&account.ID, &account.UserID, &account.Provider, &account.Email,
		&account.AccessToken, &account.RefreshToken, &account.Active,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.MailboxAccount, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM mailbox_accounts WHERE id = $1`, id))
}

func (r *AccountRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.MailboxAccount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM mailbox_accounts WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mailbox accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.MailboxAccount
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mailbox account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read mailbox accounts: %w", err)
	}
	return accounts, nil
}

func (r *AccountRepo) Upsert(ctx context.Context, userID uuid.UUID, provider, email string, accessToken, refreshToken *string) (*domain.MailboxAccount, error) {
	account, err := scanAccount(r.pool.QueryRow(ctx, `
		INSERT INTO mailbox_accounts (user_id, provider, email, access_token, refresh_token, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW())
		ON CONFLICT (user_id, email) DO UPDATE SET
			provider = EXCLUDED.provider,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			active = TRUE,
			updated_at = NOW()
		RETURNING `+accountColumns+`
	`, userID, provider, email, accessToken, refreshToken))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert mailbox account: %w", err)
	}
	return account, nil
}

func (r *AccountRepo) UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken *string, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE mailbox_accounts
		SET access_token = $1, refresh_token = $2, active = $3, updated_at = NOW()
		WHERE id = $4
	`, accessToken, refreshToken, active, id)
	if err != nil {
		return fmt.Errorf("failed to update tokens: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}
