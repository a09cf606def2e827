package app

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/mailpulse/internal/domain"
)

type fakeSessions struct {
	sess *domain.Session
	err  error
}

func (f *fakeSessions) Current(_ context.Context) (*domain.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sess, nil
}

type fakeAccountRepo struct {
	accounts map[uuid.UUID]*domain.MailboxAccount
	order    []uuid.UUID

	listErr   error
	updateErr error
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[uuid.UUID]*domain.MailboxAccount)}
}

func (f *fakeAccountRepo) add(account *domain.MailboxAccount) {
	f.accounts[account.ID] = account
	f.order = append(f.order, account.ID)
}

func (f *fakeAccountRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.MailboxAccount, error) {
	account, ok := f.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (f *fakeAccountRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.MailboxAccount, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var result []*domain.MailboxAccount
	for _, id := range f.order {
		if f.accounts[id].UserID == userID {
			copied := *f.accounts[id]
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (f *fakeAccountRepo) Upsert(_ context.Context, userID uuid.UUID, provider, email string, accessToken, refreshToken *string) (*domain.MailboxAccount, error) {
	for _, id := range f.order {
		existing := f.accounts[id]
		if existing.UserID == userID && existing.Email == email {
			existing.AccessToken = accessToken
			existing.RefreshToken = refreshToken
			existing.Active = true
			copied := *existing
			return &copied, nil
		}
	}
	account := &domain.MailboxAccount{
		ID:           uuid.New(),
		UserID:       userID,
		Provider:     provider,
		Email:        email,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Active:       true,
	}
	f.add(account)
	copied := *account
	return &copied, nil
}

func (f *fakeAccountRepo) UpdateTokens(_ context.Context, id uuid.UUID, accessToken, refreshToken *string, active bool) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	account, ok := f.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	account.AccessToken = accessToken
	account.RefreshToken = refreshToken
	account.Active = active
	return nil
}

type fakeSecretStore struct {
	secrets map[uuid.UUID]string

	getErr   error
	clearErr error
}

func newFakeSecretStore() *fakeSecretStore {
	return &fakeSecretStore{secrets: make(map[uuid.UUID]string)}
}

func (f *fakeSecretStore) Get(_ context.Context, userID uuid.UUID) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	secret, ok := f.secrets[userID]
	if !ok {
		return "", domain.ErrNoLegacySecret
	}
	return secret, nil
}

func (f *fakeSecretStore) Clear(_ context.Context, userID uuid.UUID) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	delete(f.secrets, userID)
	return nil
}

// legacyEncrypt packs a plaintext the way the deprecated scheme did:
// AES-GCM under SHA-256(secret), base64(iv || ciphertext), 16-byte IV.
func legacyEncrypt(t *testing.T, secret, plaintext string) string {
	t.Helper()

	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	require.NoError(t, err)
	aead, err := cipher.NewGCMWithNonceSize(block, 16)
	require.NoError(t, err)

	iv := make([]byte, 16)
	_, err = io.ReadFull(rand.Reader, iv)
	require.NoError(t, err)

	packed := append(iv, aead.Seal(nil, iv, []byte(plaintext), nil)...)
	return base64.StdEncoding.EncodeToString(packed)
}

func strPtr(s string) *string {
	return &s
}
