package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pscheid92/mailpulse/internal/domain"
)

// Two generations of the legacy client stored the static secret under
// different names. Both are honored for reads and both are removed on Clear.
const (
	legacyTokenKeyFmt = "legacy:token_key:%s"
	legacyMailKeyFmt  = "legacy:mail_key:%s"
)

// SecretStore implements domain.LegacySecretStore on Redis.
type SecretStore struct {
	client *goredis.Client
}

func NewSecretStore(client *goredis.Client) *SecretStore {
	return &SecretStore{client: client}
}

func (s *SecretStore) keys(userID uuid.UUID) []string {
	return []string{
		fmt.Sprintf(legacyTokenKeyFmt, userID),
		fmt.Sprintf(legacyMailKeyFmt, userID),
	}
}

// Get returns the first legacy secret found under either key name, or
// domain.ErrNoLegacySecret when none exists.
func (s *SecretStore) Get(ctx context.Context, userID uuid.UUID) (string, error) {
	for _, key := range s.keys(userID) {
		val, err := s.client.Get(ctx, key).Result()
		if errors.Is(err, goredis.Nil) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to read legacy secret %s: %w", key, err)
		}
		if val != "" {
			return val, nil
		}
	}
	return "", domain.ErrNoLegacySecret
}

// Clear deletes both legacy key entries. Deleting a key that does not exist
// is not an error.
func (s *SecretStore) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.client.Del(ctx, s.keys(userID)...).Err(); err != nil {
		return fmt.Errorf("failed to delete legacy secrets: %w", err)
	}
	return nil
}
