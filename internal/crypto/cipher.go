package crypto

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/pscheid92/mailpulse/internal/domain"
	"github.com/pscheid92/mailpulse/internal/metrics"
)

// TokenCipher encrypts and decrypts single token strings under a
// session-bound key. It holds no key material itself: the session is fetched
// from the provider on every call and the key derived on the spot.
type TokenCipher struct {
	sessions   domain.SessionProvider
	iterations int
}

func NewTokenCipher(sessions domain.SessionProvider) *TokenCipher {
	return &TokenCipher{sessions: sessions, iterations: Iterations}
}

// Encrypt seals plaintext into a fresh envelope. Salt and IV are newly
// random on every call, even for identical plaintext and session.
func (c *TokenCipher) Encrypt(ctx context.Context, plaintext string) (*Envelope, error) {
	sess, err := c.sessions.Current(ctx)
	if err != nil {
		metrics.TokenCryptoOps.WithLabelValues("encrypt", "no_session").Inc()
		return nil, err
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("failed to generate iv: %w", err)
	}

	aead, err := newAEAD(deriveKey(sess, salt, c.iterations))
	if err != nil {
		metrics.TokenCryptoOps.WithLabelValues("encrypt", "error").Inc()
		return nil, err
	}

	env := &Envelope{
		Ciphertext: aead.Seal(nil, iv, []byte(plaintext), nil),
		IV:         iv,
		Salt:       salt,
		Iterations: c.iterations,
		Algorithm:  AlgorithmAESGCM,
		Version:    EnvelopeVersion,
	}

	metrics.TokenCryptoOps.WithLabelValues("encrypt", "ok").Inc()
	return env, nil
}

// Decrypt opens an envelope under the current session. The key is re-derived
// from the envelope's stored salt and iteration count; an authentication
// failure means the session identity no longer matches or the data was
// tampered with.
func (c *TokenCipher) Decrypt(ctx context.Context, env *Envelope) (string, error) {
	if err := env.Validate(); err != nil {
		metrics.TokenCryptoOps.WithLabelValues("decrypt", "invalid_envelope").Inc()
		return "", err
	}

	sess, err := c.sessions.Current(ctx)
	if err != nil {
		metrics.TokenCryptoOps.WithLabelValues("decrypt", "no_session").Inc()
		return "", err
	}

	aead, err := newAEAD(deriveKey(sess, env.Salt, env.Iterations))
	if err != nil {
		metrics.TokenCryptoOps.WithLabelValues("decrypt", "error").Inc()
		return "", err
	}

	plaintext, err := aead.Open(nil, env.IV, env.Ciphertext, nil)
	if err != nil {
		metrics.TokenCryptoOps.WithLabelValues("decrypt", "auth_failed").Inc()
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	metrics.TokenCryptoOps.WithLabelValues("decrypt", "ok").Inc()
	return string(plaintext), nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return aead, nil
}

// Supported reports whether the AES-256-GCM primitives needed for token
// encryption are available.
func Supported() bool {
	_, err := newAEAD(make([]byte, keySize))
	return err == nil
}
