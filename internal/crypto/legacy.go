package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// legacyIVSize is the 16-byte IV the deprecated scheme prefixed to its
// ciphertext before base64-packing.
const legacyIVSize = 16

// LegacyCodec decodes ciphertext from the deprecated scheme: AES-GCM under
// a key that is a single SHA-256 of a static, locally persisted secret.
// It exists only as migration input and never writes anything.
type LegacyCodec struct {
	aead cipher.AEAD
}

func NewLegacyCodec(secret string) (*LegacyCodec, error) {
	key := sha256.Sum256([]byte(secret))

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, legacyIVSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	return &LegacyCodec{aead: aead}, nil
}

// Decrypt unpacks base64(iv || ciphertext) and opens it. Every failure maps
// to ErrLegacyDecryptionFailed: it signals "this token is unrecoverable",
// not a fatal condition.
func (c *LegacyCodec) Decrypt(packed string) (string, error) {
	buf, err := base64.StdEncoding.DecodeString(packed)
	if err != nil {
		return "", fmt.Errorf("%w: invalid base64: %v", ErrLegacyDecryptionFailed, err)
	}
	if len(buf) <= legacyIVSize {
		return "", fmt.Errorf("%w: ciphertext too short", ErrLegacyDecryptionFailed)
	}

	iv, ciphertext := buf[:legacyIVSize], buf[legacyIVSize:]
	plaintext, err := c.aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLegacyDecryptionFailed, err)
	}

	return string(plaintext), nil
}
