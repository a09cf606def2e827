package crypto

import (
	"crypto/sha256"
	"time"

	"golang.org/x/crypto/pbkdf2"

	"github.com/pscheid92/mailpulse/internal/domain"
	"github.com/pscheid92/mailpulse/internal/metrics"
)

const (
	// Iterations is the PBKDF2 iteration count for newly written envelopes.
	// Decryption honors whatever count the envelope carries.
	Iterations = 600_000

	saltSize = 16
	ivSize   = 12
	keySize  = 32
)

// keyPepper domain-separates token keys from any other derivation over the
// same session attributes. It is not a secret on its own; the at-rest
// protection comes from binding the key to the live session identity.
//
// Key material includes the session email, so an account rename changes the
// derived key and surfaces as ErrDecryptionFailed. A future envelope version
// should pin derivation to the immutable user ID only.
const keyPepper = "mailpulse/token-cipher/v1"

// deriveKey stretches the session identity into an AES-256 key. Pure
// function of its inputs: the same session and salt always yield the same
// key, which decryption with the stored salt relies on.
func deriveKey(sess *domain.Session, salt []byte, iterations int) []byte {
	start := time.Now()
	material := keyPepper + "|" + sess.UserID.String() + "|" + sess.Email
	key := pbkdf2.Key([]byte(material), salt, iterations, keySize, sha256.New)
	metrics.KeyDerivationDuration.Observe(time.Since(start).Seconds())
	return key
}
