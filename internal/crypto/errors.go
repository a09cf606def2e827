package crypto

import "errors"

var (
	// ErrInvalidEnvelope marks stored data that is structurally broken
	// (missing fields, wrong algorithm, unknown version). Raised before any
	// cryptographic work is attempted.
	ErrInvalidEnvelope = errors.New("invalid token envelope")

	// ErrDecryptionFailed is the AES-GCM authentication failure: wrong key
	// (the session identity differs from the one at encryption time) or
	// tampered data.
	ErrDecryptionFailed = errors.New("token decryption failed")

	// ErrLegacyDecryptionFailed covers every failure of the deprecated
	// scheme. Callers treat it as "this token is unrecoverable", not as a
	// fatal error.
	ErrLegacyDecryptionFailed = errors.New("legacy token decryption failed")

	// ErrUnsupported indicates the required AEAD primitives are unavailable.
	ErrUnsupported = errors.New("required cryptographic primitives unavailable")
)
