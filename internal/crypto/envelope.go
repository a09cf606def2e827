package crypto

import (
	"encoding/json"
	"fmt"
)

const (
	// EnvelopeVersion is written into every new envelope. Bump it when the
	// algorithm or key-derivation inputs change; Validate rejects versions
	// this build does not know.
	EnvelopeVersion = 1

	// AlgorithmAESGCM is the only algorithm currently produced or accepted.
	AlgorithmAESGCM = "AES-GCM"
)

// Envelope bundles a ciphertext with everything needed to decrypt it later.
// Its JSON form is the unit of storage in the token columns; []byte fields
// serialize as base64.
type Envelope struct {
	Ciphertext []byte `json:"ciphertext"`
	IV         []byte `json:"iv"`
	Salt       []byte `json:"salt"`
	Iterations int    `json:"iterations"`
	Algorithm  string `json:"algorithm"`
	Version    int    `json:"version"`
}

// ParseEnvelope decodes and validates a stored token column value.
func ParseEnvelope(raw string) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("%w: not valid JSON: %v", ErrInvalidEnvelope, err)
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	return &env, nil
}

// Encode serializes the envelope into the textual form stored in the
// credential record's token column.
func (e *Envelope) Encode() (string, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("failed to encode envelope: %w", err)
	}
	return string(raw), nil
}

// Validate checks the envelope structurally. It runs before any key
// derivation so malformed data never reaches the expensive KDF.
func (e *Envelope) Validate() error {
	switch {
	case e == nil:
		return fmt.Errorf("%w: envelope is nil", ErrInvalidEnvelope)
	case e.Version != EnvelopeVersion:
		return fmt.Errorf("%w: unknown envelope version %d", ErrInvalidEnvelope, e.Version)
	case e.Algorithm != AlgorithmAESGCM:
		return fmt.Errorf("%w: unknown algorithm %q", ErrInvalidEnvelope, e.Algorithm)
	case len(e.Ciphertext) == 0:
		return fmt.Errorf("%w: missing ciphertext", ErrInvalidEnvelope)
	case len(e.IV) != ivSize:
		return fmt.Errorf("%w: iv must be %d bytes, got %d", ErrInvalidEnvelope, ivSize, len(e.IV))
	case len(e.Salt) != saltSize:
		return fmt.Errorf("%w: salt must be %d bytes, got %d", ErrInvalidEnvelope, saltSize, len(e.Salt))
	case e.Iterations <= 0:
		return fmt.Errorf("%w: missing iteration count", ErrInvalidEnvelope)
	}
	return nil
}
