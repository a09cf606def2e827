// Package crypto protects mailbox OAuth tokens at rest.
//
// Keys are derived per operation from the live authenticated session via
// PBKDF2-SHA256 and never written to durable storage: a stolen database
// cannot be decrypted without an active session for that exact user.
// Tokens are sealed with AES-256-GCM into a versioned, self-describing
// envelope. A read-only codec for the deprecated static-key scheme exists
// solely as migration input.
package crypto
