// Package database provides the PostgreSQL-backed credential store.
// Token columns are opaque text here: encryption and decryption live in
// the crypto and app layers.
package database
