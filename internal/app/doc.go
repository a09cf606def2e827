// Package app contains the application services: steady-state token
// handling for connected mailboxes and the one-time migration of tokens
// from the deprecated static-key scheme to session-bound encryption.
package app
