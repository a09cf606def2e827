// Package server provides the HTTP boundary: Google OAuth sign-in, cookie
// sessions, the token-migration trigger, and operational endpoints.
package server
