package domain

import "errors"

var (
	ErrAccountNotFound = errors.New("mailbox account not found")
	ErrAccountInactive = errors.New("mailbox account requires re-authentication")
	ErrNoSession       = errors.New("no authenticated session")
	ErrNoLegacySecret  = errors.New("no legacy encryption secret present")
)
