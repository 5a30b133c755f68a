package domain

import "errors"

var (
	ErrPoolEmpty            = errors.New("backend pool is empty")
	ErrProviderFailure      = errors.New("model provider failure")
	ErrToolNotFound         = errors.New("tool not found")
	ErrInvalidToolArguments = errors.New("invalid tool arguments")
	ErrStoreUnavailable     = errors.New("external store unavailable")
	ErrProfileNotFound      = errors.New("profile not found")

	// Appending to a session that expired or was never created.
	ErrSessionNotFound = errors.New("session not found")
)
