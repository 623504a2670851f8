package core

import "errors"

// Error kinds surfaced by the store. Callers match with errors.Is.
var (
	// ErrValidation marks malformed input, rejected before any transaction
	// opens; nothing was written.
	ErrValidation = errors.New("validation failed")

	// ErrStorageBusy marks a write-lock acquisition timeout. Transient; safe
	// to retry with backoff.
	ErrStorageBusy = errors.New("storage busy")
)
