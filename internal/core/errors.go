// Package core defines the fundamental types and errors for MindfulTube.
package core

import "errors"

// Core errors that can occur across the system
var (
	// Storage errors
	ErrRecordNotFound   = errors.New("record not found")
	ErrMigrationFailed  = errors.New("migration failed")
	ErrPersistFailed    = errors.New("failed to persist agent state")
	ErrDecryptionFailed = errors.New("decryption failed")
	ErrEncryptionFailed = errors.New("encryption failed")

	// Search provider errors
	ErrProviderUnavailable = errors.New("search provider unavailable")
	ErrItemNotFound        = errors.New("item not found")

	// Orchestrator errors
	ErrUnknownRequest = errors.New("unknown request")
	ErrUnknownAgent   = errors.New("unknown agent")
	ErrSessionBlocked = errors.New("session blocked by time limit")
	ErrNoActiveVideo  = errors.New("no active video")
	ErrAgentPanic     = errors.New("agent panicked")

	// Validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrMissingRequired = errors.New("missing required field")
)
