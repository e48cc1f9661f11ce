package handoff

import "errors"

var (
	// ErrSessionNotFound indicates the session doesn't exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNotCompleted indicates the session isn't complete yet.
	ErrNotCompleted = errors.New("session not completed")
	// ErrInvalidInput indicates invalid enqueue input.
	ErrInvalidInput = errors.New("invalid handoff input")
)
