package evidence

import "errors"

var (
	// ErrNotFound indicates the requested evidence entity doesn't exist.
	ErrNotFound = errors.New("evidence entity not found")
	// ErrInvalidInput indicates invalid evidence input.
	ErrInvalidInput = errors.New("invalid evidence input")
)
