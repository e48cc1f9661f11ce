package narrative

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrProjectNotFound indicates the project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrNarrativeNotFound indicates no narrative exists for the project.
	ErrNarrativeNotFound = errors.New("narrative not found")
	// ErrVersionNotFound indicates a version number doesn't exist.
	ErrVersionNotFound = errors.New("narrative version not found")
	// ErrInvalidInput indicates invalid narrative input.
	ErrInvalidInput = errors.New("invalid narrative input")
	// ErrEmptyContent indicates synthesis produced no usable sections, so a
	// strict regeneration refuses to overwrite the stored narrative.
	ErrEmptyContent = errors.New("synthesized content is empty")
)

// InsufficientEvidenceError names the missing prerequisites that block
// generation.
type InsufficientEvidenceError struct {
	Missing []string
}

func (e *InsufficientEvidenceError) Error() string {
	return fmt.Sprintf("insufficient evidence: missing %s", strings.Join(e.Missing, ", "))
}
