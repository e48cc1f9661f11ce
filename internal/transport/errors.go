package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/startupai-hq/evidence-core/internal/domain/evidence"
	"github.com/startupai-hq/evidence-core/internal/domain/handoff"
	"github.com/startupai-hq/evidence-core/internal/domain/narrative"
	"github.com/startupai-hq/evidence-core/internal/domain/project"
	"github.com/startupai-hq/evidence-core/internal/domain/session"
)

// API error codes returned in the error envelope.
const (
	codeUnauthorized         = "UNAUTHORIZED"
	codeSessionNotFound      = "SESSION_NOT_FOUND"
	codeProjectNotFound      = "PROJECT_NOT_FOUND"
	codeNarrativeNotFound    = "NARRATIVE_NOT_FOUND"
	codeVersionNotFound      = "VERSION_NOT_FOUND"
	codeValidationError      = "VALIDATION_ERROR"
	codeVersionConflict      = "VERSION_CONFLICT"
	codeMessageLimit         = "MESSAGE_LIMIT_EXCEEDED"
	codeInsufficientEvidence = "INSUFFICIENT_EVIDENCE"
	codeEmptyContent         = "EMPTY_CONTENT"
	codeInternal             = "INTERNAL_ERROR"
	codeNotFound             = "NOT_FOUND"
)

// apiError is the JSON error envelope.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// mapError translates a domain error into an HTTP status and error envelope.
func mapError(err error) (int, apiError) {
	var insufficient *narrative.InsufficientEvidenceError
	if errors.As(err, &insufficient) {
		return http.StatusUnprocessableEntity, apiError{
			Code:    codeInsufficientEvidence,
			Message: insufficient.Error(),
			Details: map[string]any{"missing": insufficient.Missing},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, apiError{Code: codeUnauthorized, Message: "unauthorized"}
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, handoff.ErrSessionNotFound):
		return http.StatusNotFound, apiError{Code: codeSessionNotFound, Message: "session not found"}
	case errors.Is(err, project.ErrProjectNotFound), errors.Is(err, narrative.ErrProjectNotFound):
		return http.StatusNotFound, apiError{Code: codeProjectNotFound, Message: "project not found"}
	case errors.Is(err, narrative.ErrNarrativeNotFound):
		return http.StatusNotFound, apiError{Code: codeNarrativeNotFound, Message: "narrative not found"}
	case errors.Is(err, narrative.ErrVersionNotFound):
		return http.StatusNotFound, apiError{Code: codeVersionNotFound, Message: "narrative version not found"}
	case errors.Is(err, evidence.ErrNotFound):
		return http.StatusNotFound, apiError{Code: codeNotFound, Message: err.Error()}
	case errors.Is(err, narrative.ErrEmptyContent):
		return http.StatusUnprocessableEntity, apiError{Code: codeEmptyContent, Message: err.Error()}
	case errors.Is(err, session.ErrMessageLimit):
		return http.StatusConflict, apiError{Code: codeMessageLimit, Message: "session message limit exceeded"}
	case errors.Is(err, session.ErrInvalidInput),
		errors.Is(err, project.ErrInvalidInput),
		errors.Is(err, narrative.ErrInvalidInput),
		errors.Is(err, evidence.ErrInvalidInput),
		errors.Is(err, handoff.ErrInvalidInput):
		return http.StatusBadRequest, apiError{Code: codeValidationError, Message: err.Error()}
	default:
		return http.StatusInternalServerError, apiError{Code: codeInternal, Message: "internal error"}
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]apiError{"error": {Code: code, Message: message}})
}

func writeDomainError(w http.ResponseWriter, err error) {
	status, apiErr := mapError(err)
	writeJSON(w, status, map[string]apiError{"error": apiErr})
}
