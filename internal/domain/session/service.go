package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/startupai-hq/evidence-core/internal/repository"
)

// maxMessagesPerSession caps the append-only history.
const maxMessagesPerSession = 200

// Service implements the versioned turn commit protocol. Ownership of the
// session is the caller's concern; this service assumes the tenant check
// already happened at the boundary.
type Service struct {
	sessions SessionRepository
	projects ProjectRepository
	queue    CompletionQueue
	logger   *slog.Logger
}

// NewService creates a session service.
func NewService(sessions SessionRepository, projects ProjectRepository, queue CompletionQueue, logger *slog.Logger) *Service {
	return &Service{
		sessions: sessions,
		projects: projects,
		queue:    queue,
		logger:   logger,
	}
}

// StartRequest describes session creation.
type StartRequest struct {
	UserID    string
	ProjectID string
}

// Start creates a new onboarding session at the first stage, version 0.
func (s *Service) Start(ctx context.Context, tenantID string, req StartRequest) (*Session, error) {
	if req.UserID == "" || req.ProjectID == "" {
		return nil, ErrInvalidInput
	}

	if _, err := s.projects.Get(ctx, tenantID, req.ProjectID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidInput
		}
		return nil, fmt.Errorf("loading project: %w", err)
	}

	now := time.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		UserID:    req.UserID,
		ProjectID: req.ProjectID,
		Stage:     StageBusinessIdea,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Create(ctx, tenantID, sess); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return sess, nil
}

// Get returns a session by ID.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*Session, error) {
	sess, err := s.sessions.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	return sess, nil
}

// History returns the append-only message history for a session.
func (s *Service) History(ctx context.Context, tenantID, sessionID string) ([]Message, error) {
	if _, err := s.Get(ctx, tenantID, sessionID); err != nil {
		return nil, err
	}
	return s.sessions.ListMessages(ctx, tenantID, sessionID)
}

// CommitRequest describes one turn submitted for commit. Assessment may be
// nil when the upstream quality assessment failed; the commit then falls back
// to a message-count-derived progress estimate instead of aborting.
type CommitRequest struct {
	SessionID        string
	MessageID        string
	UserMessage      Message
	AssistantMessage Message
	Assessment       *Assessment
	ExpectedVersion  *int64
}

// CommitTurn atomically appends a message pair, applies the assessment's
// derived stage fields, and bumps the session version by exactly one.
// Duplicate message ids replay the originally committed snapshot; a stale
// expected version yields a version_conflict result without mutating state.
// Without an expected version a lost race retries once against the reloaded
// session before surfacing a conflict.
func (s *Service) CommitTurn(ctx context.Context, tenantID string, req CommitRequest) (*CommitResult, error) {
	if req.SessionID == "" || req.MessageID == "" ||
		req.UserMessage.Content == "" || req.AssistantMessage.Content == "" {
		return nil, ErrInvalidInput
	}

	sess, err := s.sessions.Get(ctx, tenantID, req.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}

	if prior, err := s.sessions.GetTurn(ctx, tenantID, req.SessionID, req.MessageID); err == nil {
		return duplicateResult(prior), nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("checking for duplicate turn: %w", err)
	}

	var turn *Turn
	// When the caller pins no expected version it never opted into optimistic
	// concurrency, so a CAS lost to a concurrent writer gets one silent
	// reload-and-retry before a conflict is surfaced.
	for attempt := 0; ; attempt++ {
		if sess.MessageCount+2 > maxMessagesPerSession {
			return nil, ErrMessageLimit
		}

		if req.ExpectedVersion != nil && *req.ExpectedVersion != sess.Version {
			return conflictResult(sess, *req.ExpectedVersion), nil
		}

		up := applyAssessment(sess, req.Assessment, sess.MessageCount+2)
		turn = &Turn{
			SessionID:        req.SessionID,
			MessageID:        req.MessageID,
			UserMessage:      normalizeMessage(req.UserMessage, "user"),
			AssistantMessage: normalizeMessage(req.AssistantMessage, "assistant"),
			CommittedVersion: sess.Version + 1,
			Stage:            up.Stage,
			StageProgress:    up.StageProgress,
			OverallProgress:  up.OverallProgress,
			StageAdvanced:    up.StageAdvanced,
			Completed:        up.Completed,
			CreatedAt:        time.Now(),
		}

		err = s.sessions.CommitTurn(ctx, tenantID, turn, sess.Version)
		if err == nil {
			break
		}
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			prior, getErr := s.sessions.GetTurn(ctx, tenantID, req.SessionID, req.MessageID)
			if getErr != nil {
				return nil, fmt.Errorf("loading duplicate turn: %w", getErr)
			}
			return duplicateResult(prior), nil
		case errors.Is(err, repository.ErrConflict):
			current, getErr := s.sessions.Get(ctx, tenantID, req.SessionID)
			if getErr != nil {
				return nil, fmt.Errorf("reloading session after conflict: %w", getErr)
			}
			if req.ExpectedVersion == nil && attempt == 0 {
				sess = current
				continue
			}
			return conflictResult(current, sess.Version), nil
		default:
			return nil, fmt.Errorf("committing turn: %w", err)
		}
	}

	result := &CommitResult{
		Status:          StatusCommitted,
		Version:         turn.CommittedVersion,
		Stage:           turn.Stage,
		StageProgress:   turn.StageProgress,
		OverallProgress: turn.OverallProgress,
		StageAdvanced:   turn.StageAdvanced,
		Completed:       turn.Completed,
	}

	// The session is authoritative on completion; a queue failure here is a
	// recoverable side channel, never a commit failure.
	if turn.Completed && !sess.Completed && s.queue != nil {
		if _, err := s.queue.EnqueueCompletion(ctx, tenantID, sess.ID, sess.UserID); err != nil {
			if s.logger != nil {
				s.logger.ErrorContext(ctx, "completion enqueue failed",
					"session_id", sess.ID, "error", err)
			}
		} else {
			result.Queued = true
		}
	}

	return result, nil
}

func duplicateResult(turn *Turn) *CommitResult {
	return &CommitResult{
		Status:          StatusDuplicate,
		Version:         turn.CommittedVersion,
		Stage:           turn.Stage,
		StageProgress:   turn.StageProgress,
		OverallProgress: turn.OverallProgress,
		StageAdvanced:   turn.StageAdvanced,
		Completed:       turn.Completed,
	}
}

func conflictResult(current *Session, expected int64) *CommitResult {
	cur := current.Version
	exp := expected
	return &CommitResult{
		Status:          StatusVersionConflict,
		Version:         cur,
		CurrentVersion:  &cur,
		ExpectedVersion: &exp,
		Stage:           current.Stage,
		StageProgress:   current.StageProgress,
		OverallProgress: current.OverallProgress,
		Completed:       current.Completed,
	}
}

func normalizeMessage(msg Message, role string) Message {
	msg.Role = role
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	return msg
}
