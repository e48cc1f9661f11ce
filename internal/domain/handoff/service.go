package handoff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/startupai-hq/evidence-core/internal/repository"
)

// QueueRepository persists completion queue entries. Enqueue runs as one
// transaction: it verifies the session is complete, then inserts or revives a
// queue entry, so a completed session can never hold two live entries.
type QueueRepository interface {
	Enqueue(ctx context.Context, tenantID, sessionID, userID string) (EnqueueStatus, error)
	MarkFailed(ctx context.Context, tenantID, entryID, reason string) error
	ListPending(ctx context.Context, tenantID string, limit int) ([]Entry, error)
}

// Service handles completion handoff.
type Service struct {
	queue  QueueRepository
	logger *slog.Logger
}

// NewService creates a handoff service.
func NewService(queue QueueRepository, logger *slog.Logger) *Service {
	return &Service{queue: queue, logger: logger}
}

// EnqueueCompletion records a completed session for downstream processing.
// The enqueue is idempotent: an existing live entry yields already_completed,
// a failed or abandoned one is reset and yields requeued.
func (s *Service) EnqueueCompletion(ctx context.Context, tenantID, sessionID, userID string) (*EnqueueResult, error) {
	if sessionID == "" || userID == "" {
		return nil, ErrInvalidInput
	}

	status, err := s.queue.Enqueue(ctx, tenantID, sessionID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("enqueueing completion: %w", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "completion enqueued",
			"session_id", sessionID, "status", status)
	}
	return &EnqueueResult{Status: status}, nil
}

// ListPending returns queue entries awaiting the downstream worker. The
// background reconciler uses it to spot completed-but-unqueued sessions.
func (s *Service) ListPending(ctx context.Context, tenantID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.queue.ListPending(ctx, tenantID, limit)
}
