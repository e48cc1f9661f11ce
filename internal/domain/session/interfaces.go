package session

import (
	"context"

	"github.com/startupai-hq/evidence-core/internal/domain/handoff"
	"github.com/startupai-hq/evidence-core/internal/domain/project"
)

// SessionRepository provides persistence for sessions and committed turns.
type SessionRepository interface {
	Create(ctx context.Context, tenantID string, sess *Session) error
	Get(ctx context.Context, tenantID, id string) (*Session, error)
	GetTurn(ctx context.Context, tenantID, sessionID, messageID string) (*Turn, error)
	// CommitTurn atomically appends the turn's message pair, stores the
	// turn snapshot, and bumps the session version with a compare-and-swap
	// on expectedVersion. It returns repository.ErrConflict when the CAS
	// fails and repository.ErrDuplicate when the message id was already
	// committed.
	CommitTurn(ctx context.Context, tenantID string, turn *Turn, expectedVersion int64) error
	ListMessages(ctx context.Context, tenantID, sessionID string) ([]Message, error)
}

// ProjectRepository provides project lookups for session creation.
type ProjectRepository interface {
	Get(ctx context.Context, tenantID, id string) (*project.Project, error)
}

// CompletionQueue enqueues downstream work when a session completes.
type CompletionQueue interface {
	EnqueueCompletion(ctx context.Context, tenantID, sessionID, userID string) (*handoff.EnqueueResult, error)
}
