package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/startupai-hq/evidence-core/internal/domain/handoff"
	"github.com/startupai-hq/evidence-core/internal/repository"
)

// staleClaimAge is how long a processing claim may sit without progress
// before a new enqueue is allowed to reclaim it.
const staleClaimAge = 15 * time.Minute

// QueueRepository implements handoff.QueueRepository for SQLite
type QueueRepository struct {
	db *DB
}

var _ handoff.QueueRepository = (*QueueRepository)(nil)

// NewQueueRepository creates a new QueueRepository
func NewQueueRepository(db *DB) *QueueRepository {
	return &QueueRepository{db: db}
}

// Enqueue records a completed session for the downstream worker. It runs as
// one transaction: verify the session is complete, then insert a fresh entry,
// revive a failed or abandoned one, or report the existing live entry.
func (r *QueueRepository) Enqueue(ctx context.Context, tenantID, sessionID, userID string) (handoff.EnqueueStatus, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var completed bool
	err = tx.QueryRowContext(ctx,
		`SELECT completed FROM sessions WHERE id = ? AND tenant_id = ?`,
		sessionID, tenantID,
	).Scan(&completed)
	if err == sql.ErrNoRows {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to check session: %w", err)
	}
	if !completed {
		return "", handoff.ErrNotCompleted
	}

	var entryID string
	var status handoff.EntryStatus
	var updatedAt time.Time
	err = tx.QueryRowContext(ctx,
		`SELECT id, status, updated_at FROM completion_queue WHERE session_id = ?`,
		sessionID,
	).Scan(&entryID, &status, &updatedAt)
	if err != nil && err != sql.ErrNoRows {
		return "", fmt.Errorf("failed to check queue entry: %w", err)
	}

	now := time.Now()

	if err == sql.ErrNoRows {
		insert := `
			INSERT INTO completion_queue (id, tenant_id, session_id, user_id, status, attempts, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, 0, ?, ?)
		`
		if _, err := tx.ExecContext(ctx, insert,
			uuid.NewString(), tenantID, sessionID, userID, handoff.StatusQueued, now, now,
		); err != nil {
			return "", fmt.Errorf("failed to insert queue entry: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return "", fmt.Errorf("failed to commit transaction: %w", err)
		}
		return handoff.EnqueueQueued, nil
	}

	revivable := status == handoff.StatusFailed ||
		(status == handoff.StatusProcessing && now.Sub(updatedAt) > staleClaimAge)
	if !revivable {
		return handoff.EnqueueAlreadyCompleted, nil
	}

	revive := `
		UPDATE completion_queue
		SET status = ?, last_error = NULL, updated_at = ?
		WHERE id = ?
	`
	if _, err := tx.ExecContext(ctx, revive, handoff.StatusQueued, now, entryID); err != nil {
		return "", fmt.Errorf("failed to revive queue entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	return handoff.EnqueueRequeued, nil
}

// MarkFailed records a processing failure on a queue entry
func (r *QueueRepository) MarkFailed(ctx context.Context, tenantID, entryID, reason string) error {
	query := `
		UPDATE completion_queue
		SET status = ?, attempts = attempts + 1, last_error = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		handoff.StatusFailed, reason, time.Now(), entryID, tenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark entry failed: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListPending returns queued entries oldest first
func (r *QueueRepository) ListPending(ctx context.Context, tenantID string, limit int) ([]handoff.Entry, error) {
	query := `
		SELECT id, tenant_id, session_id, user_id, status, attempts, last_error, created_at, updated_at
		FROM completion_queue
		WHERE tenant_id = ? AND status = ?
		ORDER BY created_at ASC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, handoff.StatusQueued, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue entries: %w", err)
	}
	defer rows.Close()

	var entries []handoff.Entry
	for rows.Next() {
		var entry handoff.Entry
		var lastError sql.NullString
		if err := rows.Scan(
			&entry.ID, &entry.TenantID, &entry.SessionID, &entry.UserID,
			&entry.Status, &entry.Attempts, &lastError,
			&entry.CreatedAt, &entry.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan queue entry: %w", err)
		}
		entry.LastError = lastError.String
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating queue entries: %w", err)
	}

	return entries, nil
}
