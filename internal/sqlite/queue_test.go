package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/startupai-hq/evidence-core/internal/domain/handoff"
	"github.com/startupai-hq/evidence-core/internal/repository"
)

func completeTestSession(t *testing.T, db *DB, sessionID string) {
	t.Helper()
	_, err := db.ExecContext(context.Background(),
		`UPDATE sessions SET completed = 1, completed_at = ? WHERE id = ?`, time.Now(), sessionID)
	require.NoError(t, err)
}

func TestQueueRepository_Enqueue_Queued(t *testing.T) {
	db := NewTestDB(t)
	repo := NewQueueRepository(db)
	ctx := context.Background()
	createTestSession(t, db, "s1")
	completeTestSession(t, db, "s1")

	status, err := repo.Enqueue(ctx, "tenant1", "s1", "user1")
	require.NoError(t, err)
	require.Equal(t, handoff.EnqueueQueued, status)

	pending, err := repo.ListPending(ctx, "tenant1", 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "s1", pending[0].SessionID)
	require.Equal(t, handoff.StatusQueued, pending[0].Status)
}

func TestQueueRepository_Enqueue_AlreadyCompleted(t *testing.T) {
	db := NewTestDB(t)
	repo := NewQueueRepository(db)
	ctx := context.Background()
	createTestSession(t, db, "s1")
	completeTestSession(t, db, "s1")

	_, err := repo.Enqueue(ctx, "tenant1", "s1", "user1")
	require.NoError(t, err)

	status, err := repo.Enqueue(ctx, "tenant1", "s1", "user1")
	require.NoError(t, err)
	require.Equal(t, handoff.EnqueueAlreadyCompleted, status)

	pending, err := repo.ListPending(ctx, "tenant1", 10)
	require.NoError(t, err)
	require.Len(t, pending, 1, "a completed session never holds two live entries")
}

func TestQueueRepository_Enqueue_RequeuesFailedEntry(t *testing.T) {
	db := NewTestDB(t)
	repo := NewQueueRepository(db)
	ctx := context.Background()
	createTestSession(t, db, "s1")
	completeTestSession(t, db, "s1")

	_, err := repo.Enqueue(ctx, "tenant1", "s1", "user1")
	require.NoError(t, err)

	pending, err := repo.ListPending(ctx, "tenant1", 10)
	require.NoError(t, err)
	require.NoError(t, repo.MarkFailed(ctx, "tenant1", pending[0].ID, "worker crashed"))

	status, err := repo.Enqueue(ctx, "tenant1", "s1", "user1")
	require.NoError(t, err)
	require.Equal(t, handoff.EnqueueRequeued, status)

	pending, err = repo.ListPending(ctx, "tenant1", 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, handoff.StatusQueued, pending[0].Status)
	require.Empty(t, pending[0].LastError)
	require.Equal(t, 1, pending[0].Attempts, "attempts survive the requeue")
}

func TestQueueRepository_Enqueue_ReclaimsStaleProcessingEntry(t *testing.T) {
	db := NewTestDB(t)
	repo := NewQueueRepository(db)
	ctx := context.Background()
	createTestSession(t, db, "s1")
	completeTestSession(t, db, "s1")

	_, err := repo.Enqueue(ctx, "tenant1", "s1", "user1")
	require.NoError(t, err)

	// A worker claimed the entry and died; its claim is older than the
	// reclaim threshold.
	abandoned := time.Now().Add(-staleClaimAge - time.Minute)
	_, err = db.ExecContext(ctx,
		`UPDATE completion_queue SET status = 'processing', updated_at = ? WHERE session_id = ?`,
		abandoned, "s1")
	require.NoError(t, err)

	status, err := repo.Enqueue(ctx, "tenant1", "s1", "user1")
	require.NoError(t, err)
	require.Equal(t, handoff.EnqueueRequeued, status)
}

func TestQueueRepository_Enqueue_FreshProcessingEntryStaysClaimed(t *testing.T) {
	db := NewTestDB(t)
	repo := NewQueueRepository(db)
	ctx := context.Background()
	createTestSession(t, db, "s1")
	completeTestSession(t, db, "s1")

	_, err := repo.Enqueue(ctx, "tenant1", "s1", "user1")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx,
		`UPDATE completion_queue SET status = 'processing', updated_at = ? WHERE session_id = ?`,
		time.Now(), "s1")
	require.NoError(t, err)

	status, err := repo.Enqueue(ctx, "tenant1", "s1", "user1")
	require.NoError(t, err)
	require.Equal(t, handoff.EnqueueAlreadyCompleted, status)
}

func TestQueueRepository_Enqueue_SessionNotCompleted(t *testing.T) {
	db := NewTestDB(t)
	repo := NewQueueRepository(db)
	createTestSession(t, db, "s1")

	_, err := repo.Enqueue(context.Background(), "tenant1", "s1", "user1")
	require.ErrorIs(t, err, handoff.ErrNotCompleted)
}

func TestQueueRepository_Enqueue_SessionNotFound(t *testing.T) {
	db := NewTestDB(t)
	repo := NewQueueRepository(db)

	_, err := repo.Enqueue(context.Background(), "tenant1", "missing", "user1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}
