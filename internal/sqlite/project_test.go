package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/startupai-hq/evidence-core/internal/domain/project"
	"github.com/startupai-hq/evidence-core/internal/domain/staleness"
	"github.com/startupai-hq/evidence-core/internal/repository"
)

func createTestProject(t *testing.T, db *DB, id string) {
	t.Helper()
	repo := NewProjectRepository(db)
	err := repo.Create(context.Background(), "tenant1", &project.Project{
		ID:        id,
		TenantID:  "tenant1",
		UserID:    "user1",
		Name:      "Test Project",
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
}

func TestProjectRepository_Create_SeedsStaleness(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	createTestProject(t, db, "p1")

	stale := NewStalenessRepository(db)
	rec, err := stale.Get(ctx, "tenant1", "p1")
	require.NoError(t, err)
	require.True(t, rec.IsStale)
	require.Equal(t, staleness.SeverityHard, rec.Severity)
	require.Equal(t, "no narrative generated yet", rec.Reason)
	require.Nil(t, rec.GeneratedAt)
}

func TestProjectRepository_Get_NotFound(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)

	_, err := repo.Get(context.Background(), "tenant1", "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProjectRepository_Get_TenantScoped(t *testing.T) {
	db := NewTestDB(t)
	createTestProject(t, db, "p1")

	repo := NewProjectRepository(db)
	_, err := repo.Get(context.Background(), "other-tenant", "p1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStalenessRepository_MarkStale_HardIsSticky(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	createTestProject(t, db, "p1")

	stale := NewStalenessRepository(db)

	// Seeded hard; a soft event must not downgrade the severity.
	err := stale.MarkStale(ctx, "tenant1", "p1", staleness.SeveritySoft, "new evidence added")
	require.NoError(t, err)

	rec, err := stale.Get(ctx, "tenant1", "p1")
	require.NoError(t, err)
	require.True(t, rec.IsStale)
	require.Equal(t, staleness.SeverityHard, rec.Severity)
	require.Equal(t, "new evidence added", rec.Reason, "reason reflects the latest event")
}

func TestStalenessRepository_MarkStale_SoftEscalatesToHard(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	createTestProject(t, db, "p1")

	// Simulate the post-generation state: cleared to none.
	_, err := db.ExecContext(ctx,
		`UPDATE project_staleness SET is_stale = 0, severity = 'none', reason = '' WHERE project_id = ?`, "p1")
	require.NoError(t, err)

	stale := NewStalenessRepository(db)

	require.NoError(t, stale.MarkStale(ctx, "tenant1", "p1", staleness.SeveritySoft, "hypothesis updated"))
	rec, err := stale.Get(ctx, "tenant1", "p1")
	require.NoError(t, err)
	require.Equal(t, staleness.SeveritySoft, rec.Severity)

	require.NoError(t, stale.MarkStale(ctx, "tenant1", "p1", staleness.SeverityHard, "hypothesis status changed: draft -> validated"))
	rec, err = stale.Get(ctx, "tenant1", "p1")
	require.NoError(t, err)
	require.Equal(t, staleness.SeverityHard, rec.Severity)
}

func TestStalenessRepository_MarkStale_OrderIndependentSeverity(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	createTestProject(t, db, "p1")
	createTestProject(t, db, "p2")

	stale := NewStalenessRepository(db)

	reset := func(projectID string) {
		_, err := db.ExecContext(ctx,
			`UPDATE project_staleness SET is_stale = 0, severity = 'none', reason = '' WHERE project_id = ?`, projectID)
		require.NoError(t, err)
	}
	reset("p1")
	reset("p2")

	// soft then hard
	require.NoError(t, stale.MarkStale(ctx, "tenant1", "p1", staleness.SeveritySoft, "a"))
	require.NoError(t, stale.MarkStale(ctx, "tenant1", "p1", staleness.SeverityHard, "b"))

	// hard then soft
	require.NoError(t, stale.MarkStale(ctx, "tenant1", "p2", staleness.SeverityHard, "a"))
	require.NoError(t, stale.MarkStale(ctx, "tenant1", "p2", staleness.SeveritySoft, "b"))

	rec1, err := stale.Get(ctx, "tenant1", "p1")
	require.NoError(t, err)
	rec2, err := stale.Get(ctx, "tenant1", "p2")
	require.NoError(t, err)

	require.Equal(t, staleness.SeverityHard, rec1.Severity)
	require.Equal(t, staleness.SeverityHard, rec2.Severity)
	require.Equal(t, "b", rec1.Reason)
	require.Equal(t, "b", rec2.Reason)
}

func TestStalenessRepository_MarkStale_MissingRecord(t *testing.T) {
	db := NewTestDB(t)
	stale := NewStalenessRepository(db)

	err := stale.MarkStale(context.Background(), "tenant1", "missing", staleness.SeveritySoft, "x")
	require.ErrorIs(t, err, repository.ErrNotFound)
}
