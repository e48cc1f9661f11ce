package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/startupai-hq/evidence-core/internal/domain/narrative"
	"github.com/startupai-hq/evidence-core/internal/domain/staleness"
	"github.com/startupai-hq/evidence-core/internal/repository"
)

func testNarrative(id, projectID string) *narrative.Narrative {
	now := time.Now()
	return &narrative.Narrative{
		ID:          id,
		TenantID:    "tenant1",
		ProjectID:   projectID,
		Content:     map[string]any{"executive_summary": "a summary"},
		ContentHash: "hash1",
		SourceHash:  "src1",
		Alignment:   narrative.AlignmentResult{Status: narrative.AlignmentAligned, CheckedAt: now},
		GeneratedAt: now,
		UpdatedAt:   now,
	}
}

func testVersion(narrativeID string, v int64, trigger narrative.TriggerReason) *narrative.Version {
	return &narrative.Version{
		NarrativeID: narrativeID,
		Version:     v,
		Content:     map[string]any{"executive_summary": "a summary"},
		Trigger:     trigger,
		FitScore:    0.5,
		CreatedAt:   time.Now(),
	}
}

func TestNarrativeRepository_SaveGeneration_ClearsStaleness(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	createTestProject(t, db, "p1")

	repo := NewNarrativeRepository(db)
	err := repo.SaveGeneration(ctx, "tenant1", testNarrative("n1", "p1"), testVersion("n1", 1, narrative.TriggerInitial))
	require.NoError(t, err)

	stale := NewStalenessRepository(db)
	rec, err := stale.Get(ctx, "tenant1", "p1")
	require.NoError(t, err)
	require.False(t, rec.IsStale)
	require.Equal(t, staleness.SeverityNone, rec.Severity)
	require.Empty(t, rec.Reason)
	require.NotNil(t, rec.GeneratedAt)
}

func TestNarrativeRepository_SaveGeneration_AppendOnlyChain(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	createTestProject(t, db, "p1")

	repo := NewNarrativeRepository(db)
	nar := testNarrative("n1", "p1")
	require.NoError(t, repo.SaveGeneration(ctx, "tenant1", nar, testVersion("n1", 1, narrative.TriggerInitial)))

	nar.Content = map[string]any{"executive_summary": "revised"}
	nar.ContentHash = "hash2"
	require.NoError(t, repo.SaveGeneration(ctx, "tenant1", nar, testVersion("n1", 2, narrative.TriggerRegeneration)))

	maxVer, err := repo.MaxVersion(ctx, "tenant1", "n1")
	require.NoError(t, err)
	require.Equal(t, int64(2), maxVer)

	v1, err := repo.GetVersion(ctx, "tenant1", "n1", 1)
	require.NoError(t, err)
	require.Equal(t, narrative.TriggerInitial, v1.Trigger)
	require.Equal(t, "a summary", v1.Content["executive_summary"])

	v2, err := repo.GetVersion(ctx, "tenant1", "n1", 2)
	require.NoError(t, err)
	require.Equal(t, narrative.TriggerRegeneration, v2.Trigger)

	// Re-inserting an existing version number must be rejected.
	err = repo.SaveGeneration(ctx, "tenant1", nar, testVersion("n1", 2, narrative.TriggerRegeneration))
	require.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestNarrativeRepository_SaveGeneration_WritesExportArtifact(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	createTestProject(t, db, "p1")

	repo := NewNarrativeRepository(db)
	require.NoError(t, repo.SaveGeneration(ctx, "tenant1", testNarrative("n1", "p1"), testVersion("n1", 1, narrative.TriggerInitial)))

	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM narrative_exports WHERE narrative_id = ? AND version = 1`, "n1").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestNarrativeRepository_GetVersion_NotFound(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	createTestProject(t, db, "p1")

	repo := NewNarrativeRepository(db)
	require.NoError(t, repo.SaveGeneration(ctx, "tenant1", testNarrative("n1", "p1"), testVersion("n1", 1, narrative.TriggerInitial)))

	_, err := repo.GetVersion(ctx, "tenant1", "n1", 7)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestNarrativeRepository_UpdateEdited_PreservesChainAndStaleness(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	createTestProject(t, db, "p1")

	repo := NewNarrativeRepository(db)
	nar := testNarrative("n1", "p1")
	require.NoError(t, repo.SaveGeneration(ctx, "tenant1", nar, testVersion("n1", 1, narrative.TriggerInitial)))

	nar.Content["executive_summary"] = "founder's words"
	nar.IsEdited = true
	nar.EditHistory = []narrative.Edit{{
		Field:  "executive_summary",
		Value:  "founder's words",
		Source: narrative.SourceFounder,
		At:     time.Now(),
	}}
	require.NoError(t, repo.UpdateEdited(ctx, "tenant1", nar))

	got, err := repo.Get(ctx, "tenant1", "n1")
	require.NoError(t, err)
	require.True(t, got.IsEdited)
	require.Len(t, got.EditHistory, 1)
	require.Equal(t, narrative.SourceFounder, got.EditHistory[0].Source)
	require.Equal(t, "founder's words", got.Content["executive_summary"])

	maxVer, err := repo.MaxVersion(ctx, "tenant1", "n1")
	require.NoError(t, err)
	require.Equal(t, int64(1), maxVer, "edits never append to the version chain")

	stale := NewStalenessRepository(db)
	rec, err := stale.Get(ctx, "tenant1", "p1")
	require.NoError(t, err)
	require.False(t, rec.IsStale, "edits never touch staleness")
}

func TestNarrativeRepository_GetByProject_NotFound(t *testing.T) {
	db := NewTestDB(t)
	createTestProject(t, db, "p1")

	repo := NewNarrativeRepository(db)
	_, err := repo.GetByProject(context.Background(), "tenant1", "p1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}
