package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/startupai-hq/evidence-core/internal/domain/project"
	"github.com/startupai-hq/evidence-core/internal/domain/staleness"
	"github.com/startupai-hq/evidence-core/internal/repository"
)

// ProjectRepository implements project.ProjectRepository for SQLite
type ProjectRepository struct {
	db *DB
}

var _ project.ProjectRepository = (*ProjectRepository)(nil)

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create creates a project and seeds its staleness record as stale/hard in
// the same transaction: no narrative exists for a brand-new project.
func (r *ProjectRepository) Create(ctx context.Context, tenantID string, proj *project.Project) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertProject := `
		INSERT INTO projects (id, tenant_id, user_id, name, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, insertProject,
		proj.ID, tenantID, proj.UserID, proj.Name, proj.Description, proj.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	seedStaleness := `
		INSERT INTO project_staleness (project_id, tenant_id, is_stale, severity, reason, updated_at)
		VALUES (?, ?, 1, 'hard', 'no narrative generated yet', ?)
	`
	if _, err := tx.ExecContext(ctx, seedStaleness, proj.ID, tenantID, proj.CreatedAt); err != nil {
		return fmt.Errorf("failed to seed staleness record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, tenantID, id string) (*project.Project, error) {
	query := `
		SELECT id, tenant_id, user_id, name, description, created_at
		FROM projects
		WHERE id = ? AND tenant_id = ?
	`

	var proj project.Project
	var description sql.NullString
	err := r.db.QueryRowContext(ctx, query, id, tenantID).Scan(
		&proj.ID,
		&proj.TenantID,
		&proj.UserID,
		&proj.Name,
		&description,
		&proj.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	proj.Description = description.String

	return &proj, nil
}

// StalenessRepository implements staleness.StalenessRepository for SQLite
type StalenessRepository struct {
	db *DB
}

var _ staleness.StalenessRepository = (*StalenessRepository)(nil)

// NewStalenessRepository creates a new StalenessRepository
func NewStalenessRepository(db *DB) *StalenessRepository {
	return &StalenessRepository{db: db}
}

// Get retrieves the staleness record for a project
func (r *StalenessRepository) Get(ctx context.Context, tenantID, projectID string) (*staleness.Record, error) {
	query := `
		SELECT project_id, tenant_id, is_stale, severity, reason, generated_at, updated_at
		FROM project_staleness
		WHERE project_id = ? AND tenant_id = ?
	`

	var rec staleness.Record
	var generatedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, projectID, tenantID).Scan(
		&rec.ProjectID,
		&rec.TenantID,
		&rec.IsStale,
		&rec.Severity,
		&rec.Reason,
		&generatedAt,
		&rec.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get staleness record: %w", err)
	}
	if generatedAt.Valid {
		rec.GeneratedAt = &generatedAt.Time
	}

	return &rec, nil
}

// MarkStale flags the project stale and merges the severity in a single
// conditional update: a record already at hard stays hard, the reason always
// reflects the latest event. Applying the same events in any order converges
// to the same severity.
func (r *StalenessRepository) MarkStale(ctx context.Context, tenantID, projectID string, severity staleness.Severity, reason string) error {
	query := `
		UPDATE project_staleness
		SET is_stale = 1,
		    severity = CASE WHEN severity = 'hard' THEN 'hard' ELSE ? END,
		    reason = ?,
		    updated_at = ?
		WHERE project_id = ? AND tenant_id = ?
	`

	result, err := r.db.ExecContext(ctx, query, severity, reason, time.Now(), projectID, tenantID)
	if err != nil {
		return fmt.Errorf("failed to mark project stale: %w", err)
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
