package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/startupai-hq/evidence-core/internal/domain/evidence"
	"github.com/startupai-hq/evidence-core/internal/repository"
)

// EvidenceRepository implements evidence.EvidenceRepository for SQLite
type EvidenceRepository struct {
	db *DB
}

var _ evidence.EvidenceRepository = (*EvidenceRepository)(nil)

// NewEvidenceRepository creates a new EvidenceRepository
func NewEvidenceRepository(db *DB) *EvidenceRepository {
	return &EvidenceRepository{db: db}
}

// CreateEvidence inserts an evidence item
func (r *EvidenceRepository) CreateEvidence(ctx context.Context, tenantID string, ev *evidence.Evidence) error {
	query := `
		INSERT INTO evidence (id, tenant_id, project_id, type, strength, quality_score, summary, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		ev.ID, tenantID, ev.ProjectID, ev.Type, ev.Strength,
		ev.QualityScore, ev.Summary, ev.CreatedAt, ev.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to create evidence: %w", err)
	}
	return nil
}

// GetEvidence returns an evidence item by ID
func (r *EvidenceRepository) GetEvidence(ctx context.Context, tenantID, id string) (*evidence.Evidence, error) {
	query := `
		SELECT id, tenant_id, project_id, type, strength, quality_score, summary, created_at, updated_at
		FROM evidence
		WHERE id = ? AND tenant_id = ?
	`

	var ev evidence.Evidence
	var strength, summary sql.NullString
	err := r.db.QueryRowContext(ctx, query, id, tenantID).Scan(
		&ev.ID, &ev.TenantID, &ev.ProjectID, &ev.Type, &strength,
		&ev.QualityScore, &summary, &ev.CreatedAt, &ev.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get evidence: %w", err)
	}
	ev.Strength = strength.String
	ev.Summary = summary.String

	return &ev, nil
}

// UpdateEvidence modifies an evidence item
func (r *EvidenceRepository) UpdateEvidence(ctx context.Context, tenantID string, ev *evidence.Evidence) error {
	query := `
		UPDATE evidence
		SET type = ?, strength = ?, quality_score = ?, summary = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		ev.Type, ev.Strength, ev.QualityScore, ev.Summary, ev.UpdatedAt, ev.ID, tenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update evidence: %w", err)
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

// ListEvidence returns all evidence items for a project, oldest first
func (r *EvidenceRepository) ListEvidence(ctx context.Context, tenantID, projectID string) ([]evidence.Evidence, error) {
	query := `
		SELECT id, tenant_id, project_id, type, strength, quality_score, summary, created_at, updated_at
		FROM evidence
		WHERE project_id = ? AND tenant_id = ?
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, projectID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list evidence: %w", err)
	}
	defer rows.Close()

	var items []evidence.Evidence
	for rows.Next() {
		var ev evidence.Evidence
		var strength, summary sql.NullString
		if err := rows.Scan(
			&ev.ID, &ev.TenantID, &ev.ProjectID, &ev.Type, &strength,
			&ev.QualityScore, &summary, &ev.CreatedAt, &ev.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan evidence: %w", err)
		}
		ev.Strength = strength.String
		ev.Summary = summary.String
		items = append(items, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating evidence: %w", err)
	}

	return items, nil
}

// UpsertHypothesis inserts or replaces the project hypothesis
func (r *EvidenceRepository) UpsertHypothesis(ctx context.Context, tenantID string, hyp *evidence.Hypothesis) error {
	query := `
		INSERT INTO hypotheses (id, tenant_id, project_id, statement, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			statement = excluded.statement,
			status = excluded.status,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		hyp.ID, tenantID, hyp.ProjectID, hyp.Statement, hyp.Status, hyp.CreatedAt, hyp.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to upsert hypothesis: %w", err)
	}
	return nil
}

// GetHypothesis returns the hypothesis for a project
func (r *EvidenceRepository) GetHypothesis(ctx context.Context, tenantID, projectID string) (*evidence.Hypothesis, error) {
	query := `
		SELECT id, tenant_id, project_id, statement, status, created_at, updated_at
		FROM hypotheses
		WHERE project_id = ? AND tenant_id = ?
	`

	var hyp evidence.Hypothesis
	err := r.db.QueryRowContext(ctx, query, projectID, tenantID).Scan(
		&hyp.ID, &hyp.TenantID, &hyp.ProjectID, &hyp.Statement,
		&hyp.Status, &hyp.CreatedAt, &hyp.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hypothesis: %w", err)
	}

	return &hyp, nil
}

// UpsertValidationRun inserts or replaces a validation run
func (r *EvidenceRepository) UpsertValidationRun(ctx context.Context, tenantID string, run *evidence.ValidationRun) error {
	query := `
		INSERT INTO validation_runs (id, tenant_id, project_id, hypothesis_id, gate, status, readiness_score, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			gate = excluded.gate,
			status = excluded.status,
			readiness_score = excluded.readiness_score,
			updated_at = excluded.updated_at
	`
	hypothesisID := sql.NullString{String: run.HypothesisID, Valid: run.HypothesisID != ""}
	_, err := r.db.ExecContext(ctx, query,
		run.ID, tenantID, run.ProjectID, hypothesisID, run.Gate,
		run.Status, run.ReadinessScore, run.CreatedAt, run.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to upsert validation run: %w", err)
	}
	return nil
}

// GetValidationRun returns a validation run by ID
func (r *EvidenceRepository) GetValidationRun(ctx context.Context, tenantID, id string) (*evidence.ValidationRun, error) {
	query := `
		SELECT id, tenant_id, project_id, hypothesis_id, gate, status, readiness_score, created_at, updated_at
		FROM validation_runs
		WHERE id = ? AND tenant_id = ?
	`

	var run evidence.ValidationRun
	var hypothesisID sql.NullString
	err := r.db.QueryRowContext(ctx, query, id, tenantID).Scan(
		&run.ID, &run.TenantID, &run.ProjectID, &hypothesisID,
		&run.Gate, &run.Status, &run.ReadinessScore, &run.CreatedAt, &run.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get validation run: %w", err)
	}
	run.HypothesisID = hypothesisID.String

	return &run, nil
}

// ListValidationRuns returns all validation runs for a project
func (r *EvidenceRepository) ListValidationRuns(ctx context.Context, tenantID, projectID string) ([]evidence.ValidationRun, error) {
	query := `
		SELECT id, tenant_id, project_id, hypothesis_id, gate, status, readiness_score, created_at, updated_at
		FROM validation_runs
		WHERE project_id = ? AND tenant_id = ?
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, projectID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list validation runs: %w", err)
	}
	defer rows.Close()

	var runs []evidence.ValidationRun
	for rows.Next() {
		var run evidence.ValidationRun
		var hypothesisID sql.NullString
		if err := rows.Scan(
			&run.ID, &run.TenantID, &run.ProjectID, &hypothesisID,
			&run.Gate, &run.Status, &run.ReadinessScore, &run.CreatedAt, &run.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan validation run: %w", err)
		}
		run.HypothesisID = hypothesisID.String
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating validation runs: %w", err)
	}

	return runs, nil
}

// UpsertCanvas inserts or replaces the project canvas
func (r *EvidenceRepository) UpsertCanvas(ctx context.Context, tenantID string, canvas *evidence.Canvas) error {
	fields, err := json.Marshal(canvas.Fields)
	if err != nil {
		return fmt.Errorf("failed to encode canvas fields: %w", err)
	}

	query := `
		INSERT INTO canvases (project_id, tenant_id, fields, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			fields = excluded.fields,
			updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, canvas.ProjectID, tenantID, string(fields), canvas.UpdatedAt); err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to upsert canvas: %w", err)
	}
	return nil
}

// GetCanvas returns the canvas for a project
func (r *EvidenceRepository) GetCanvas(ctx context.Context, tenantID, projectID string) (*evidence.Canvas, error) {
	query := `
		SELECT project_id, tenant_id, fields, updated_at
		FROM canvases
		WHERE project_id = ? AND tenant_id = ?
	`

	var canvas evidence.Canvas
	var fields string
	err := r.db.QueryRowContext(ctx, query, projectID, tenantID).Scan(
		&canvas.ProjectID, &canvas.TenantID, &fields, &canvas.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get canvas: %w", err)
	}
	if err := json.Unmarshal([]byte(fields), &canvas.Fields); err != nil {
		return nil, fmt.Errorf("failed to decode canvas fields: %w", err)
	}

	return &canvas, nil
}

// UpsertProfile inserts or replaces the project profile
func (r *EvidenceRepository) UpsertProfile(ctx context.Context, tenantID string, profile *evidence.Profile) error {
	fields, err := json.Marshal(profile.Fields)
	if err != nil {
		return fmt.Errorf("failed to encode profile fields: %w", err)
	}

	query := `
		INSERT INTO profiles (project_id, tenant_id, fields, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			fields = excluded.fields,
			updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, profile.ProjectID, tenantID, string(fields), profile.UpdatedAt); err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// GetProfile returns the profile for a project
func (r *EvidenceRepository) GetProfile(ctx context.Context, tenantID, projectID string) (*evidence.Profile, error) {
	query := `
		SELECT project_id, tenant_id, fields, updated_at
		FROM profiles
		WHERE project_id = ? AND tenant_id = ?
	`

	var profile evidence.Profile
	var fields string
	err := r.db.QueryRowContext(ctx, query, projectID, tenantID).Scan(
		&profile.ProjectID, &profile.TenantID, &fields, &profile.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if err := json.Unmarshal([]byte(fields), &profile.Fields); err != nil {
		return nil, fmt.Errorf("failed to decode profile fields: %w", err)
	}

	return &profile, nil
}
