package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/startupai-hq/evidence-core/internal/domain/narrative"
	"github.com/startupai-hq/evidence-core/internal/domain/staleness"
	"github.com/startupai-hq/evidence-core/internal/repository"
)

// NarrativeRepository implements narrative.NarrativeRepository for SQLite
type NarrativeRepository struct {
	db *DB
}

var _ narrative.NarrativeRepository = (*NarrativeRepository)(nil)

// NewNarrativeRepository creates a new NarrativeRepository
func NewNarrativeRepository(db *DB) *NarrativeRepository {
	return &NarrativeRepository{db: db}
}

const narrativeColumns = `id, tenant_id, project_id, content, content_hash, source_hash,
	is_edited, edit_history, alignment, generated_at, updated_at`

// GetByProject returns the live narrative for a project
func (r *NarrativeRepository) GetByProject(ctx context.Context, tenantID, projectID string) (*narrative.Narrative, error) {
	query := `SELECT ` + narrativeColumns + ` FROM narratives WHERE project_id = ? AND tenant_id = ?`
	return r.scanNarrative(r.db.QueryRowContext(ctx, query, projectID, tenantID))
}

// Get returns a narrative by ID
func (r *NarrativeRepository) Get(ctx context.Context, tenantID, id string) (*narrative.Narrative, error) {
	query := `SELECT ` + narrativeColumns + ` FROM narratives WHERE id = ? AND tenant_id = ?`
	return r.scanNarrative(r.db.QueryRowContext(ctx, query, id, tenantID))
}

func (r *NarrativeRepository) scanNarrative(row *sql.Row) (*narrative.Narrative, error) {
	var nar narrative.Narrative
	var content, editHistory, alignment string
	err := row.Scan(
		&nar.ID, &nar.TenantID, &nar.ProjectID, &content, &nar.ContentHash,
		&nar.SourceHash, &nar.IsEdited, &editHistory, &alignment,
		&nar.GeneratedAt, &nar.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get narrative: %w", err)
	}

	if err := json.Unmarshal([]byte(content), &nar.Content); err != nil {
		return nil, fmt.Errorf("failed to decode narrative content: %w", err)
	}
	if err := json.Unmarshal([]byte(editHistory), &nar.EditHistory); err != nil {
		return nil, fmt.Errorf("failed to decode edit history: %w", err)
	}
	if err := json.Unmarshal([]byte(alignment), &nar.Alignment); err != nil {
		return nil, fmt.Errorf("failed to decode alignment: %w", err)
	}

	return &nar, nil
}

// SaveGeneration persists a fresh generation in one transaction: the live
// narrative row, the next entry of the version chain, the export artifact,
// and the staleness clear all land together or not at all.
func (r *NarrativeRepository) SaveGeneration(ctx context.Context, tenantID string, nar *narrative.Narrative, ver *narrative.Version) error {
	content, editHistory, alignment, err := encodeNarrative(nar)
	if err != nil {
		return err
	}
	verContent, err := json.Marshal(ver.Content)
	if err != nil {
		return fmt.Errorf("failed to encode version content: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsert := `
		INSERT INTO narratives (id, tenant_id, project_id, content, content_hash, source_hash,
			is_edited, edit_history, alignment, generated_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			content = excluded.content,
			content_hash = excluded.content_hash,
			source_hash = excluded.source_hash,
			is_edited = excluded.is_edited,
			edit_history = excluded.edit_history,
			alignment = excluded.alignment,
			generated_at = excluded.generated_at,
			updated_at = excluded.updated_at
	`
	if _, err := tx.ExecContext(ctx, upsert,
		nar.ID, tenantID, nar.ProjectID, content, nar.ContentHash, nar.SourceHash,
		nar.IsEdited, editHistory, alignment, nar.GeneratedAt, nar.UpdatedAt,
	); err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to upsert narrative: %w", err)
	}

	insertVersion := `
		INSERT INTO narrative_versions (narrative_id, version, content, trigger_reason, fit_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, insertVersion,
		ver.NarrativeID, ver.Version, string(verContent), ver.Trigger, ver.FitScore, ver.CreatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to insert narrative version: %w", err)
	}

	insertExport := `
		INSERT INTO narrative_exports (id, narrative_id, version, source_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, insertExport,
		uuid.NewString(), ver.NarrativeID, ver.Version, nar.SourceHash, ver.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert narrative export: %w", err)
	}

	clearStaleness := `
		UPDATE project_staleness
		SET is_stale = 0, severity = ?, reason = '', generated_at = ?, updated_at = ?
		WHERE project_id = ? AND tenant_id = ?
	`
	if _, err := tx.ExecContext(ctx, clearStaleness,
		staleness.SeverityNone, nar.GeneratedAt, time.Now(), nar.ProjectID, tenantID,
	); err != nil {
		return fmt.Errorf("failed to clear staleness: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateEdited updates the live narrative after a founder edit. The version
// chain and staleness record are left untouched.
func (r *NarrativeRepository) UpdateEdited(ctx context.Context, tenantID string, nar *narrative.Narrative) error {
	content, editHistory, alignment, err := encodeNarrative(nar)
	if err != nil {
		return err
	}

	query := `
		UPDATE narratives
		SET content = ?, content_hash = ?, is_edited = ?, edit_history = ?, alignment = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		content, nar.ContentHash, nar.IsEdited, editHistory, alignment, nar.UpdatedAt,
		nar.ID, tenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update narrative: %w", err)
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

// GetVersion returns one entry of a narrative's version chain
func (r *NarrativeRepository) GetVersion(ctx context.Context, tenantID, narrativeID string, version int64) (*narrative.Version, error) {
	query := `
		SELECT v.narrative_id, v.version, v.content, v.trigger_reason, v.fit_score, v.created_at
		FROM narrative_versions v
		JOIN narratives n ON n.id = v.narrative_id
		WHERE v.narrative_id = ? AND v.version = ? AND n.tenant_id = ?
	`

	var ver narrative.Version
	var content string
	err := r.db.QueryRowContext(ctx, query, narrativeID, version, tenantID).Scan(
		&ver.NarrativeID, &ver.Version, &content, &ver.Trigger, &ver.FitScore, &ver.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get narrative version: %w", err)
	}
	if err := json.Unmarshal([]byte(content), &ver.Content); err != nil {
		return nil, fmt.Errorf("failed to decode version content: %w", err)
	}

	return &ver, nil
}

// MaxVersion returns the highest version number in a narrative's chain, or 0
// when the chain is empty
func (r *NarrativeRepository) MaxVersion(ctx context.Context, tenantID, narrativeID string) (int64, error) {
	query := `
		SELECT COALESCE(MAX(v.version), 0)
		FROM narrative_versions v
		JOIN narratives n ON n.id = v.narrative_id
		WHERE v.narrative_id = ? AND n.tenant_id = ?
	`

	var max int64
	if err := r.db.QueryRowContext(ctx, query, narrativeID, tenantID).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to get max version: %w", err)
	}
	return max, nil
}

func encodeNarrative(nar *narrative.Narrative) (content, editHistory, alignment string, err error) {
	c, err := json.Marshal(nar.Content)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode narrative content: %w", err)
	}
	h, err := json.Marshal(nar.EditHistory)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode edit history: %w", err)
	}
	a, err := json.Marshal(nar.Alignment)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode alignment: %w", err)
	}
	return string(c), string(h), string(a), nil
}
