package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/startupai-hq/evidence-core/internal/domain/session"
	"github.com/startupai-hq/evidence-core/internal/repository"
)

// SessionRepository implements session.SessionRepository for SQLite
type SessionRepository struct {
	db *DB
}

var _ session.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create creates a new session
func (r *SessionRepository) Create(ctx context.Context, tenantID string, sess *session.Session) error {
	query := `
		INSERT INTO sessions (
			id, tenant_id, user_id, project_id, stage, stage_progress,
			overall_progress, version, message_count, completed,
			created_at, updated_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		sess.ID,
		tenantID,
		sess.UserID,
		sess.ProjectID,
		sess.Stage,
		sess.StageProgress,
		sess.OverallProgress,
		sess.Version,
		sess.MessageCount,
		sess.Completed,
		sess.CreatedAt,
		sess.UpdatedAt,
		sess.CompletedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// Get retrieves a session by ID
func (r *SessionRepository) Get(ctx context.Context, tenantID, id string) (*session.Session, error) {
	query := `
		SELECT
			id, tenant_id, user_id, project_id, stage, stage_progress,
			overall_progress, version, message_count, completed,
			created_at, updated_at, completed_at
		FROM sessions
		WHERE id = ? AND tenant_id = ?
	`

	var sess session.Session
	var completedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id, tenantID).Scan(
		&sess.ID,
		&sess.TenantID,
		&sess.UserID,
		&sess.ProjectID,
		&sess.Stage,
		&sess.StageProgress,
		&sess.OverallProgress,
		&sess.Version,
		&sess.MessageCount,
		&sess.Completed,
		&sess.CreatedAt,
		&sess.UpdatedAt,
		&completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if completedAt.Valid {
		sess.CompletedAt = &completedAt.Time
	}

	return &sess, nil
}

// GetTurn retrieves a committed turn by its idempotency key
func (r *SessionRepository) GetTurn(ctx context.Context, tenantID, sessionID, messageID string) (*session.Turn, error) {
	query := `
		SELECT
			t.session_id, t.message_id, t.user_content, t.user_at,
			t.assistant_content, t.assistant_at, t.committed_version,
			t.stage, t.stage_progress, t.overall_progress,
			t.stage_advanced, t.completed, t.created_at
		FROM session_turns t
		JOIN sessions s ON s.id = t.session_id
		WHERE t.session_id = ? AND t.message_id = ? AND s.tenant_id = ?
	`

	var turn session.Turn
	err := r.db.QueryRowContext(ctx, query, sessionID, messageID, tenantID).Scan(
		&turn.SessionID,
		&turn.MessageID,
		&turn.UserMessage.Content,
		&turn.UserMessage.Timestamp,
		&turn.AssistantMessage.Content,
		&turn.AssistantMessage.Timestamp,
		&turn.CommittedVersion,
		&turn.Stage,
		&turn.StageProgress,
		&turn.OverallProgress,
		&turn.StageAdvanced,
		&turn.Completed,
		&turn.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get turn: %w", err)
	}
	turn.UserMessage.Role = "user"
	turn.AssistantMessage.Role = "assistant"

	return &turn, nil
}

// CommitTurn appends the message pair, stores the turn snapshot, and bumps
// the session version in one transaction. The version bump is a conditional
// update on the expected version: zero affected rows means a concurrent
// writer won, and the whole transaction rolls back.
func (r *SessionRepository) CommitTurn(ctx context.Context, tenantID string, turn *session.Turn, expectedVersion int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertTurn := `
		INSERT INTO session_turns (
			session_id, message_id, user_content, user_at,
			assistant_content, assistant_at, committed_version,
			stage, stage_progress, overall_progress,
			stage_advanced, completed, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, insertTurn,
		turn.SessionID,
		turn.MessageID,
		turn.UserMessage.Content,
		turn.UserMessage.Timestamp,
		turn.AssistantMessage.Content,
		turn.AssistantMessage.Timestamp,
		turn.CommittedVersion,
		turn.Stage,
		turn.StageProgress,
		turn.OverallProgress,
		turn.StageAdvanced,
		turn.Completed,
		turn.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to insert turn: %w", err)
	}

	insertMessage := `
		INSERT INTO session_messages (session_id, message_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	for _, msg := range []session.Message{turn.UserMessage, turn.AssistantMessage} {
		if _, err := tx.ExecContext(ctx, insertMessage,
			turn.SessionID, turn.MessageID, msg.Role, msg.Content, msg.Timestamp,
		); err != nil {
			return fmt.Errorf("failed to append message: %w", err)
		}
	}

	updateSession := `
		UPDATE sessions
		SET stage = ?, stage_progress = ?, overall_progress = ?,
		    version = version + 1, message_count = message_count + 2,
		    completed = ?, updated_at = ?,
		    completed_at = CASE WHEN ? AND completed_at IS NULL THEN ? ELSE completed_at END
		WHERE id = ? AND tenant_id = ? AND version = ?
	`
	result, err := tx.ExecContext(ctx, updateSession,
		turn.Stage,
		turn.StageProgress,
		turn.OverallProgress,
		turn.Completed,
		turn.CreatedAt,
		turn.Completed,
		turn.CreatedAt,
		turn.SessionID,
		tenantID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrConflict
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListMessages returns the append-only history for a session, oldest first
func (r *SessionRepository) ListMessages(ctx context.Context, tenantID, sessionID string) ([]session.Message, error) {
	query := `
		SELECT m.role, m.content, m.created_at
		FROM session_messages m
		JOIN sessions s ON s.id = m.session_id
		WHERE m.session_id = ? AND s.tenant_id = ?
		ORDER BY m.id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []session.Message
	for rows.Next() {
		var msg session.Message
		if err := rows.Scan(&msg.Role, &msg.Content, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}
