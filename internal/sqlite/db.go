package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema.
func (db *DB) RunMigrations() error {
	migration := `
-- Projects table
CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_tenant_projects ON projects(tenant_id);

-- Per-project staleness record. Seeded stale/hard at project creation:
-- no narrative exists yet.
CREATE TABLE IF NOT EXISTS project_staleness (
    project_id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    is_stale INTEGER NOT NULL DEFAULT 1,
    severity TEXT NOT NULL CHECK(severity IN ('none', 'soft', 'hard')),
    reason TEXT NOT NULL DEFAULT '',
    generated_at TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (project_id) REFERENCES projects(id)
);
CREATE INDEX IF NOT EXISTS idx_tenant_staleness ON project_staleness(tenant_id);

-- Onboarding sessions
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    project_id TEXT NOT NULL,
    stage TEXT NOT NULL,
    stage_progress INTEGER NOT NULL DEFAULT 0,
    overall_progress INTEGER NOT NULL DEFAULT 0,
    version INTEGER NOT NULL DEFAULT 0,
    message_count INTEGER NOT NULL DEFAULT 0,
    completed INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    completed_at TIMESTAMP,
    FOREIGN KEY (project_id) REFERENCES projects(id)
);
CREATE INDEX IF NOT EXISTS idx_tenant_sessions ON sessions(tenant_id);
CREATE INDEX IF NOT EXISTS idx_project_sessions ON sessions(project_id);

-- Committed turns: idempotency keys plus the committed snapshot so a
-- duplicate submission replays the original values.
CREATE TABLE IF NOT EXISTS session_turns (
    session_id TEXT NOT NULL,
    message_id TEXT NOT NULL,
    user_content TEXT NOT NULL,
    user_at TIMESTAMP NOT NULL,
    assistant_content TEXT NOT NULL,
    assistant_at TIMESTAMP NOT NULL,
    committed_version INTEGER NOT NULL,
    stage TEXT NOT NULL,
    stage_progress INTEGER NOT NULL,
    overall_progress INTEGER NOT NULL,
    stage_advanced INTEGER NOT NULL,
    completed INTEGER NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (session_id, message_id),
    FOREIGN KEY (session_id) REFERENCES sessions(id)
);

-- Append-only message history
CREATE TABLE IF NOT EXISTS session_messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    message_id TEXT NOT NULL,
    role TEXT NOT NULL CHECK(role IN ('user', 'assistant')),
    content TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    FOREIGN KEY (session_id) REFERENCES sessions(id)
);
CREATE INDEX IF NOT EXISTS idx_session_messages ON session_messages(session_id);

-- Watched source tables (evidence surface)
CREATE TABLE IF NOT EXISTS evidence (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    project_id TEXT NOT NULL,
    type TEXT NOT NULL,
    strength TEXT,
    quality_score REAL NOT NULL DEFAULT 0,
    summary TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (project_id) REFERENCES projects(id)
);
CREATE INDEX IF NOT EXISTS idx_project_evidence ON evidence(project_id);

CREATE TABLE IF NOT EXISTS hypotheses (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    project_id TEXT NOT NULL UNIQUE,
    statement TEXT NOT NULL,
    status TEXT NOT NULL CHECK(status IN ('draft', 'testing', 'validated', 'invalidated')),
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (project_id) REFERENCES projects(id)
);

CREATE TABLE IF NOT EXISTS validation_runs (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    project_id TEXT NOT NULL,
    hypothesis_id TEXT,
    gate TEXT NOT NULL CHECK(gate IN ('desirability', 'feasibility', 'viability', 'scale')),
    status TEXT NOT NULL CHECK(status IN ('pending', 'passed', 'failed')),
    readiness_score REAL NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (project_id) REFERENCES projects(id)
);
CREATE INDEX IF NOT EXISTS idx_project_runs ON validation_runs(project_id);

CREATE TABLE IF NOT EXISTS canvases (
    project_id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    fields TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (project_id) REFERENCES projects(id)
);

CREATE TABLE IF NOT EXISTS profiles (
    project_id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    fields TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (project_id) REFERENCES projects(id)
);

-- Live narratives (one per project) and their append-only version chains
CREATE TABLE IF NOT EXISTS narratives (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    project_id TEXT NOT NULL UNIQUE,
    content TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    source_hash TEXT NOT NULL,
    is_edited INTEGER NOT NULL DEFAULT 0,
    edit_history TEXT NOT NULL DEFAULT '[]',
    alignment TEXT NOT NULL DEFAULT '{}',
    generated_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    FOREIGN KEY (project_id) REFERENCES projects(id)
);

CREATE TABLE IF NOT EXISTS narrative_versions (
    narrative_id TEXT NOT NULL,
    version INTEGER NOT NULL,
    content TEXT NOT NULL,
    trigger_reason TEXT NOT NULL CHECK(trigger_reason IN ('initial_generation', 'regeneration')),
    fit_score REAL NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (narrative_id, version),
    FOREIGN KEY (narrative_id) REFERENCES narratives(id)
);

-- Evidence-package export artifacts written alongside each generation
CREATE TABLE IF NOT EXISTS narrative_exports (
    id TEXT PRIMARY KEY,
    narrative_id TEXT NOT NULL,
    version INTEGER NOT NULL,
    source_hash TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    FOREIGN KEY (narrative_id) REFERENCES narratives(id)
);

-- Completion handoff queue, consumed by an out-of-process worker
CREATE TABLE IF NOT EXISTS completion_queue (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    session_id TEXT NOT NULL UNIQUE,
    user_id TEXT NOT NULL,
    status TEXT NOT NULL CHECK(status IN ('queued', 'processing', 'failed', 'done')),
    attempts INTEGER NOT NULL DEFAULT 0,
    last_error TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (session_id) REFERENCES sessions(id)
);
CREATE INDEX IF NOT EXISTS idx_queue_status ON completion_queue(status);

-- API keys for authentication
CREATE TABLE IF NOT EXISTS api_keys (
    key_hash TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    last_used TIMESTAMP,
    description TEXT
);
CREATE INDEX IF NOT EXISTS idx_tenant_keys ON api_keys(tenant_id);
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
