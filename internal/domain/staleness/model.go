package staleness

import "time"

// Severity indicates how urgently a project's narrative needs regeneration.
type Severity string

const (
	SeverityNone Severity = "none"
	SeveritySoft Severity = "soft"
	SeverityHard Severity = "hard"
)

// Source identifies a watched source-of-truth table.
type Source string

const (
	SourceEvidence      Source = "evidence"
	SourceHypothesis    Source = "hypothesis"
	SourceValidationRun Source = "validation_run"
	SourceCanvas        Source = "canvas"
	SourceProfile       Source = "profile"
)

// ChangeKind distinguishes inserts from updates on a watched table.
type ChangeKind string

const (
	KindInsert ChangeKind = "insert"
	KindUpdate ChangeKind = "update"
)

// ChangeEvent describes a single write to a watched source table. Old is nil
// for inserts. Field maps are loosely typed because the watched tables are
// versioned independently of this package.
type ChangeEvent struct {
	Source    Source
	Kind      ChangeKind
	ProjectID string
	Old       map[string]any
	New       map[string]any
}

// Record is the per-project staleness row consumed by the narrative pipeline
// and polled by dashboards.
type Record struct {
	ProjectID   string     `json:"project_id"`
	TenantID    string     `json:"tenant_id"`
	IsStale     bool       `json:"is_stale"`
	Severity    Severity   `json:"severity"`
	Reason      string     `json:"reason"`
	GeneratedAt *time.Time `json:"generated_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Merge applies the never-downgrade rule: once hard, a staleness episode
// stays hard until the next successful generation clears it.
func Merge(current, incoming Severity) Severity {
	if current == SeverityHard {
		return SeverityHard
	}
	return incoming
}
