package narrative

import (
	"time"

	"github.com/startupai-hq/evidence-core/internal/domain/evidence"
)

// EditSource tells founder edits apart from generated values.
type EditSource string

const (
	SourceFounder    EditSource = "founder"
	SourceGeneration EditSource = "generation"
)

// Edit is one entry of the ordered edit history: a dotted field path, the
// value written there, and who wrote it.
type Edit struct {
	Field  string     `json:"field"`
	Value  any        `json:"value"`
	Source EditSource `json:"source"`
	At     time.Time  `json:"at"`
}

// TriggerReason tags a narrative version with why it was built.
type TriggerReason string

const (
	TriggerInitial      TriggerReason = "initial_generation"
	TriggerRegeneration TriggerReason = "regeneration"
)

// Narrative is the live derived pitch document for a project. Content is a
// loosely typed tree because synthesis output and founder edits are versioned
// independently of any nominal schema.
type Narrative struct {
	ID          string          `json:"id"`
	TenantID    string          `json:"tenant_id"`
	ProjectID   string          `json:"project_id"`
	Content     map[string]any  `json:"content"`
	ContentHash string          `json:"content_hash"`
	SourceHash  string          `json:"source_hash"`
	IsEdited    bool            `json:"is_edited"`
	EditHistory []Edit          `json:"edit_history"`
	Alignment   AlignmentResult `json:"alignment"`
	GeneratedAt time.Time       `json:"generated_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Version is one immutable entry of a narrative's append-only version chain.
type Version struct {
	NarrativeID string         `json:"narrative_id"`
	Version     int64          `json:"version"`
	Content     map[string]any `json:"content"`
	Trigger     TriggerReason  `json:"trigger_reason"`
	FitScore    float64        `json:"fit_score"`
	CreatedAt   time.Time      `json:"created_at"`
}

// EvidenceBundle is the fan-in gathered from the source tables before
// synthesis.
type EvidenceBundle struct {
	ProjectName    string                   `json:"project_name"`
	Hypothesis     *evidence.Hypothesis     `json:"hypothesis"`
	Profile        *evidence.Profile        `json:"profile"`
	Canvas         *evidence.Canvas         `json:"canvas"`
	Evidence       []evidence.Evidence      `json:"evidence"`
	ValidationRuns []evidence.ValidationRun `json:"validation_runs"`
}

// ResultSource tells a cached read apart from a fresh generation.
type ResultSource string

const (
	ResultCache      ResultSource = "cache"
	ResultGeneration ResultSource = "generation"
)

// GenerateRequest describes one generation call.
type GenerateRequest struct {
	ProjectID       string
	ForceRegenerate bool
	PreserveEdits   bool
}

// GenerateResult is the outcome of Generate.
type GenerateResult struct {
	NarrativeID string         `json:"narrative_id"`
	Content     map[string]any `json:"content"`
	IsFresh     bool           `json:"is_fresh"`
	Source      ResultSource   `json:"source"`
}

// FieldDiff is one differing leaf between two narrative versions.
type FieldDiff struct {
	Field    string `json:"field"`
	OldValue any    `json:"old_value"`
	NewValue any    `json:"new_value"`
}

// DiffResult is the outcome of a version diff.
type DiffResult struct {
	NarrativeID string      `json:"narrative_id"`
	VersionA    int64       `json:"version_a"`
	VersionB    int64       `json:"version_b"`
	Diffs       []FieldDiff `json:"diffs"`
}
