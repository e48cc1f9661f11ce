package session

import "time"

// Stage is one ordinal step of the onboarding conversation.
type Stage string

const (
	StageBusinessIdea     Stage = "business_idea"
	StageTargetMarket     Stage = "target_market"
	StageValueProposition Stage = "value_proposition"
	StageBusinessModel    Stage = "business_model"
	StageValidationPlan   Stage = "validation_plan"
)

// stageOrder fixes the conversation sequence. Ordinals are 1-based.
var stageOrder = []Stage{
	StageBusinessIdea,
	StageTargetMarket,
	StageValueProposition,
	StageBusinessModel,
	StageValidationPlan,
}

// Ordinal returns the 1-based position of the stage, or 0 if unknown.
func (s Stage) Ordinal() int {
	for i, stage := range stageOrder {
		if stage == s {
			return i + 1
		}
	}
	return 0
}

// Next returns the following stage, or false when s is the last stage.
func (s Stage) Next() (Stage, bool) {
	ord := s.Ordinal()
	if ord == 0 || ord >= len(stageOrder) {
		return s, false
	}
	return stageOrder[ord], true
}

// StageCount is the number of onboarding stages.
func StageCount() int {
	return len(stageOrder)
}

// Session represents one onboarding conversation. It is mutated exclusively
// through CommitTurn and never physically deleted.
type Session struct {
	ID              string     `json:"id"`
	TenantID        string     `json:"tenant_id"`
	UserID          string     `json:"user_id"`
	ProjectID       string     `json:"project_id"`
	Stage           Stage      `json:"stage"`
	StageProgress   int        `json:"stage_progress"`
	OverallProgress int        `json:"overall_progress"`
	Version         int64      `json:"version"`
	MessageCount    int        `json:"message_count"`
	Completed       bool       `json:"completed"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// Message is one entry of the append-only conversation history.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Assessment is the quality re-assessment produced upstream for a turn.
// Coverage is the assessed fraction (0..1) of the current stage covered by
// the conversation so far.
type Assessment struct {
	Coverage float64 `json:"coverage"`
	Summary  string  `json:"summary,omitempty"`
}

// Turn is the committed record of one user/assistant exchange. The stage and
// progress snapshot is stored so a duplicate submission replays the original
// committed values unchanged.
type Turn struct {
	SessionID        string    `json:"session_id"`
	MessageID        string    `json:"message_id"`
	UserMessage      Message   `json:"user_message"`
	AssistantMessage Message   `json:"assistant_message"`
	CommittedVersion int64     `json:"committed_version"`
	Stage            Stage     `json:"stage"`
	StageProgress    int       `json:"stage_progress"`
	OverallProgress  int       `json:"overall_progress"`
	StageAdvanced    bool      `json:"stage_advanced"`
	Completed        bool      `json:"completed"`
	CreatedAt        time.Time `json:"created_at"`
}

// CommitStatus discriminates the outcome of a commit attempt.
type CommitStatus string

const (
	StatusCommitted       CommitStatus = "committed"
	StatusDuplicate       CommitStatus = "duplicate"
	StatusVersionConflict CommitStatus = "version_conflict"
)

// CommitResult is the discriminated result of CommitTurn.
type CommitResult struct {
	Status          CommitStatus `json:"status"`
	Version         int64        `json:"version"`
	CurrentVersion  *int64       `json:"current_version,omitempty"`
	ExpectedVersion *int64       `json:"expected_version,omitempty"`
	Stage           Stage        `json:"current_stage"`
	StageProgress   int          `json:"stage_progress"`
	OverallProgress int          `json:"overall_progress"`
	StageAdvanced   bool         `json:"stage_advanced"`
	Completed       bool         `json:"completed"`
	Queued          bool         `json:"queued,omitempty"`
}
