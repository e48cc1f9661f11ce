package evidence

import "time"

// Evidence is one captured evidence item backing a hypothesis.
type Evidence struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	ProjectID    string    `json:"project_id"`
	Type         string    `json:"type"`
	Strength     string    `json:"strength"`
	QualityScore float64   `json:"quality_score"`
	Summary      string    `json:"summary"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HypothesisStatus is the validation lifecycle of a hypothesis.
type HypothesisStatus string

const (
	HypothesisDraft       HypothesisStatus = "draft"
	HypothesisTesting     HypothesisStatus = "testing"
	HypothesisValidated   HypothesisStatus = "validated"
	HypothesisInvalidated HypothesisStatus = "invalidated"
)

// Hypothesis is the core testable assumption of a project.
type Hypothesis struct {
	ID        string           `json:"id"`
	TenantID  string           `json:"tenant_id"`
	ProjectID string           `json:"project_id"`
	Statement string           `json:"statement"`
	Status    HypothesisStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// GateStage is the evidence-led stage gate a validation run evaluates.
type GateStage string

const (
	GateDesirability GateStage = "desirability"
	GateFeasibility  GateStage = "feasibility"
	GateViability    GateStage = "viability"
	GateScale        GateStage = "scale"
)

// GateStatus is the outcome of a gate evaluation.
type GateStatus string

const (
	GatePending GateStatus = "pending"
	GatePassed  GateStatus = "passed"
	GateFailed  GateStatus = "failed"
)

// ValidationRun is one gate evaluation over a project's evidence.
type ValidationRun struct {
	ID             string     `json:"id"`
	TenantID       string     `json:"tenant_id"`
	ProjectID      string     `json:"project_id"`
	HypothesisID   string     `json:"hypothesis_id,omitempty"`
	Gate           GateStage  `json:"gate"`
	Status         GateStatus `json:"status"`
	ReadinessScore float64    `json:"readiness_score"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Canvas is the project's business model canvas, stored as a loose field map
// because its shape evolves independently of this core.
type Canvas struct {
	ProjectID string         `json:"project_id"`
	TenantID  string         `json:"tenant_id"`
	Fields    map[string]any `json:"fields"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Profile holds founder and customer profile facts for a project.
type Profile struct {
	ProjectID string         `json:"project_id"`
	TenantID  string         `json:"tenant_id"`
	Fields    map[string]any `json:"fields"`
	UpdatedAt time.Time      `json:"updated_at"`
}
