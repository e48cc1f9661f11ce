package narrative

import (
	"context"

	"github.com/startupai-hq/evidence-core/internal/domain/evidence"
	"github.com/startupai-hq/evidence-core/internal/domain/project"
	"github.com/startupai-hq/evidence-core/internal/domain/staleness"
)

// NarrativeRepository persists narratives and their version chains.
type NarrativeRepository interface {
	GetByProject(ctx context.Context, tenantID, projectID string) (*Narrative, error)
	Get(ctx context.Context, tenantID, id string) (*Narrative, error)
	// SaveGeneration atomically upserts the live narrative, appends the
	// next version, records the export artifact, and clears the project's
	// staleness record. A failure leaves all four untouched.
	SaveGeneration(ctx context.Context, tenantID string, nar *Narrative, ver *Version) error
	// UpdateEdited persists a founder edit on the live narrative without
	// touching the version chain or staleness.
	UpdateEdited(ctx context.Context, tenantID string, nar *Narrative) error
	GetVersion(ctx context.Context, tenantID, narrativeID string, version int64) (*Version, error)
	MaxVersion(ctx context.Context, tenantID, narrativeID string) (int64, error)
}

// ProjectRepository provides project lookups.
type ProjectRepository interface {
	Get(ctx context.Context, tenantID, id string) (*project.Project, error)
}

// StalenessRepository provides the staleness fast-path read.
type StalenessRepository interface {
	Get(ctx context.Context, tenantID, projectID string) (*staleness.Record, error)
}

// EvidenceRepository gathers the fan-in evidence for synthesis.
type EvidenceRepository interface {
	ListEvidence(ctx context.Context, tenantID, projectID string) ([]evidence.Evidence, error)
	GetHypothesis(ctx context.Context, tenantID, projectID string) (*evidence.Hypothesis, error)
	ListValidationRuns(ctx context.Context, tenantID, projectID string) ([]evidence.ValidationRun, error)
	GetCanvas(ctx context.Context, tenantID, projectID string) (*evidence.Canvas, error)
	GetProfile(ctx context.Context, tenantID, projectID string) (*evidence.Profile, error)
}
