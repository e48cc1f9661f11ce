package evidence

import "context"

// EvidenceRepository persists the five watched source relations.
type EvidenceRepository interface {
	CreateEvidence(ctx context.Context, tenantID string, ev *Evidence) error
	GetEvidence(ctx context.Context, tenantID, id string) (*Evidence, error)
	UpdateEvidence(ctx context.Context, tenantID string, ev *Evidence) error
	ListEvidence(ctx context.Context, tenantID, projectID string) ([]Evidence, error)

	UpsertHypothesis(ctx context.Context, tenantID string, hyp *Hypothesis) error
	GetHypothesis(ctx context.Context, tenantID, projectID string) (*Hypothesis, error)

	UpsertValidationRun(ctx context.Context, tenantID string, run *ValidationRun) error
	GetValidationRun(ctx context.Context, tenantID, id string) (*ValidationRun, error)
	ListValidationRuns(ctx context.Context, tenantID, projectID string) ([]ValidationRun, error)

	UpsertCanvas(ctx context.Context, tenantID string, canvas *Canvas) error
	GetCanvas(ctx context.Context, tenantID, projectID string) (*Canvas, error)

	UpsertProfile(ctx context.Context, tenantID string, profile *Profile) error
	GetProfile(ctx context.Context, tenantID, projectID string) (*Profile, error)
}
