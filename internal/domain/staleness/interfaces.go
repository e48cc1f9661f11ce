package staleness

import "context"

// StalenessRepository persists per-project staleness records.
type StalenessRepository interface {
	Get(ctx context.Context, tenantID, projectID string) (*Record, error)
	// MarkStale sets is_stale and merges the severity with the
	// never-downgrade rule in a single conditional write.
	MarkStale(ctx context.Context, tenantID, projectID string, severity Severity, reason string) error
}
