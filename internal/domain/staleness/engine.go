package staleness

import (
	"context"
	"log/slog"
)

// Engine receives change events from the evidence-surface write paths and
// fans them in to the owning project's staleness record.
type Engine struct {
	records    StalenessRepository
	classifier *Classifier
	logger     *slog.Logger
}

// NewEngine creates a propagation engine.
func NewEngine(records StalenessRepository, classifier *Classifier, logger *slog.Logger) *Engine {
	return &Engine{
		records:    records,
		classifier: classifier,
		logger:     logger,
	}
}

// Notify classifies a change event and applies it to the project's staleness
// record. It never returns an error: a write to a watched table must not fail
// because staleness bookkeeping did. Failures are logged and dropped.
func (e *Engine) Notify(ctx context.Context, tenantID string, ev ChangeEvent) {
	if ev.ProjectID == "" {
		e.log().WarnContext(ctx, "staleness event without project id, skipping",
			"source", ev.Source, "kind", ev.Kind)
		return
	}

	severity, reason := e.classifier.Classify(ev)
	if severity == SeverityNone {
		return
	}

	if err := e.records.MarkStale(ctx, tenantID, ev.ProjectID, severity, reason); err != nil {
		e.log().ErrorContext(ctx, "failed to mark project stale",
			"project_id", ev.ProjectID, "source", ev.Source, "severity", severity, "error", err)
	}
}

func (e *Engine) log() *slog.Logger {
	if e.logger == nil {
		return slog.Default()
	}
	return e.logger
}
