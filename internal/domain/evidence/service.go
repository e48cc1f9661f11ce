package evidence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/startupai-hq/evidence-core/internal/domain/staleness"
	"github.com/startupai-hq/evidence-core/internal/repository"
)

// ChangeNotifier receives a typed change event after every successful write
// to a watched table. Implementations must not fail the triggering write.
type ChangeNotifier interface {
	Notify(ctx context.Context, tenantID string, ev staleness.ChangeEvent)
}

// Service owns the write paths of the evidence surface. Every successful
// insert or update publishes a change event to the staleness engine.
type Service struct {
	repo     EvidenceRepository
	notifier ChangeNotifier
	logger   *slog.Logger
}

// NewService creates an evidence service.
func NewService(repo EvidenceRepository, notifier ChangeNotifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, logger: logger}
}

// AddEvidenceRequest describes a new evidence item.
type AddEvidenceRequest struct {
	ProjectID    string
	Type         string
	Strength     string
	QualityScore float64
	Summary      string
}

// AddEvidence inserts an evidence item and flags the project soft-stale.
func (s *Service) AddEvidence(ctx context.Context, tenantID string, req AddEvidenceRequest) (*Evidence, error) {
	if strings.TrimSpace(req.ProjectID) == "" || strings.TrimSpace(req.Type) == "" {
		return nil, ErrInvalidInput
	}

	now := time.Now()
	ev := &Evidence{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		ProjectID:    req.ProjectID,
		Type:         req.Type,
		Strength:     req.Strength,
		QualityScore: req.QualityScore,
		Summary:      req.Summary,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateEvidence(ctx, tenantID, ev); err != nil {
		return nil, fmt.Errorf("creating evidence: %w", err)
	}

	s.notify(ctx, tenantID, staleness.ChangeEvent{
		Source:    staleness.SourceEvidence,
		Kind:      staleness.KindInsert,
		ProjectID: ev.ProjectID,
		New:       evidenceFields(ev),
	})
	return ev, nil
}

// UpdateEvidence modifies an evidence item and flags the project soft-stale.
// The project binding comes from the stored row, never from the caller.
func (s *Service) UpdateEvidence(ctx context.Context, tenantID string, ev *Evidence) error {
	if ev == nil || ev.ID == "" {
		return ErrInvalidInput
	}

	old, err := s.repo.GetEvidence(ctx, tenantID, ev.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("loading evidence: %w", err)
	}

	ev.TenantID = tenantID
	ev.ProjectID = old.ProjectID
	ev.CreatedAt = old.CreatedAt
	ev.UpdatedAt = time.Now()
	if err := s.repo.UpdateEvidence(ctx, tenantID, ev); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("updating evidence: %w", err)
	}

	s.notify(ctx, tenantID, staleness.ChangeEvent{
		Source:    staleness.SourceEvidence,
		Kind:      staleness.KindUpdate,
		ProjectID: ev.ProjectID,
		Old:       evidenceFields(old),
		New:       evidenceFields(ev),
	})
	return nil
}

// SetHypothesis creates or updates the project hypothesis. A status change
// escalates the project's staleness to hard.
func (s *Service) SetHypothesis(ctx context.Context, tenantID, projectID, statement string, status HypothesisStatus) (*Hypothesis, error) {
	if projectID == "" || strings.TrimSpace(statement) == "" {
		return nil, ErrInvalidInput
	}

	old, err := s.repo.GetHypothesis(ctx, tenantID, projectID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("loading hypothesis: %w", err)
	}

	now := time.Now()
	hyp := &Hypothesis{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		ProjectID: projectID,
		Statement: statement,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	kind := staleness.KindInsert
	var oldFields map[string]any
	if old != nil {
		hyp.ID = old.ID
		hyp.CreatedAt = old.CreatedAt
		kind = staleness.KindUpdate
		oldFields = hypothesisFields(old)
	}

	if err := s.repo.UpsertHypothesis(ctx, tenantID, hyp); err != nil {
		return nil, fmt.Errorf("saving hypothesis: %w", err)
	}

	s.notify(ctx, tenantID, staleness.ChangeEvent{
		Source:    staleness.SourceHypothesis,
		Kind:      kind,
		ProjectID: projectID,
		Old:       oldFields,
		New:       hypothesisFields(hyp),
	})
	return hyp, nil
}

// RecordValidationRun creates or updates a gate evaluation. A gate change
// escalates the project's staleness to hard.
func (s *Service) RecordValidationRun(ctx context.Context, tenantID string, run *ValidationRun) (*ValidationRun, error) {
	if run == nil || run.ProjectID == "" || run.Gate == "" {
		return nil, ErrInvalidInput
	}

	kind := staleness.KindInsert
	var oldFields map[string]any
	if run.ID == "" {
		run.ID = uuid.NewString()
		run.CreatedAt = time.Now()
	} else {
		old, err := s.repo.GetValidationRun(ctx, tenantID, run.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("loading validation run: %w", err)
		}
		kind = staleness.KindUpdate
		oldFields = runFields(old)
		run.CreatedAt = old.CreatedAt
	}
	run.TenantID = tenantID
	run.UpdatedAt = time.Now()

	if err := s.repo.UpsertValidationRun(ctx, tenantID, run); err != nil {
		return nil, fmt.Errorf("saving validation run: %w", err)
	}

	s.notify(ctx, tenantID, staleness.ChangeEvent{
		Source:    staleness.SourceValidationRun,
		Kind:      kind,
		ProjectID: run.ProjectID,
		Old:       oldFields,
		New:       runFields(run),
	})
	return run, nil
}

// SetCanvas replaces the project canvas fields.
func (s *Service) SetCanvas(ctx context.Context, tenantID, projectID string, fields map[string]any) (*Canvas, error) {
	if projectID == "" || len(fields) == 0 {
		return nil, ErrInvalidInput
	}

	old, err := s.repo.GetCanvas(ctx, tenantID, projectID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("loading canvas: %w", err)
	}

	canvas := &Canvas{
		ProjectID: projectID,
		TenantID:  tenantID,
		Fields:    fields,
		UpdatedAt: time.Now(),
	}
	if err := s.repo.UpsertCanvas(ctx, tenantID, canvas); err != nil {
		return nil, fmt.Errorf("saving canvas: %w", err)
	}

	ev := staleness.ChangeEvent{
		Source:    staleness.SourceCanvas,
		Kind:      staleness.KindInsert,
		ProjectID: projectID,
		New:       fields,
	}
	if old != nil {
		ev.Kind = staleness.KindUpdate
		ev.Old = old.Fields
	}
	s.notify(ctx, tenantID, ev)
	return canvas, nil
}

// SetProfile replaces the project's profile facts.
func (s *Service) SetProfile(ctx context.Context, tenantID, projectID string, fields map[string]any) (*Profile, error) {
	if projectID == "" || len(fields) == 0 {
		return nil, ErrInvalidInput
	}

	old, err := s.repo.GetProfile(ctx, tenantID, projectID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	profile := &Profile{
		ProjectID: projectID,
		TenantID:  tenantID,
		Fields:    fields,
		UpdatedAt: time.Now(),
	}
	if err := s.repo.UpsertProfile(ctx, tenantID, profile); err != nil {
		return nil, fmt.Errorf("saving profile: %w", err)
	}

	ev := staleness.ChangeEvent{
		Source:    staleness.SourceProfile,
		Kind:      staleness.KindInsert,
		ProjectID: projectID,
		New:       fields,
	}
	if old != nil {
		ev.Kind = staleness.KindUpdate
		ev.Old = old.Fields
	}
	s.notify(ctx, tenantID, ev)
	return profile, nil
}

func (s *Service) notify(ctx context.Context, tenantID string, ev staleness.ChangeEvent) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, tenantID, ev)
}

func evidenceFields(ev *Evidence) map[string]any {
	return map[string]any{
		"type":          ev.Type,
		"strength":      ev.Strength,
		"quality_score": ev.QualityScore,
		"summary":       ev.Summary,
	}
}

func hypothesisFields(hyp *Hypothesis) map[string]any {
	return map[string]any{
		"statement": hyp.Statement,
		"status":    string(hyp.Status),
	}
}

func runFields(run *ValidationRun) map[string]any {
	return map[string]any{
		"gate":            string(run.Gate),
		"status":          string(run.Status),
		"readiness_score": run.ReadinessScore,
	}
}
