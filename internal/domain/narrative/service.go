package narrative

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/startupai-hq/evidence-core/internal/repository"
)

// Service implements the narrative generation and caching pipeline.
type Service struct {
	narratives NarrativeRepository
	projects   ProjectRepository
	stale      StalenessRepository
	evidence   EvidenceRepository
	synth      Synthesizer
	logger     *slog.Logger
}

// NewService creates a narrative service.
func NewService(
	narratives NarrativeRepository,
	projects ProjectRepository,
	stale StalenessRepository,
	evidenceRepo EvidenceRepository,
	synth Synthesizer,
	logger *slog.Logger,
) *Service {
	return &Service{
		narratives: narratives,
		projects:   projects,
		stale:      stale,
		evidence:   evidenceRepo,
		synth:      synth,
		logger:     logger,
	}
}

// Generate returns the project narrative, regenerating it when the staleness
// record demands it or the caller forces it. The fast path (not stale, not
// forced) returns the stored narrative without gathering any evidence.
func (s *Service) Generate(ctx context.Context, tenantID string, req GenerateRequest) (*GenerateResult, error) {
	if req.ProjectID == "" {
		return nil, ErrInvalidInput
	}

	proj, err := s.projects.Get(ctx, tenantID, req.ProjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("loading project: %w", err)
	}

	if !req.ForceRegenerate {
		if cached, err := s.cachedNarrative(ctx, tenantID, req.ProjectID); err != nil {
			return nil, err
		} else if cached != nil {
			return &GenerateResult{
				NarrativeID: cached.ID,
				Content:     cached.Content,
				IsFresh:     false,
				Source:      ResultCache,
			}, nil
		}
	}

	bundle, err := s.gather(ctx, tenantID, req.ProjectID, proj.Name)
	if err != nil {
		return nil, err
	}

	content, fit, err := s.synth.Synthesize(ctx, bundle)
	if err != nil {
		return nil, fmt.Errorf("synthesizing narrative: %w", err)
	}
	sourceHash := HashBundle(bundle)
	now := time.Now()

	existing, err := s.narratives.GetByProject(ctx, tenantID, req.ProjectID)
	switch {
	case err == nil:
		return s.regenerate(ctx, tenantID, existing, content, bundle, fit, sourceHash, req, now)
	case errors.Is(err, repository.ErrNotFound):
		return s.firstGeneration(ctx, tenantID, req.ProjectID, content, bundle, fit, sourceHash, now)
	default:
		return nil, fmt.Errorf("loading narrative: %w", err)
	}
}

// Regenerate is Generate with ForceRegenerate forced true.
func (s *Service) Regenerate(ctx context.Context, tenantID string, req GenerateRequest) (*GenerateResult, error) {
	req.ForceRegenerate = true
	return s.Generate(ctx, tenantID, req)
}

// cachedNarrative returns the stored narrative when the staleness record says
// the project is not stale, nil when generation is needed.
func (s *Service) cachedNarrative(ctx context.Context, tenantID, projectID string) (*Narrative, error) {
	st, err := s.stale.Get(ctx, tenantID, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading staleness: %w", err)
	}
	if st.IsStale {
		return nil, nil
	}

	nar, err := s.narratives.GetByProject(ctx, tenantID, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Not stale but no narrative stored: fall through and build one.
			return nil, nil
		}
		return nil, fmt.Errorf("loading narrative: %w", err)
	}
	return nar, nil
}

func (s *Service) regenerate(
	ctx context.Context,
	tenantID string,
	existing *Narrative,
	content map[string]any,
	bundle EvidenceBundle,
	fit float64,
	sourceHash string,
	req GenerateRequest,
	now time.Time,
) (*GenerateResult, error) {
	retained := founderEdits(existing.EditHistory)
	if req.PreserveEdits && existing.IsEdited {
		content, _ = MergeEdits(content, retained)
	}

	align := CheckAlignment(content, bundle, req.ForceRegenerate)
	if req.ForceRegenerate && ContentEmpty(content) {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "regeneration rejected, content empty",
				"project_id", existing.ProjectID, "issues", len(align.Issues))
		}
		return nil, ErrEmptyContent
	}

	maxVer, err := s.narratives.MaxVersion(ctx, tenantID, existing.ID)
	if err != nil {
		return nil, fmt.Errorf("reading version chain: %w", err)
	}

	updated := *existing
	updated.Content = content
	updated.ContentHash = HashContent(content)
	updated.SourceHash = sourceHash
	updated.EditHistory = retained
	updated.IsEdited = len(retained) > 0
	updated.Alignment = align
	updated.GeneratedAt = now
	updated.UpdatedAt = now

	ver := &Version{
		NarrativeID: existing.ID,
		Version:     maxVer + 1,
		Content:     content,
		Trigger:     TriggerRegeneration,
		FitScore:    fit,
		CreatedAt:   now,
	}

	if err := s.narratives.SaveGeneration(ctx, tenantID, &updated, ver); err != nil {
		return nil, fmt.Errorf("persisting narrative: %w", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "narrative regenerated",
			"project_id", updated.ProjectID, "version", ver.Version,
			"alignment", align.Status, "fit_score", fit)
	}
	return &GenerateResult{
		NarrativeID: updated.ID,
		Content:     content,
		IsFresh:     true,
		Source:      ResultGeneration,
	}, nil
}

func (s *Service) firstGeneration(
	ctx context.Context,
	tenantID, projectID string,
	content map[string]any,
	bundle EvidenceBundle,
	fit float64,
	sourceHash string,
	now time.Time,
) (*GenerateResult, error) {
	align := CheckAlignment(content, bundle, false)

	nar := &Narrative{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		ProjectID:   projectID,
		Content:     content,
		ContentHash: HashContent(content),
		SourceHash:  sourceHash,
		Alignment:   align,
		GeneratedAt: now,
		UpdatedAt:   now,
	}
	ver := &Version{
		NarrativeID: nar.ID,
		Version:     1,
		Content:     content,
		Trigger:     TriggerInitial,
		FitScore:    fit,
		CreatedAt:   now,
	}

	if err := s.narratives.SaveGeneration(ctx, tenantID, nar, ver); err != nil {
		return nil, fmt.Errorf("persisting narrative: %w", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "narrative generated",
			"project_id", projectID, "version", 1, "fit_score", fit)
	}
	return &GenerateResult{
		NarrativeID: nar.ID,
		Content:     content,
		IsFresh:     true,
		Source:      ResultGeneration,
	}, nil
}

// gather loads the fan-in evidence and verifies the prerequisites. The
// structured error names exactly what is missing.
func (s *Service) gather(ctx context.Context, tenantID, projectID, projectName string) (EvidenceBundle, error) {
	bundle := EvidenceBundle{ProjectName: projectName}

	hyp, err := s.evidence.GetHypothesis(ctx, tenantID, projectID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return bundle, fmt.Errorf("loading hypothesis: %w", err)
	}
	bundle.Hypothesis = hyp

	profile, err := s.evidence.GetProfile(ctx, tenantID, projectID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return bundle, fmt.Errorf("loading profile: %w", err)
	}
	bundle.Profile = profile

	canvas, err := s.evidence.GetCanvas(ctx, tenantID, projectID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return bundle, fmt.Errorf("loading canvas: %w", err)
	}
	bundle.Canvas = canvas

	var missing []string
	if bundle.Hypothesis == nil {
		missing = append(missing, "hypothesis")
	}
	if bundle.Profile == nil {
		missing = append(missing, "customer_profile")
	}
	if bundle.Canvas == nil {
		missing = append(missing, "canvas")
	}
	if len(missing) > 0 {
		return bundle, &InsufficientEvidenceError{Missing: missing}
	}

	items, err := s.evidence.ListEvidence(ctx, tenantID, projectID)
	if err != nil {
		return bundle, fmt.Errorf("loading evidence: %w", err)
	}
	bundle.Evidence = items

	runs, err := s.evidence.ListValidationRuns(ctx, tenantID, projectID)
	if err != nil {
		return bundle, fmt.Errorf("loading validation runs: %w", err)
	}
	bundle.ValidationRuns = runs

	return bundle, nil
}

// GetByProject returns the live narrative for a project.
func (s *Service) GetByProject(ctx context.Context, tenantID, projectID string) (*Narrative, error) {
	nar, err := s.narratives.GetByProject(ctx, tenantID, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNarrativeNotFound
		}
		return nil, fmt.Errorf("loading narrative: %w", err)
	}
	return nar, nil
}

// RecordEdit applies a founder edit to the live narrative: the content is
// updated at the dotted field path, the edit flag is set, and a
// founder-sourced history entry is appended. The path must exist in the
// current content shape.
func (s *Service) RecordEdit(ctx context.Context, tenantID, narrativeID, field string, value any) (*Narrative, error) {
	if narrativeID == "" || field == "" {
		return nil, ErrInvalidInput
	}

	nar, err := s.narratives.Get(ctx, tenantID, narrativeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNarrativeNotFound
		}
		return nil, fmt.Errorf("loading narrative: %w", err)
	}

	if !setExistingPath(nar.Content, field, value) {
		return nil, ErrInvalidInput
	}

	now := time.Now()
	nar.IsEdited = true
	nar.EditHistory = append(nar.EditHistory, Edit{
		Field:  field,
		Value:  value,
		Source: SourceFounder,
		At:     now,
	})
	nar.ContentHash = HashContent(nar.Content)
	nar.UpdatedAt = now

	if err := s.narratives.UpdateEdited(ctx, tenantID, nar); err != nil {
		return nil, fmt.Errorf("saving edit: %w", err)
	}
	return nar, nil
}

// Diff compares two versions of a narrative field-by-field.
func (s *Service) Diff(ctx context.Context, tenantID, narrativeID string, versionA, versionB int64) (*DiffResult, error) {
	if narrativeID == "" {
		return nil, ErrInvalidInput
	}

	verA, err := s.narratives.GetVersion(ctx, tenantID, narrativeID, versionA)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVersionNotFound
		}
		return nil, fmt.Errorf("loading version %d: %w", versionA, err)
	}
	verB, err := s.narratives.GetVersion(ctx, tenantID, narrativeID, versionB)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVersionNotFound
		}
		return nil, fmt.Errorf("loading version %d: %w", versionB, err)
	}

	return &DiffResult{
		NarrativeID: narrativeID,
		VersionA:    versionA,
		VersionB:    versionB,
		Diffs:       DiffContent(verA.Content, verB.Content),
	}, nil
}
