package mocks

import (
	"context"

	"github.com/startupai-hq/evidence-core/internal/domain/evidence"
	"github.com/startupai-hq/evidence-core/internal/domain/handoff"
	"github.com/startupai-hq/evidence-core/internal/domain/narrative"
	"github.com/startupai-hq/evidence-core/internal/domain/project"
	"github.com/startupai-hq/evidence-core/internal/domain/session"
	"github.com/startupai-hq/evidence-core/internal/domain/staleness"
	"github.com/stretchr/testify/mock"
)

// ProjectRepository is a mock for project.ProjectRepository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, tenantID string, proj *project.Project) error {
	args := m.Called(ctx, tenantID, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Get(ctx context.Context, tenantID, id string) (*project.Project, error) {
	args := m.Called(ctx, tenantID, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

// StalenessRepository is a mock for staleness.StalenessRepository.
type StalenessRepository struct {
	mock.Mock
}

func (m *StalenessRepository) Get(ctx context.Context, tenantID, projectID string) (*staleness.Record, error) {
	args := m.Called(ctx, tenantID, projectID)
	if rec, ok := args.Get(0).(*staleness.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StalenessRepository) MarkStale(ctx context.Context, tenantID, projectID string, severity staleness.Severity, reason string) error {
	args := m.Called(ctx, tenantID, projectID, severity, reason)
	return args.Error(0)
}

// SessionRepository is a mock for session.SessionRepository.
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Create(ctx context.Context, tenantID string, sess *session.Session) error {
	args := m.Called(ctx, tenantID, sess)
	return args.Error(0)
}

func (m *SessionRepository) Get(ctx context.Context, tenantID, id string) (*session.Session, error) {
	args := m.Called(ctx, tenantID, id)
	if sess, ok := args.Get(0).(*session.Session); ok {
		return sess, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) GetTurn(ctx context.Context, tenantID, sessionID, messageID string) (*session.Turn, error) {
	args := m.Called(ctx, tenantID, sessionID, messageID)
	if turn, ok := args.Get(0).(*session.Turn); ok {
		return turn, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) CommitTurn(ctx context.Context, tenantID string, turn *session.Turn, expectedVersion int64) error {
	args := m.Called(ctx, tenantID, turn, expectedVersion)
	return args.Error(0)
}

func (m *SessionRepository) ListMessages(ctx context.Context, tenantID, sessionID string) ([]session.Message, error) {
	args := m.Called(ctx, tenantID, sessionID)
	if msgs, ok := args.Get(0).([]session.Message); ok {
		return msgs, args.Error(1)
	}
	return nil, args.Error(1)
}

// EvidenceRepository is a mock for evidence.EvidenceRepository.
type EvidenceRepository struct {
	mock.Mock
}

func (m *EvidenceRepository) CreateEvidence(ctx context.Context, tenantID string, ev *evidence.Evidence) error {
	args := m.Called(ctx, tenantID, ev)
	return args.Error(0)
}

func (m *EvidenceRepository) GetEvidence(ctx context.Context, tenantID, id string) (*evidence.Evidence, error) {
	args := m.Called(ctx, tenantID, id)
	if ev, ok := args.Get(0).(*evidence.Evidence); ok {
		return ev, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EvidenceRepository) UpdateEvidence(ctx context.Context, tenantID string, ev *evidence.Evidence) error {
	args := m.Called(ctx, tenantID, ev)
	return args.Error(0)
}

func (m *EvidenceRepository) ListEvidence(ctx context.Context, tenantID, projectID string) ([]evidence.Evidence, error) {
	args := m.Called(ctx, tenantID, projectID)
	if items, ok := args.Get(0).([]evidence.Evidence); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EvidenceRepository) UpsertHypothesis(ctx context.Context, tenantID string, hyp *evidence.Hypothesis) error {
	args := m.Called(ctx, tenantID, hyp)
	return args.Error(0)
}

func (m *EvidenceRepository) GetHypothesis(ctx context.Context, tenantID, projectID string) (*evidence.Hypothesis, error) {
	args := m.Called(ctx, tenantID, projectID)
	if hyp, ok := args.Get(0).(*evidence.Hypothesis); ok {
		return hyp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EvidenceRepository) UpsertValidationRun(ctx context.Context, tenantID string, run *evidence.ValidationRun) error {
	args := m.Called(ctx, tenantID, run)
	return args.Error(0)
}

func (m *EvidenceRepository) GetValidationRun(ctx context.Context, tenantID, id string) (*evidence.ValidationRun, error) {
	args := m.Called(ctx, tenantID, id)
	if run, ok := args.Get(0).(*evidence.ValidationRun); ok {
		return run, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EvidenceRepository) ListValidationRuns(ctx context.Context, tenantID, projectID string) ([]evidence.ValidationRun, error) {
	args := m.Called(ctx, tenantID, projectID)
	if runs, ok := args.Get(0).([]evidence.ValidationRun); ok {
		return runs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EvidenceRepository) UpsertCanvas(ctx context.Context, tenantID string, canvas *evidence.Canvas) error {
	args := m.Called(ctx, tenantID, canvas)
	return args.Error(0)
}

func (m *EvidenceRepository) GetCanvas(ctx context.Context, tenantID, projectID string) (*evidence.Canvas, error) {
	args := m.Called(ctx, tenantID, projectID)
	if canvas, ok := args.Get(0).(*evidence.Canvas); ok {
		return canvas, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EvidenceRepository) UpsertProfile(ctx context.Context, tenantID string, profile *evidence.Profile) error {
	args := m.Called(ctx, tenantID, profile)
	return args.Error(0)
}

func (m *EvidenceRepository) GetProfile(ctx context.Context, tenantID, projectID string) (*evidence.Profile, error) {
	args := m.Called(ctx, tenantID, projectID)
	if profile, ok := args.Get(0).(*evidence.Profile); ok {
		return profile, args.Error(1)
	}
	return nil, args.Error(1)
}

// NarrativeRepository is a mock for narrative.NarrativeRepository.
type NarrativeRepository struct {
	mock.Mock
}

func (m *NarrativeRepository) GetByProject(ctx context.Context, tenantID, projectID string) (*narrative.Narrative, error) {
	args := m.Called(ctx, tenantID, projectID)
	if nar, ok := args.Get(0).(*narrative.Narrative); ok {
		return nar, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *NarrativeRepository) Get(ctx context.Context, tenantID, id string) (*narrative.Narrative, error) {
	args := m.Called(ctx, tenantID, id)
	if nar, ok := args.Get(0).(*narrative.Narrative); ok {
		return nar, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *NarrativeRepository) SaveGeneration(ctx context.Context, tenantID string, nar *narrative.Narrative, ver *narrative.Version) error {
	args := m.Called(ctx, tenantID, nar, ver)
	return args.Error(0)
}

func (m *NarrativeRepository) UpdateEdited(ctx context.Context, tenantID string, nar *narrative.Narrative) error {
	args := m.Called(ctx, tenantID, nar)
	return args.Error(0)
}

func (m *NarrativeRepository) GetVersion(ctx context.Context, tenantID, narrativeID string, version int64) (*narrative.Version, error) {
	args := m.Called(ctx, tenantID, narrativeID, version)
	if ver, ok := args.Get(0).(*narrative.Version); ok {
		return ver, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *NarrativeRepository) MaxVersion(ctx context.Context, tenantID, narrativeID string) (int64, error) {
	args := m.Called(ctx, tenantID, narrativeID)
	return args.Get(0).(int64), args.Error(1)
}

// QueueRepository is a mock for handoff.QueueRepository.
type QueueRepository struct {
	mock.Mock
}

func (m *QueueRepository) Enqueue(ctx context.Context, tenantID, sessionID, userID string) (handoff.EnqueueStatus, error) {
	args := m.Called(ctx, tenantID, sessionID, userID)
	return args.Get(0).(handoff.EnqueueStatus), args.Error(1)
}

func (m *QueueRepository) MarkFailed(ctx context.Context, tenantID, entryID, reason string) error {
	args := m.Called(ctx, tenantID, entryID, reason)
	return args.Error(0)
}

func (m *QueueRepository) ListPending(ctx context.Context, tenantID string, limit int) ([]handoff.Entry, error) {
	args := m.Called(ctx, tenantID, limit)
	if entries, ok := args.Get(0).([]handoff.Entry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}

// CompletionQueue is a mock for session.CompletionQueue.
type CompletionQueue struct {
	mock.Mock
}

func (m *CompletionQueue) EnqueueCompletion(ctx context.Context, tenantID, sessionID, userID string) (*handoff.EnqueueResult, error) {
	args := m.Called(ctx, tenantID, sessionID, userID)
	if res, ok := args.Get(0).(*handoff.EnqueueResult); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

// ChangeNotifier is a mock for evidence.ChangeNotifier.
type ChangeNotifier struct {
	mock.Mock
}

func (m *ChangeNotifier) Notify(ctx context.Context, tenantID string, ev staleness.ChangeEvent) {
	m.Called(ctx, tenantID, ev)
}

// Synthesizer is a mock for narrative.Synthesizer.
type Synthesizer struct {
	mock.Mock
}

func (m *Synthesizer) Synthesize(ctx context.Context, bundle narrative.EvidenceBundle) (map[string]any, float64, error) {
	args := m.Called(ctx, bundle)
	if content, ok := args.Get(0).(map[string]any); ok {
		return content, args.Get(1).(float64), args.Error(2)
	}
	return nil, args.Get(1).(float64), args.Error(2)
}
