package project

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

// ProjectRepository provides project persistence.
type ProjectRepository interface {
	Create(ctx context.Context, tenantID string, proj *Project) error
	Get(ctx context.Context, tenantID, id string) (*Project, error)
}

// StalenessRepository provides read access to the staleness side channel.
type StalenessRepository interface {
	Get(ctx context.Context, tenantID, projectID string) (*staleness.Record, error)
}

// Service handles project operations.
type Service struct {
	projects ProjectRepository
	stale    StalenessRepository
	logger   *slog.Logger
}

// NewService creates a new project service.
func NewService(projects ProjectRepository, stale StalenessRepository, logger *slog.Logger) *Service {
	return &Service{
		projects: projects,
		stale:    stale,
		logger:   logger,
	}
}

// CreateRequest describes a project creation request.
type CreateRequest struct {
	UserID      string
	Name        string
	Description string
}

// Create creates a project. The repository seeds the staleness record as
// stale/hard because no narrative exists yet.
func (s *Service) Create(ctx context.Context, tenantID string, req CreateRequest) (*Project, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.UserID) == "" {
		return nil, ErrInvalidInput
	}

	proj := &Project{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		UserID:      req.UserID,
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   time.Now(),
	}

	if err := s.projects.Create(ctx, tenantID, proj); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	return proj, nil
}

// Get returns a project by ID.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*Project, error) {
	proj, err := s.projects.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

// GetStaleness returns the staleness side channel for a project.
func (s *Service) GetStaleness(ctx context.Context, tenantID, projectID string) (*staleness.Record, error) {
	rec, err := s.stale.Get(ctx, tenantID, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting staleness: %w", err)
	}
	return rec, nil
}
