package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/startupai-hq/evidence-core/internal/domain/narrative"
	"github.com/startupai-hq/evidence-core/internal/domain/project"
	"github.com/startupai-hq/evidence-core/internal/domain/session"
	"github.com/startupai-hq/evidence-core/internal/domain/staleness"
)

const serverInstructions = `Evidence-consistency core for founder onboarding.

Use start_session to open an onboarding session for a project, then
commit_turn to record each exchanged message pair. Every commit carries a
client message id for safe retries and may carry the expected session
version for optimistic concurrency.

Use generate_narrative to read the project's pitch narrative; it is served
from cache while the underlying evidence is unchanged and regenerated when
the staleness record demands it. get_staleness exposes that record directly.`

// ProjectService defines project operations needed by MCP.
type ProjectService interface {
	Create(ctx context.Context, tenantID string, req project.CreateRequest) (*project.Project, error)
	Get(ctx context.Context, tenantID, id string) (*project.Project, error)
	GetStaleness(ctx context.Context, tenantID, projectID string) (*staleness.Record, error)
}

// SessionService defines session operations needed by MCP.
type SessionService interface {
	Start(ctx context.Context, tenantID string, req session.StartRequest) (*session.Session, error)
	Get(ctx context.Context, tenantID, id string) (*session.Session, error)
	CommitTurn(ctx context.Context, tenantID string, req session.CommitRequest) (*session.CommitResult, error)
}

// NarrativeService defines narrative operations needed by MCP.
type NarrativeService interface {
	Generate(ctx context.Context, tenantID string, req narrative.GenerateRequest) (*narrative.GenerateResult, error)
	GetByProject(ctx context.Context, tenantID, projectID string) (*narrative.Narrative, error)
	Diff(ctx context.Context, tenantID, narrativeID string, versionA, versionB int64) (*narrative.DiffResult, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Projects   ProjectService
	Sessions   SessionService
	Narratives NarrativeService
}

// Config contains server configuration.
type Config struct {
	Services      Services
	Resolver      TenantResolver
	AuthEnabled   bool
	TransportMode string // "stdio" or "http"
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "evidence-core",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	// Stdio mode is local dev only and never authenticates.
	if cfg.TransportMode == "stdio" || !cfg.AuthEnabled {
		server.AddReceivingMiddleware(noAuthMiddleware("default"))
	} else {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Services)

	return server
}
