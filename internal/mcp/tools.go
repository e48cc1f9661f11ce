package mcp

import (
	"context"
	"fmt"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/startupai-hq/evidence-core/internal/domain/narrative"
	"github.com/startupai-hq/evidence-core/internal/domain/project"
	"github.com/startupai-hq/evidence-core/internal/domain/session"
	"github.com/startupai-hq/evidence-core/internal/domain/staleness"
)

type createProjectParams struct {
	UserID      string `json:"user_id" jsonschema:"owning user id"`
	Name        string `json:"name" jsonschema:"project display name"`
	Description string `json:"description,omitempty" jsonschema:"project description"`
}

type startSessionParams struct {
	UserID    string `json:"user_id" jsonschema:"owning user id"`
	ProjectID string `json:"project_id" jsonschema:"project to onboard"`
}

type getSessionParams struct {
	SessionID string `json:"session_id" jsonschema:"session id"`
}

type commitTurnParams struct {
	SessionID        string              `json:"session_id" jsonschema:"session id"`
	MessageID        string              `json:"message_id" jsonschema:"client-generated id for idempotent retries"`
	UserMessage      string              `json:"user_message" jsonschema:"user message content"`
	AssistantMessage string              `json:"assistant_message" jsonschema:"assistant message content"`
	Assessment       *session.Assessment `json:"assessment,omitempty" jsonschema:"quality assessment, omit when assessment failed"`
	ExpectedVersion  *int64              `json:"expected_version,omitempty" jsonschema:"expected session version for optimistic concurrency"`
}

type generateNarrativeParams struct {
	ProjectID       string `json:"project_id" jsonschema:"project id"`
	ForceRegenerate bool   `json:"force_regenerate,omitempty" jsonschema:"regenerate even when the cache is fresh"`
	PreserveEdits   *bool  `json:"preserve_edits,omitempty" jsonschema:"re-apply founder edits after regeneration, default true"`
}

type projectParams struct {
	ProjectID string `json:"project_id" jsonschema:"project id"`
}

type versionDiffParams struct {
	NarrativeID string `json:"narrative_id" jsonschema:"narrative id"`
	From        int64  `json:"from" jsonschema:"older version number"`
	To          int64  `json:"to" jsonschema:"newer version number"`
}

// registerTools registers all tools on the server.
func registerTools(server *sdkmcp.Server, services Services) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_project",
		Description: "Create a project; its staleness record starts stale until the first narrative generation",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in createProjectParams) (*sdkmcp.CallToolResult, *project.Project, error) {
		proj, err := services.Projects.Create(ctx, getTenantID(ctx), project.CreateRequest{
			UserID:      in.UserID,
			Name:        in.Name,
			Description: in.Description,
		})
		if err != nil {
			return nil, nil, err
		}
		return nil, proj, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "start_session",
		Description: "Start an onboarding session for a project at the first stage",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in startSessionParams) (*sdkmcp.CallToolResult, *session.Session, error) {
		sess, err := services.Sessions.Start(ctx, getTenantID(ctx), session.StartRequest{
			UserID:    in.UserID,
			ProjectID: in.ProjectID,
		})
		if err != nil {
			return nil, nil, err
		}
		return nil, sess, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_session",
		Description: "Get an onboarding session with its stage, progress and version",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in getSessionParams) (*sdkmcp.CallToolResult, *session.Session, error) {
		sess, err := services.Sessions.Get(ctx, getTenantID(ctx), in.SessionID)
		if err != nil {
			return nil, nil, err
		}
		return nil, sess, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "commit_turn",
		Description: "Commit one message exchange to a session. Retrying with the same message_id replays the original result instead of double-committing",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in commitTurnParams) (*sdkmcp.CallToolResult, *session.CommitResult, error) {
		now := time.Now()
		result, err := services.Sessions.CommitTurn(ctx, getTenantID(ctx), session.CommitRequest{
			SessionID:        in.SessionID,
			MessageID:        in.MessageID,
			UserMessage:      session.Message{Role: "user", Content: in.UserMessage, Timestamp: now},
			AssistantMessage: session.Message{Role: "assistant", Content: in.AssistantMessage, Timestamp: now},
			Assessment:       in.Assessment,
			ExpectedVersion:  in.ExpectedVersion,
		})
		if err != nil {
			return nil, nil, err
		}
		return nil, result, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "generate_narrative",
		Description: "Get the project pitch narrative, served from cache while evidence is unchanged and regenerated when stale",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in generateNarrativeParams) (*sdkmcp.CallToolResult, *narrative.GenerateResult, error) {
		req := narrative.GenerateRequest{
			ProjectID:       in.ProjectID,
			ForceRegenerate: in.ForceRegenerate,
			PreserveEdits:   true,
		}
		if in.PreserveEdits != nil {
			req.PreserveEdits = *in.PreserveEdits
		}
		result, err := services.Narratives.Generate(ctx, getTenantID(ctx), req)
		if err != nil {
			return nil, nil, err
		}
		return nil, result, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_narrative",
		Description: "Get the stored narrative for a project without triggering generation",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in projectParams) (*sdkmcp.CallToolResult, *narrative.Narrative, error) {
		nar, err := services.Narratives.GetByProject(ctx, getTenantID(ctx), in.ProjectID)
		if err != nil {
			return nil, nil, err
		}
		return nil, nar, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "version_diff",
		Description: "Compare two versions of a narrative field-by-field",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in versionDiffParams) (*sdkmcp.CallToolResult, *narrative.DiffResult, error) {
		if in.From <= 0 || in.To <= 0 {
			return nil, nil, fmt.Errorf("from and to must be positive version numbers")
		}
		diff, err := services.Narratives.Diff(ctx, getTenantID(ctx), in.NarrativeID, in.From, in.To)
		if err != nil {
			return nil, nil, err
		}
		return nil, diff, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_staleness",
		Description: "Read the staleness side channel for a project",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in projectParams) (*sdkmcp.CallToolResult, *staleness.Record, error) {
		rec, err := services.Projects.GetStaleness(ctx, getTenantID(ctx), in.ProjectID)
		if err != nil {
			return nil, nil, err
		}
		return nil, rec, nil
	})
}
