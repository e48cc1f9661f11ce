package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/startupai-hq/evidence-core/internal/config"
	"github.com/startupai-hq/evidence-core/internal/domain/evidence"
	"github.com/startupai-hq/evidence-core/internal/domain/handoff"
	"github.com/startupai-hq/evidence-core/internal/domain/narrative"
	"github.com/startupai-hq/evidence-core/internal/domain/project"
	"github.com/startupai-hq/evidence-core/internal/domain/session"
	"github.com/startupai-hq/evidence-core/internal/domain/staleness"
	"github.com/startupai-hq/evidence-core/internal/mcp"
	"github.com/startupai-hq/evidence-core/internal/sqlite"
	"github.com/startupai-hq/evidence-core/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	projectRepo := sqlite.NewProjectRepository(db)
	stalenessRepo := sqlite.NewStalenessRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)
	evidenceRepo := sqlite.NewEvidenceRepository(db)
	narrativeRepo := sqlite.NewNarrativeRepository(db)
	queueRepo := sqlite.NewQueueRepository(db)

	classifier := staleness.NewClassifier(cfg.Staleness.ProfileFields, cfg.Staleness.CanvasFields)
	engine := staleness.NewEngine(stalenessRepo, classifier, logger)

	projectSvc := project.NewService(projectRepo, stalenessRepo, logger)
	handoffSvc := handoff.NewService(queueRepo, logger)
	sessionSvc := session.NewService(sessionRepo, projectRepo, handoffSvc, logger)
	evidenceSvc := evidence.NewService(evidenceRepo, engine, logger)
	narrativeSvc := narrative.NewService(
		narrativeRepo, projectRepo, stalenessRepo, evidenceRepo,
		narrative.NewTemplateSynthesizer(), logger,
	)

	resolver := &apiKeyResolver{db: db}
	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Projects:   projectSvc,
			Sessions:   sessionSvc,
			Narratives: narrativeSvc,
		},
		Resolver:      resolver,
		AuthEnabled:   cfg.Auth.Enabled,
		TransportMode: cfg.Transport.Mode,
		Logger:        logger,
	})

	if cfg.Transport.Mode == "stdio" {
		runStdioMode(logger, mcpServer)
		return
	}
	runHTTPMode(logger, cfg, mcpServer, projectSvc, sessionSvc, narrativeSvc, evidenceSvc, resolver)
}

func runStdioMode(logger *slog.Logger, mcpServer *sdkmcp.Server) {
	logger.Info("starting stdio transport", "auth", "disabled")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil {
		logger.Error("stdio server error", "error", err)
		os.Exit(1)
	}
}

func runHTTPMode(
	logger *slog.Logger,
	cfg config.Config,
	mcpServer *sdkmcp.Server,
	projectSvc *project.Service,
	sessionSvc *session.Service,
	narrativeSvc *narrative.Service,
	evidenceSvc *evidence.Service,
	resolver transport.TenantResolver,
) {
	var authMiddleware func(http.Handler) http.Handler
	if cfg.Auth.Enabled {
		authMiddleware = transport.AuthMiddleware(resolver)
	} else {
		authMiddleware = defaultTenantMiddleware("default")
	}

	router := transport.NewServer(projectSvc, sessionSvc, narrativeSvc, evidenceSvc, authMiddleware)

	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
		},
	)
	router.Handle("/mcp", mcpHandler)
	router.Handle("/mcp/", mcpHandler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer)
}

// defaultTenantMiddleware injects a fixed tenant when auth is disabled.
func defaultTenantMiddleware(tenantID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(transport.WithTenant(r.Context(), tenantID)))
		})
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type apiKeyResolver struct {
	db *sqlite.DB
}

func (r *apiKeyResolver) ResolveTenant(ctx context.Context, token string) (string, error) {
	hash := hashToken(token)
	var tenantID string
	err := r.db.QueryRowContext(ctx, `SELECT tenant_id FROM api_keys WHERE key_hash = ?`, hash).Scan(&tenantID)
	if err != nil || tenantID == "" {
		return "", fmt.Errorf("unauthorized: invalid token")
	}
	return tenantID, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
