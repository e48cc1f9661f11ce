package transport_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startupai-hq/evidence-core/internal/domain/evidence"
	"github.com/startupai-hq/evidence-core/internal/domain/handoff"
	"github.com/startupai-hq/evidence-core/internal/domain/narrative"
	"github.com/startupai-hq/evidence-core/internal/domain/project"
	"github.com/startupai-hq/evidence-core/internal/domain/session"
	"github.com/startupai-hq/evidence-core/internal/domain/staleness"
	"github.com/startupai-hq/evidence-core/internal/sqlite"
	"github.com/startupai-hq/evidence-core/internal/transport"
)

// newTestRouter wires the full stack over an in-memory database, with a
// middleware that pins every request to a fixed tenant.
func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	projectRepo := sqlite.NewProjectRepository(db)
	stalenessRepo := sqlite.NewStalenessRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)
	evidenceRepo := sqlite.NewEvidenceRepository(db)
	narrativeRepo := sqlite.NewNarrativeRepository(db)
	queueRepo := sqlite.NewQueueRepository(db)

	classifier := staleness.NewClassifier(
		[]string{"industry", "target_customer"},
		[]string{"customer_segments", "revenue_streams"},
	)
	engine := staleness.NewEngine(stalenessRepo, classifier, logger)

	projectSvc := project.NewService(projectRepo, stalenessRepo, logger)
	handoffSvc := handoff.NewService(queueRepo, logger)
	sessionSvc := session.NewService(sessionRepo, projectRepo, handoffSvc, logger)
	evidenceSvc := evidence.NewService(evidenceRepo, engine, logger)
	narrativeSvc := narrative.NewService(
		narrativeRepo, projectRepo, stalenessRepo, evidenceRepo,
		narrative.NewTemplateSynthesizer(), logger,
	)

	fixedTenant := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(transport.WithTenant(r.Context(), "tenant1")))
		})
	}
	return transport.NewServer(projectSvc, sessionSvc, narrativeSvc, evidenceSvc, fixedTenant)
}

func doJSON(t *testing.T, router *chi.Mux, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func createProject(t *testing.T, router *chi.Mux) string {
	t.Helper()
	rec, body := doJSON(t, router, http.MethodPost, "/projects", map[string]any{
		"user_id": "user1", "name": "Acme", "description": "test venture",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	return body["id"].(string)
}

func seedEvidence(t *testing.T, router *chi.Mux, projectID string) {
	t.Helper()
	rec, _ := doJSON(t, router, http.MethodPut, "/projects/"+projectID+"/hypothesis", map[string]any{
		"statement": "founders need automated narratives", "status": "testing",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = doJSON(t, router, http.MethodPut, "/projects/"+projectID+"/canvas", map[string]any{
		"fields": map[string]any{"customer_segments": "early-stage founders"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = doJSON(t, router, http.MethodPut, "/projects/"+projectID+"/profile", map[string]any{
		"fields": map[string]any{"industry": "saas"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthIsOpen(t *testing.T) {
	router := newTestRouter(t)
	rec, body := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestProjectLifecycle(t *testing.T) {
	router := newTestRouter(t)
	projectID := createProject(t, router)

	rec, body := doJSON(t, router, http.MethodGet, "/projects/"+projectID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Acme", body["name"])

	// A fresh project starts hard-stale: nothing has been generated yet.
	rec, body = doJSON(t, router, http.MethodGet, "/projects/"+projectID+"/staleness", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["is_stale"])
	assert.Equal(t, "hard", body["severity"])
}

func TestGetProject_NotFound(t *testing.T) {
	router := newTestRouter(t)
	rec, body := doJSON(t, router, http.MethodGet, "/projects/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "PROJECT_NOT_FOUND", errObj["code"])
}

func TestNarrativeGenerationFlow(t *testing.T) {
	router := newTestRouter(t)
	projectID := createProject(t, router)

	// Without the prerequisite evidence, generation names what is missing.
	rec, body := doJSON(t, router, http.MethodPost, "/projects/"+projectID+"/narrative", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "INSUFFICIENT_EVIDENCE", errObj["code"])

	seedEvidence(t, router, projectID)

	rec, body = doJSON(t, router, http.MethodPost, "/projects/"+projectID+"/narrative", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["is_fresh"])
	assert.Equal(t, "generation", body["source"])
	narrativeID := body["narrative_id"].(string)

	// Generation cleared the staleness flag, so the next call hits the cache.
	rec, body = doJSON(t, router, http.MethodPost, "/projects/"+projectID+"/narrative", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["is_fresh"])
	assert.Equal(t, "cache", body["source"])

	// A hypothesis status change marks the project hard-stale again.
	rec, _ = doJSON(t, router, http.MethodPut, "/projects/"+projectID+"/hypothesis", map[string]any{
		"statement": "founders need automated narratives", "status": "validated",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = doJSON(t, router, http.MethodGet, "/projects/"+projectID+"/staleness", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["is_stale"])
	assert.Equal(t, "hard", body["severity"])

	rec, body = doJSON(t, router, http.MethodPost, "/projects/"+projectID+"/narrative", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["is_fresh"], "stale narrative regenerates")

	// Edits merge into the live narrative and the version chain supports diff.
	rec, _ = doJSON(t, router, http.MethodPost, "/narratives/"+narrativeID+"/edits", map[string]any{
		"field": "executive_summary", "value": "our summary",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = doJSON(t, router, http.MethodGet, "/projects/"+projectID+"/narrative", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["is_edited"])

	rec, body = doJSON(t, router, http.MethodGet,
		fmt.Sprintf("/narratives/%s/diff?from=1&to=2", narrativeID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["version_a"])
	assert.Equal(t, float64(2), body["version_b"])
}

func TestVersionDiff_RejectsBadParams(t *testing.T) {
	router := newTestRouter(t)
	rec, body := doJSON(t, router, http.MethodGet, "/narratives/n1/diff?from=x&to=2", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
}

func TestSessionCommitFlow(t *testing.T) {
	router := newTestRouter(t)
	projectID := createProject(t, router)

	rec, body := doJSON(t, router, http.MethodPost, "/sessions", map[string]any{
		"user_id": "user1", "project_id": projectID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	sessionID := body["id"].(string)
	assert.Equal(t, float64(0), body["version"])

	turn := map[string]any{
		"message_id":        "m1",
		"user_message":      "my idea is X",
		"assistant_message": "tell me more",
		"assessment":        map[string]any{"coverage": 0.5},
	}
	rec, body = doJSON(t, router, http.MethodPost, "/sessions/"+sessionID+"/turns", turn)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "committed", body["status"])
	assert.Equal(t, float64(1), body["version"])

	// Retrying the same message id replays the original outcome.
	rec, body = doJSON(t, router, http.MethodPost, "/sessions/"+sessionID+"/turns", turn)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "duplicate", body["status"])
	assert.Equal(t, float64(1), body["version"])

	// A stale expected version is a conflict, reported with the current state.
	stale := map[string]any{
		"message_id":        "m2",
		"user_message":      "more detail",
		"assistant_message": "noted",
		"expected_version":  0,
	}
	rec, body = doJSON(t, router, http.MethodPost, "/sessions/"+sessionID+"/turns", stale)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "version_conflict", body["status"])
	assert.Equal(t, float64(1), body["current_version"])
	assert.Equal(t, float64(0), body["expected_version"])

	rec, body = doJSON(t, router, http.MethodGet, "/sessions/"+sessionID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["version"])
	assert.Equal(t, float64(2), body["message_count"])

	rec, body = doJSON(t, router, http.MethodGet, "/sessions/"+sessionID+"/messages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	messages := body["messages"].([]any)
	require.Len(t, messages, 2)
	first := messages[0].(map[string]any)
	assert.Equal(t, "user", first["role"])
	assert.Equal(t, "my idea is X", first["content"])
}

func TestEvidenceEndpoints(t *testing.T) {
	router := newTestRouter(t)
	projectID := createProject(t, router)

	rec, body := doJSON(t, router, http.MethodPost, "/projects/"+projectID+"/evidence", map[string]any{
		"type": "interview", "strength": "strong", "quality_score": 0.8, "summary": "ten interviews",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	evidenceID := body["id"].(string)

	rec, _ = doJSON(t, router, http.MethodPut, "/evidence/"+evidenceID, map[string]any{
		"project_id": projectID, "type": "interview", "strength": "weak", "quality_score": 0.3,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = doJSON(t, router, http.MethodPost, "/projects/"+projectID+"/validation-runs", map[string]any{
		"gate": "desirability", "status": "pending", "readiness_score": 0.4,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["id"])
}

func TestUpdateEvidence_WithoutProjectID_StillMarksStale(t *testing.T) {
	router := newTestRouter(t)
	projectID := createProject(t, router)
	seedEvidence(t, router, projectID)

	rec, body := doJSON(t, router, http.MethodPost, "/projects/"+projectID+"/evidence", map[string]any{
		"type": "interview", "strength": "weak", "quality_score": 0.3,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	evidenceID := body["id"].(string)

	rec, _ = doJSON(t, router, http.MethodPost, "/projects/"+projectID+"/narrative", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = doJSON(t, router, http.MethodGet, "/projects/"+projectID+"/staleness", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, false, body["is_stale"])

	// The update body omits project_id; the binding comes from the stored row.
	rec, _ = doJSON(t, router, http.MethodPut, "/evidence/"+evidenceID, map[string]any{
		"type": "interview", "strength": "strong", "quality_score": 0.9,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = doJSON(t, router, http.MethodGet, "/projects/"+projectID+"/staleness", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["is_stale"])
	assert.Equal(t, "soft", body["severity"])
}
