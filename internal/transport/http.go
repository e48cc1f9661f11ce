package transport

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/startupai-hq/evidence-core/internal/domain/evidence"
	"github.com/startupai-hq/evidence-core/internal/domain/narrative"
	"github.com/startupai-hq/evidence-core/internal/domain/project"
	"github.com/startupai-hq/evidence-core/internal/domain/session"
)

// Server wires the REST handlers over the domain services.
type Server struct {
	projects   *project.Service
	sessions   *session.Service
	narratives *narrative.Service
	evidence   *evidence.Service
}

// NewServer creates an HTTP router with middleware.
func NewServer(
	projects *project.Service,
	sessions *session.Service,
	narratives *narrative.Service,
	evidenceSvc *evidence.Service,
	authMiddleware func(http.Handler) http.Handler,
) *chi.Mux {
	r := chi.NewRouter()

	srv := &Server{projects: projects, sessions: sessions, narratives: narratives, evidence: evidenceSvc}

	r.Get("/health", srv.handleHealth)

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}

		r.Post("/projects", srv.handleCreateProject)
		r.Get("/projects/{id}", srv.handleGetProject)
		r.Get("/projects/{id}/staleness", srv.handleGetStaleness)
		r.Post("/projects/{id}/narrative", srv.handleGenerateNarrative)
		r.Post("/projects/{id}/narrative/regenerate", srv.handleRegenerateNarrative)
		r.Get("/projects/{id}/narrative", srv.handleGetNarrative)

		r.Post("/projects/{id}/evidence", srv.handleAddEvidence)
		r.Put("/evidence/{id}", srv.handleUpdateEvidence)
		r.Put("/projects/{id}/hypothesis", srv.handleSetHypothesis)
		r.Post("/projects/{id}/validation-runs", srv.handleRecordValidationRun)
		r.Put("/projects/{id}/canvas", srv.handleSetCanvas)
		r.Put("/projects/{id}/profile", srv.handleSetProfile)

		r.Post("/sessions", srv.handleStartSession)
		r.Get("/sessions/{id}", srv.handleGetSession)
		r.Get("/sessions/{id}/messages", srv.handleSessionMessages)
		r.Post("/sessions/{id}/turns", srv.handleCommitTurn)

		r.Post("/narratives/{id}/edits", srv.handleRecordEdit)
		r.Get("/narratives/{id}/diff", srv.handleVersionDiff)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func tenant(w http.ResponseWriter, r *http.Request) (string, bool) {
	tenantID, ok := TenantFromContext(r.Context())
	if !ok || tenantID == "" {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing tenant")
		return "", false
	}
	return tenantID, true
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationError, "invalid request body")
		return false
	}
	return true
}

type createProjectRequest struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant(w, r)
	if !ok {
		return
	}
	var req createProjectRequest
	if !decode(w, r, &req) {
		return
	}

	proj, err := s.projects.Create(r.Context(), tenantID, project.CreateRequest{
		UserID:      req.UserID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, proj)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant(w, r)
	if !ok {
		return
	}
	proj, err := s.projects.Get(r.Context(), tenantID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

func (s *Server) handleGetStaleness(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant(w, r)
	if !ok {
		return
	}
	rec, err := s.projects.GetStaleness(r.Context(), tenantID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type startSessionRequest struct {
	UserID    string `json:"user_id"`
	ProjectID string `json:"project_id"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant(w, r)
	if !ok {
		return
	}
	var req startSessionRequest
	if !decode(w, r, &req) {
		return
	}

	sess, err := s.sessions.Start(r.Context(), tenantID, session.StartRequest{
		UserID:    req.UserID,
		ProjectID: req.ProjectID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant(w, r)
	if !ok {
		return
	}
	sess, err := s.sessions.Get(r.Context(), tenantID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSessionMessages(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant(w, r)
	if !ok {
		return
	}
	messages, err := s.sessions.History(r.Context(), tenantID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

type commitTurnRequest struct {
	MessageID        string              `json:"message_id"`
	UserMessage      string              `json:"user_message"`
	AssistantMessage string              `json:"assistant_message"`
	Assessment       *session.Assessment `json:"assessment,omitempty"`
	ExpectedVersion  *int64              `json:"expected_version,omitempty"`
}

func (s *Server) handleCommitTurn(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant(w, r)
	if !ok {
		return
	}
	var req commitTurnRequest
	if !decode(w, r, &req) {
		return
	}

	now := time.Now()
	result, err := s.sessions.CommitTurn(r.Context(), tenantID, session.CommitRequest{
		SessionID:        chi.URLParam(r, "id"),
		MessageID:        req.MessageID,
		UserMessage:      session.Message{Role: "user", Content: req.UserMessage, Timestamp: now},
		AssistantMessage: session.Message{Role: "assistant", Content: req.AssistantMessage, Timestamp: now},
		Assessment:       req.Assessment,
		ExpectedVersion:  req.ExpectedVersion,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	status := http.StatusOK
	if result.Status == session.StatusVersionConflict {
		status = http.StatusConflict
	}
	writeJSON(w, status, result)
}

type generateNarrativeRequest struct {
	PreserveEdits *bool `json:"preserve_edits,omitempty"`
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request, force bool) {
	tenantID, ok := tenant(w, r)
	if !ok {
		return
	}

	req := narrative.GenerateRequest{
		ProjectID:       chi.URLParam(r, "id"),
		ForceRegenerate: force,
		PreserveEdits:   true,
	}
	if r.ContentLength > 0 {
		var body generateNarrativeRequest
		if !decode(w, r, &body) {
			return
		}
		if body.PreserveEdits != nil {
			req.PreserveEdits = *body.PreserveEdits
		}
	}

	result, err := s.narratives.Generate(r.Context(), tenantID, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGenerateNarrative(w http.ResponseWriter, r *http.Request) {
	s.generate(w, r, false)
}

func (s *Server) handleRegenerateNarrative(w http.ResponseWriter, r *http.Request) {
	s.generate(w, r, true)
}

func (s *Server) handleGetNarrative(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant(w, r)
	if !ok {
		return
	}
	nar, err := s.narratives.GetByProject(r.Context(), tenantID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nar)
}

type recordEditRequest struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

func (s *Server) handleRecordEdit(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant(w, r)
	if !ok {
		return
	}
	var req recordEditRequest
	if !decode(w, r, &req) {
		return
	}

	nar, err := s.narratives.RecordEdit(r.Context(), tenantID, chi.URLParam(r, "id"), req.Field, req.Value)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nar)
}

func (s *Server) handleVersionDiff(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant(w, r)
	if !ok {
		return
	}

	from, err1 := strconv.ParseInt(r.URL.Query().Get("from"), 10, 64)
	to, err2 := strconv.ParseInt(r.URL.Query().Get("to"), 10, 64)
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, codeValidationError, "from and to must be version numbers")
		return
	}

	diff, err := s.narratives.Diff(r.Context(), tenantID, chi.URLParam(r, "id"), from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, diff)
}
