package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/startupai-hq/evidence-core/internal/domain/evidence"
)

type addEvidenceRequest struct {
	Type         string  `json:"type"`
	Strength     string  `json:"strength"`
	QualityScore float64 `json:"quality_score"`
	Summary      string  `json:"summary"`
}

func (s *Server) handleAddEvidence(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant(w, r)
	if !ok {
		return
	}
	var req addEvidenceRequest
	if !decode(w, r, &req) {
		return
	}

	ev, err := s.evidence.AddEvidence(r.Context(), tenantID, evidence.AddEvidenceRequest{
		ProjectID:    chi.URLParam(r, "id"),
		Type:         req.Type,
		Strength:     req.Strength,
		QualityScore: req.QualityScore,
		Summary:      req.Summary,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (s *Server) handleUpdateEvidence(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant(w, r)
	if !ok {
		return
	}
	var ev evidence.Evidence
	if !decode(w, r, &ev) {
		return
	}
	ev.ID = chi.URLParam(r, "id")

	if err := s.evidence.UpdateEvidence(r.Context(), tenantID, &ev); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

type setHypothesisRequest struct {
	Statement string                    `json:"statement"`
	Status    evidence.HypothesisStatus `json:"status"`
}

func (s *Server) handleSetHypothesis(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant(w, r)
	if !ok {
		return
	}
	var req setHypothesisRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Status == "" {
		req.Status = evidence.HypothesisDraft
	}

	hyp, err := s.evidence.SetHypothesis(r.Context(), tenantID, chi.URLParam(r, "id"), req.Statement, req.Status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hyp)
}

type validationRunRequest struct {
	ID             string              `json:"id,omitempty"`
	HypothesisID   string              `json:"hypothesis_id,omitempty"`
	Gate           evidence.GateStage  `json:"gate"`
	Status         evidence.GateStatus `json:"status"`
	ReadinessScore float64             `json:"readiness_score"`
}

func (s *Server) handleRecordValidationRun(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant(w, r)
	if !ok {
		return
	}
	var req validationRunRequest
	if !decode(w, r, &req) {
		return
	}

	run, err := s.evidence.RecordValidationRun(r.Context(), tenantID, &evidence.ValidationRun{
		ID:             req.ID,
		ProjectID:      chi.URLParam(r, "id"),
		HypothesisID:   req.HypothesisID,
		Gate:           req.Gate,
		Status:         req.Status,
		ReadinessScore: req.ReadinessScore,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

type fieldsRequest struct {
	Fields map[string]any `json:"fields"`
}

func (s *Server) handleSetCanvas(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant(w, r)
	if !ok {
		return
	}
	var req fieldsRequest
	if !decode(w, r, &req) {
		return
	}

	canvas, err := s.evidence.SetCanvas(r.Context(), tenantID, chi.URLParam(r, "id"), req.Fields)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, canvas)
}

func (s *Server) handleSetProfile(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant(w, r)
	if !ok {
		return
	}
	var req fieldsRequest
	if !decode(w, r, &req) {
		return
	}

	profile, err := s.evidence.SetProfile(r.Context(), tenantID, chi.URLParam(r, "id"), req.Fields)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
