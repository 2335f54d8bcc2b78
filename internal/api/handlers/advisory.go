package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Tomcat63/FinanceAnalyzer/internal/api/middleware"
	"github.com/Tomcat63/FinanceAnalyzer/internal/jobs"
	"github.com/Tomcat63/FinanceAnalyzer/internal/session"
)

// AdvisoryHandler handles the benchmark advisory endpoints.
type AdvisoryHandler struct {
	sessions  *session.Manager
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewAdvisoryHandler creates a new advisory handler.
func NewAdvisoryHandler(sessions *session.Manager, publisher jobs.Publisher, log zerolog.Logger) *AdvisoryHandler {
	return &AdvisoryHandler{
		sessions:  sessions,
		publisher: publisher,
		log:       log,
	}
}

// TriggerAdvisory handles POST /api/sessions/{id}/advisory
// Body {"refresh": true} supersedes an existing batch.
func (h *AdvisoryHandler) TriggerAdvisory(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.sessions, h.log)
	if !ok {
		return
	}

	var req struct {
		Refresh bool `json:"refresh"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	job := &jobs.AdvisoryJob{SessionID: s.ID, Refresh: req.Refresh}
	if err := h.publisher.PublishAdvisory(r.Context(), job); err != nil {
		writeErr(w, requestLog(r, h.log), err, "Failed to enqueue advisory job")
		return
	}

	reqLog := requestLog(r, h.log)

	reqLog.Info().Str("job_id", job.JobID).Str("session_id", s.ID).Msg("Advisory job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"jobId":     job.JobID,
		"sessionId": s.ID,
		"status":    string(job.Status),
	})
}

// GetAdvisory handles GET /api/sessions/{id}/advisory
func (h *AdvisoryHandler) GetAdvisory(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.sessions, h.log)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, s.Advisory().Snapshot())
}

// SelectTip handles PATCH /api/sessions/{id}/advisory/tips/{tipID}
func (h *AdvisoryHandler) SelectTip(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.sessions, h.log)
	if !ok {
		return
	}

	var req struct {
		Selected *bool `json:"selected"`
	}
	if err := decodeJSON(w, r, &req); err != nil || req.Selected == nil {
		middleware.WriteError(w, http.StatusBadRequest, "selected is required")
		return
	}

	if err := s.Advisory().SetSelected(mux.Vars(r)["tipID"], *req.Selected); err != nil {
		writeErr(w, requestLog(r, h.log), err, "Tip not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, s.Advisory().Snapshot())
}

// SetNotes handles PUT /api/sessions/{id}/advisory/notes
func (h *AdvisoryHandler) SetNotes(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.sessions, h.log)
	if !ok {
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.Advisory().SetNotes(req.Notes)
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"notes": s.Advisory().Notes()})
}
