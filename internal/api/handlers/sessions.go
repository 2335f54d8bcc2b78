package handlers

import (
	"net/http"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Tomcat63/FinanceAnalyzer/internal/api/middleware"
	"github.com/Tomcat63/FinanceAnalyzer/internal/domain"
	"github.com/Tomcat63/FinanceAnalyzer/internal/jobs"
	"github.com/Tomcat63/FinanceAnalyzer/internal/session"
	"github.com/Tomcat63/FinanceAnalyzer/internal/store"
	"github.com/Tomcat63/FinanceAnalyzer/internal/view"
)

// SessionsHandler handles session lifecycle, ingestion and view endpoints.
type SessionsHandler struct {
	sessions  *session.Manager
	publisher jobs.Publisher
	source    TransactionSource
	log       zerolog.Logger
}

// NewSessionsHandler creates a new sessions handler. source may be nil when
// the upstream import is not configured.
func NewSessionsHandler(sessions *session.Manager, publisher jobs.Publisher, source TransactionSource, log zerolog.Logger) *SessionsHandler {
	return &SessionsHandler{
		sessions:  sessions,
		publisher: publisher,
		source:    source,
		log:       log,
	}
}

type ingestResponse struct {
	SessionID string       `json:"sessionId"`
	Status    store.Status `json:"status"`
	Count     int          `json:"count"`
	Bounds    store.Bounds `json:"bounds"`
	JobID     string       `json:"jobId,omitempty"`
}

// CreateSession handles POST /api/sessions
func (h *SessionsHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()

	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"sessionId": s.ID,
		"createdAt": s.CreatedAt.Format(time.RFC3339),
	})
}

// EndSession handles DELETE /api/sessions/{id}
func (h *SessionsHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(mux.Vars(r)["id"]); err != nil {
		writeErr(w, requestLog(r, h.log), err, "Session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReplaceTransactions handles PUT /api/sessions/{id}/transactions
func (h *SessionsHandler) ReplaceTransactions(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.sessions, h.log)
	if !ok {
		return
	}

	var batch domain.Batch
	if err := decodeJSON(w, r, &batch); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, h.ingest(r, s, batch))
}

// ImportTransactions handles POST /api/sessions/{id}/import
func (h *SessionsHandler) ImportTransactions(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.sessions, h.log)
	if !ok {
		return
	}
	if h.source == nil {
		middleware.WriteError(w, http.StatusNotImplemented, "Transaction import is not configured")
		return
	}

	var req struct {
		From civil.Date `json:"from"`
		To   civil.Date `json:"to"`
	}
	if err := decodeJSON(w, r, &req); err != nil || !req.From.IsValid() || !req.To.IsValid() {
		middleware.WriteError(w, http.StatusBadRequest, "from and to are required (YYYY-MM-DD)")
		return
	}
	if req.To.Before(req.From) {
		middleware.WriteError(w, http.StatusBadRequest, "to must not be before from")
		return
	}

	s.Store().MarkLoading()
	batch, err := h.source.Fetch(r.Context(), req.From, req.To)
	if err != nil {
		s.Store().MarkFailed(err)
		reqLog := requestLog(r, h.log)
		reqLog.Error().Err(err).Str("session_id", s.ID).Msg("Failed to import transactions")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to import transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, h.ingest(r, s, batch))
}

// ingest replaces the session data and triggers the advisory run for a
// non-empty set. A full queue leaves the advisory to an explicit trigger.
func (h *SessionsHandler) ingest(r *http.Request, s *session.Session, batch domain.Batch) ingestResponse {
	bounds := s.Ingest(batch.Transactions, batch.Balance, batch.BalanceHistory)

	resp := ingestResponse{
		SessionID: s.ID,
		Status:    s.Store().Status(),
		Count:     len(batch.Transactions),
		Bounds:    bounds,
	}
	if len(batch.Transactions) == 0 {
		return resp
	}

	job := &jobs.AdvisoryJob{SessionID: s.ID}
	if err := h.publisher.PublishAdvisory(r.Context(), job); err != nil {
		reqLog := requestLog(r, h.log)
		reqLog.Warn().Err(err).Str("session_id", s.ID).Msg("Failed to enqueue advisory job")
		return resp
	}
	resp.JobID = job.JobID
	return resp
}

// ClearTransactions handles DELETE /api/sessions/{id}/transactions
func (h *SessionsHandler) ClearTransactions(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.sessions, h.log)
	if !ok {
		return
	}
	s.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// ListTransactions handles GET /api/sessions/{id}/transactions
// Query parameters from, to, q, sort and dir override the session view.
func (h *SessionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.sessions, h.log)
	if !ok {
		return
	}

	q, err := queryFromRequest(r, s.Query())
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs := s.View(q)
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
		"query":        q,
		"status":       s.Store().Status(),
	})
}

// SetView handles PUT /api/sessions/{id}/view
// lastDays, when set, replaces from/to with a range ending at the newest
// booking date (today without data).
func (h *SessionsHandler) SetView(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.sessions, h.log)
	if !ok {
		return
	}

	var req struct {
		From     *civil.Date `json:"from"`
		To       *civil.Date `json:"to"`
		Search   string      `json:"search"`
		LastDays int         `json:"lastDays"`
	}
	if err := decodeJSON(w, r, &req); err != nil || req.LastDays < 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.LastDays > 0 {
		end := civil.DateOf(time.Now())
		if b := s.Store().Bounds(); b.Valid {
			end = b.To
		}
		from, to := view.LastDays(end, req.LastDays)
		req.From, req.To = &from, &to
	}

	middleware.WriteJSON(w, http.StatusOK, s.SetFilter(req.From, req.To, req.Search))
}

// ToggleSort handles POST /api/sessions/{id}/view/sort
func (h *SessionsHandler) ToggleSort(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.sessions, h.log)
	if !ok {
		return
	}

	var req struct {
		Field string `json:"field"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	field, err := view.ParseField(req.Field)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, s.ToggleSort(field))
}

// queryFromRequest overlays URL parameters on the session's view settings.
func queryFromRequest(r *http.Request, q view.Query) (view.Query, error) {
	params := r.URL.Query()

	if params.Has("from") {
		from, err := parseDate(params.Get("from"))
		if err != nil {
			return q, err
		}
		q.From = from
	}
	if params.Has("to") {
		to, err := parseDate(params.Get("to"))
		if err != nil {
			return q, err
		}
		q.To = to
	}
	if params.Has("q") {
		q.Search = params.Get("q")
	}
	if params.Has("sort") {
		field, err := view.ParseField(params.Get("sort"))
		if err != nil {
			return q, err
		}
		q.Sort = view.Sort{Field: field, Direction: view.DefaultDirection(field)}
	}
	if params.Has("dir") {
		dir, err := view.ParseDirection(params.Get("dir"))
		if err != nil {
			return q, err
		}
		q.Sort.Direction = dir
	}
	return q, nil
}
