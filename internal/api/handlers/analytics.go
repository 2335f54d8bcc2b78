package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tomcat63/FinanceAnalyzer/internal/advisory"
	"github.com/Tomcat63/FinanceAnalyzer/internal/aggregate"
	"github.com/Tomcat63/FinanceAnalyzer/internal/api/middleware"
	"github.com/Tomcat63/FinanceAnalyzer/internal/archive"
	"github.com/Tomcat63/FinanceAnalyzer/internal/domain"
	"github.com/Tomcat63/FinanceAnalyzer/internal/export"
	"github.com/Tomcat63/FinanceAnalyzer/internal/report"
	"github.com/Tomcat63/FinanceAnalyzer/internal/session"
	"github.com/Tomcat63/FinanceAnalyzer/internal/view"
)

const (
	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// AnalyticsHandler serves aggregates and the generated documents.
type AnalyticsHandler struct {
	sessions *session.Manager
	analyzer Analyzer
	archiver archive.Archiver
	buildID  string
	now      func() time.Time
	log      zerolog.Logger
}

// NewAnalyticsHandler creates a new analytics handler. analyzer and archiver
// are optional.
func NewAnalyticsHandler(sessions *session.Manager, analyzer Analyzer, archiver archive.Archiver, buildID string, log zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		sessions: sessions,
		analyzer: analyzer,
		archiver: archiver,
		buildID:  buildID,
		now:      time.Now,
		log:      log,
	}
}

type summaryResponse struct {
	aggregate.Summary
	Balance *domain.CurrentBalance `json:"balance,omitempty"`
	History []domain.BalancePoint  `json:"balanceHistory"`
	Query   view.Query             `json:"query"`
}

// GetSummary handles GET /api/sessions/{id}/summary
// Optional parameters: granularity (day|month), order (amount|count), dir.
func (h *AnalyticsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.sessions, h.log)
	if !ok {
		return
	}

	params := r.URL.Query()
	q, err := queryFromRequest(r, s.Query())
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	granularity, err := aggregate.ParseGranularity(params.Get("granularity"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := summaryResponse{
		Summary: aggregate.Summarize(s.View(q), granularity),
		History: s.Store().History(),
		Query:   q,
	}

	if params.Has("order") {
		order, err := aggregate.ParseCategoryOrder(params.Get("order"))
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		desc := true
		if params.Has("dir") {
			dir, err := view.ParseDirection(params.Get("dir"))
			if err != nil {
				middleware.WriteError(w, http.StatusBadRequest, err.Error())
				return
			}
			desc = dir == view.Desc
		}
		resp.Categories = aggregate.SortCategories(resp.Categories, order, desc)
	}

	if b, ok := s.Store().Balance(); ok {
		resp.Balance = &b
	}
	if resp.History == nil {
		resp.History = []domain.BalancePoint{}
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
}

// Analyze handles POST /api/sessions/{id}/analysis
func (h *AnalyticsHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.sessions, h.log)
	if !ok {
		return
	}
	if h.analyzer == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "AI analysis is not configured")
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	txs := s.CurrentView()
	if len(txs) == 0 {
		middleware.WriteError(w, http.StatusConflict, "No transactions to analyze")
		return
	}

	text, err := h.analyzer.Analyze(r.Context(), aggregate.Categories(txs), aggregate.Largest(txs, aggregate.TopCount), req.Question)
	if err != nil {
		reqLog := requestLog(r, h.log)
		reqLog.Error().Err(err).Str("session_id", s.ID).Msg("AI analysis failed")
		middleware.WriteError(w, http.StatusBadGateway, "AI analysis failed")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"analysis": text})
}

// DownloadReport handles GET /api/sessions/{id}/report
// With ?archive=true and a configured archive the PDF is also stored; the
// URI is returned in the X-Report-Archive header.
func (h *AnalyticsHandler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.sessions, h.log)
	if !ok {
		return
	}

	doc, pdf, err := report.Generate(s.ReportInput(h.buildID, h.now()))
	if err != nil {
		reqLog := requestLog(r, h.log)
		reqLog.Error().Err(err).Str("session_id", s.ID).Msg("Failed to generate report")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to generate report")
		return
	}

	if archiveRequested(r) && h.archiver != nil {
		uri, err := h.archiver.Save(r.Context(), s.ID, doc.FileName, contentTypePDF, pdf)
		if err != nil {
			reqLog := requestLog(r, h.log)
			reqLog.Error().Err(err).Str("session_id", s.ID).Msg("Failed to archive report")
		} else {
			w.Header().Set("X-Report-Archive", uri)
		}
	}

	reqLog := requestLog(r, h.log)

	reqLog.Info().
		Str("session_id", s.ID).
		Int("pages", len(doc.Pages)).
		Int("bytes", len(pdf)).
		Msg("Report generated")

	writeAttachment(w, contentTypePDF, doc.FileName, pdf)
}

// DownloadExport handles GET /api/sessions/{id}/export
func (h *AnalyticsHandler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.sessions, h.log)
	if !ok {
		return
	}

	q, err := queryFromRequest(r, s.Query())
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, s.View(q)); err != nil {
		if errors.Is(err, export.ErrEmpty) {
			middleware.WriteError(w, http.StatusConflict, "No transactions to export")
			return
		}
		reqLog := requestLog(r, h.log)
		reqLog.Error().Err(err).Str("session_id", s.ID).Msg("Failed to export transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to export transactions")
		return
	}

	writeAttachment(w, contentTypeXLSX, export.FileName(h.now()), buf.Bytes())
}

func archiveRequested(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("archive"))
	return err == nil && v
}

func writeAttachment(w http.ResponseWriter, contentType, fileName string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

var _ Analyzer = (*advisory.Analyst)(nil)
