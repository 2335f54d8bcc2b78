// Package api wires the HTTP handlers into a router.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Tomcat63/FinanceAnalyzer/internal/api/handlers"
	"github.com/Tomcat63/FinanceAnalyzer/internal/api/middleware"
	"github.com/Tomcat63/FinanceAnalyzer/internal/archive"
	"github.com/Tomcat63/FinanceAnalyzer/internal/jobs"
	"github.com/Tomcat63/FinanceAnalyzer/internal/session"
)

// Dependencies are the collaborators of the HTTP API. Source, Analyzer and
// Archiver are optional.
type Dependencies struct {
	Sessions  *session.Manager
	Publisher jobs.Publisher
	JobStore  jobs.JobStore
	Source    handlers.TransactionSource
	Analyzer  handlers.Analyzer
	Archiver  archive.Archiver
	BuildID   string

	// AllowedOrigin is the CORS origin; empty allows any.
	AllowedOrigin string
	Log           zerolog.Logger
}

// NewRouter builds the routed and middleware-wrapped handler.
func NewRouter(deps Dependencies) http.Handler {
	log := deps.Log

	sessionsHandler := handlers.NewSessionsHandler(deps.Sessions, deps.Publisher, deps.Source, log)
	analyticsHandler := handlers.NewAnalyticsHandler(deps.Sessions, deps.Analyzer, deps.Archiver, deps.BuildID, log)
	advisoryHandler := handlers.NewAdvisoryHandler(deps.Sessions, deps.Publisher, log)
	jobsHandler := handlers.NewJobsHandler(deps.JobStore, log)

	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"build":  deps.BuildID,
			"time":   time.Now().Format(time.RFC3339),
		})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// Sessions
	api.HandleFunc("/sessions", sessionsHandler.CreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", sessionsHandler.EndSession).Methods(http.MethodDelete)

	// Transactions and view
	api.HandleFunc("/sessions/{id}/transactions", sessionsHandler.ReplaceTransactions).Methods(http.MethodPut)
	api.HandleFunc("/sessions/{id}/transactions", sessionsHandler.ClearTransactions).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/transactions", sessionsHandler.ListTransactions).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/import", sessionsHandler.ImportTransactions).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/view", sessionsHandler.SetView).Methods(http.MethodPut)
	api.HandleFunc("/sessions/{id}/view/sort", sessionsHandler.ToggleSort).Methods(http.MethodPost)

	// Aggregates and documents
	api.HandleFunc("/sessions/{id}/summary", analyticsHandler.GetSummary).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/analysis", analyticsHandler.Analyze).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/report", analyticsHandler.DownloadReport).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/export", analyticsHandler.DownloadExport).Methods(http.MethodGet)

	// Advisory
	api.HandleFunc("/sessions/{id}/advisory", advisoryHandler.TriggerAdvisory).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/advisory", advisoryHandler.GetAdvisory).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/advisory/tips/{tipID}", advisoryHandler.SelectTip).Methods(http.MethodPatch)
	api.HandleFunc("/sessions/{id}/advisory/notes", advisoryHandler.SetNotes).Methods(http.MethodPut)

	// Jobs
	api.HandleFunc("/jobs", jobsHandler.ListJobs).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id}", jobsHandler.GetJob).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return middleware.Chain(r,
		middleware.Recovery(log),
		middleware.RequestID,
		middleware.Logger(log),
		middleware.CORS(deps.AllowedOrigin),
	)
}
