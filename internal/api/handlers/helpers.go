package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Tomcat63/FinanceAnalyzer/internal/advisory"
	"github.com/Tomcat63/FinanceAnalyzer/internal/api/middleware"
	"github.com/Tomcat63/FinanceAnalyzer/internal/jobs"
	"github.com/Tomcat63/FinanceAnalyzer/internal/logger"
	"github.com/Tomcat63/FinanceAnalyzer/internal/session"
)

// maxBodyBytes caps request bodies; a full year of transactions fits easily.
const maxBodyBytes = 16 << 20

// decodeJSON reads the request body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decodeJSON: %w", err)
	}
	return nil
}

// statusFor maps sentinel errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, advisory.ErrTipNotFound),
		errors.Is(err, jobs.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, jobs.ErrQueueFull),
		errors.Is(err, jobs.ErrQueueClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeErr logs err and writes msg with the status derived from err.
func writeErr(w http.ResponseWriter, log zerolog.Logger, err error, msg string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg(msg)
	} else {
		log.Warn().Err(err).Msg(msg)
	}
	middleware.WriteError(w, status, msg)
}

// requestLog returns the request-scoped logger stored by the Logger
// middleware, or fallback when the handler runs without it.
func requestLog(r *http.Request, fallback zerolog.Logger) zerolog.Logger {
	if _, ok := r.Context().Value(logger.LoggerKey).(zerolog.Logger); ok {
		return logger.FromContext(r.Context())
	}
	return fallback
}

// lookupSession resolves the {id} path variable.
func lookupSession(w http.ResponseWriter, r *http.Request, sessions *session.Manager, log zerolog.Logger) (*session.Session, bool) {
	s, err := sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, requestLog(r, log), err, "Session not found")
		return nil, false
	}
	return s, true
}

// parseDate parses an optional YYYY-MM-DD value.
func parseDate(s string) (*civil.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return &d, nil
}
