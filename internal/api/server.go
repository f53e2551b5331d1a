// Package api serves the read-only HTTP surface: current transmitter status
// and the transmission history. The serial console remains the only command
// surface; nothing here mutates radio state.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"tailscale.com/tsweb"

	"github.com/banshee-data/fskstream/internal/db"
	"github.com/banshee-data/fskstream/internal/txctl"
)

// StatusSource yields the transmitter state snapshot. Implemented by
// *txctl.Loop.
type StatusSource interface {
	Status() txctl.Status
}

// HistorySource yields recorded sessions. Implemented by *db.DB.
type HistorySource interface {
	RecentTransmissions(limit int) ([]db.Transmission, error)
}

type Server struct {
	status  StatusSource
	history HistorySource
	log     *log.Logger
}

func NewServer(status StatusSource, history HistorySource, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{status: status, history: history, log: logger}
}

// ServeMux returns the API routes, intended to be mounted under /api.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/transmissions", s.handleTransmissions)
	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.status.Status())
}

func (s *Server) handleTransmissions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	history, err := s.history.RecentTransmissions(limit)
	if err != nil {
		s.log.Error("failed to read transmission history", "err", err)
		http.Error(w, "failed to read history", http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []db.Transmission{}
	}
	writeJSON(w, history)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// AttachAdminRoutes mounts debugging endpoints under /debug/. These are only
// reachable over localhost or the tailnet, per tsweb's access checks.
func (s *Server) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	debug.HandleSilentFunc("tx-status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.status.Status())
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs method, path, status, and duration for each request.
func LoggingMiddleware(logger *log.Logger, next http.Handler) http.Handler {
	if logger == nil {
		logger = log.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", lrw.statusCode,
			"duration", time.Since(start).Round(time.Millisecond),
		)
	})
}
