// Package httpapi exposes the record lifecycle as a path-dispatched command
// API, plus health, readiness, and metrics endpoints.
//
// Command responses are always HTTP 200 with failures signaled by an in-band
// "error" field: the downstream platform parses bodies, never status codes.
// That contract is deliberate and must not be "improved". Health endpoints
// are for infrastructure and use conventional status codes.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/IDEMSInternational/epicsa-climate-records/internal/domain"
	"github.com/IDEMSInternational/epicsa-climate-records/internal/lifecycle"
	"github.com/IDEMSInternational/epicsa-climate-records/internal/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Lifecycle is the engine surface the command API requires.
type Lifecycle interface {
	CheckReadiness(ctx context.Context) error
	Record(ctx context.Context, sub domain.Submission) (lifecycle.RecordResult, error)
	Confirm(ctx context.Context, recordUUID string) error
	Retrieve(ctx context.Context, recordUUID string) (domain.ClimateRecord, error)
	Update(ctx context.Context, oldUUID string, sub domain.Submission) (lifecycle.RecordResult, error)
	ListRecent(ctx context.Context, contactUUID string, limit int) (lifecycle.RecentEntries, error)
}

// Server exposes the command API with health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	engine     Lifecycle
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates the HTTP server. Command paths are record, confirm,
// update, retrieve, and list_recent; anything else answers "Invalid path".
func NewServer(addr string, engine Lifecycle, logger *slog.Logger, metrics *observability.Metrics) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		engine:  engine,
		logger:  logger,
		metrics: metrics,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("/", s.handleCommand)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.engine.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
