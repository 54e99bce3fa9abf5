package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skypro1111/voice-translate-service/internal/config"
	"github.com/skypro1111/voice-translate-service/internal/language"
	"github.com/skypro1111/voice-translate-service/internal/metrics"
	"github.com/skypro1111/voice-translate-service/internal/pipeline"
	"github.com/skypro1111/voice-translate-service/internal/storage"
	"github.com/skypro1111/voice-translate-service/internal/stream"
	"github.com/skypro1111/voice-translate-service/internal/transcription"
)

const (
	serviceName    = "voice-translate-service"
	serviceVersion = "1.0.0"
)

// Dependencies are the components the server reports on. Pipeline, Recognizer
// and Store may be nil.
type Dependencies struct {
	Registry   *stream.Registry
	Pipeline   *pipeline.Orchestrator
	Recognizer *transcription.Client
	Store      storage.Store
	Metrics    *metrics.Metrics
	Gatherer   prometheus.Gatherer
}

// Server provides the websocket endpoint and the HTTP API
type Server struct {
	server   *http.Server
	logger   *slog.Logger
	config   *config.Config
	deps     Dependencies
	upgrader websocket.Upgrader

	startTime time.Time
}

// New creates the HTTP server
func New(cfg *config.Config, deps Dependencies, logger *slog.Logger) (*Server, error) {
	if deps.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if deps.Metrics == nil {
		return nil, fmt.Errorf("metrics are required")
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		logger:    logger,
		config:    cfg,
		deps:      deps,
		startTime: time.Now(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}

	mux := http.NewServeMux()
	s.setupRoutes(mux)

	// No WriteTimeout: hijacked websocket connections manage their own deadlines.
	s.server = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Address, fmt.Sprintf("%d", cfg.Server.Port)),
		Handler:           mux,
		ReadHeaderTimeout: cfg.Server.GetReadTimeout(),
		IdleTimeout:       60 * time.Second,
	}

	return s, nil
}

// setupRoutes configures HTTP API routes
func (s *Server) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	mux.HandleFunc("GET /health", s.withMetrics("/health", s.handleHealth))
	mux.HandleFunc("GET /sessions", s.withMetrics("/sessions", s.handleSessions))
	mux.HandleFunc("GET /sessions/{id}", s.withMetrics("/sessions/{id}", s.handleSessionDetail))
	mux.HandleFunc("GET /stats", s.withMetrics("/stats", s.handleStats))
	mux.HandleFunc("GET /config", s.withMetrics("/config", s.handleConfig))
	mux.HandleFunc("GET /languages", s.withMetrics("/languages", s.handleLanguages))
	mux.HandleFunc("GET /history/{id}", s.withMetrics("/history/{id}", s.handleHistory))

	mux.Handle("GET /metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("GET /{$}", s.withMetrics("/", s.handleRoot))
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// withMetrics wraps an HTTP handler with metrics collection
func (s *Server) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(ww, r)

		duration := time.Since(startTime).Seconds()
		statusCode := fmt.Sprintf("%d", ww.statusCode)

		s.deps.Metrics.RecordHTTPRequest(r.Method, endpoint, statusCode, duration)

		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			s.deps.Metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// ListenAndServe serves until Stop is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("Starting HTTP server",
		slog.String("address", s.server.Addr),
	)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server. Hijacked websocket connections are
// not tracked by net/http; the registry closes them on shutdown.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server...")
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// handleHealth implements the /health endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	registryStats := s.deps.Registry.GetStats()

	components := map[string]any{
		"session_registry": map[string]any{
			"status":          "running",
			"active_sessions": registryStats.ActiveSessions,
			"queue_length":    registryStats.QueueLength,
		},
		"storage": map[string]any{
			"status":  s.componentStatus(s.deps.Store != nil),
			"backend": s.config.Storage.Backend,
		},
	}
	if s.deps.Pipeline != nil {
		ps := s.deps.Pipeline.GetStats()
		components["pipeline"] = map[string]any{
			"status":    "running",
			"processed": ps.Processed,
			"in_flight": ps.InFlight,
		}
	}
	if s.deps.Recognizer != nil {
		rs := s.deps.Recognizer.GetStats()
		components["recognizer"] = map[string]any{
			"status":          "running",
			"total_requests":  rs.TotalRequests,
			"success_rate":    rs.SuccessRate,
			"active_requests": rs.ActiveRequests,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(s.startTime).String(),
		"service": map[string]any{
			"name":    serviceName,
			"version": serviceVersion,
		},
		"components": components,
	})
}

func (s *Server) componentStatus(ok bool) string {
	if ok {
		return "running"
	}
	return "disabled"
}

// handleSessions implements the /sessions endpoint
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.deps.Registry.Sessions()
	writeJSON(w, http.StatusOK, map[string]any{
		"total_sessions": len(sessions),
		"timestamp":      time.Now().UTC(),
		"sessions":       sessions,
	})
}

// handleSessionDetail implements the /sessions/{id} endpoint
func (s *Server) handleSessionDetail(w http.ResponseWriter, r *http.Request) {
	info, err := s.deps.Registry.SessionInfo(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, stream.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleStats implements the /stats endpoint
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]any{
		"uptime":    time.Since(s.startTime).String(),
		"timestamp": time.Now().UTC(),
		"sessions":  s.deps.Registry.GetStats(),
	}
	if s.deps.Pipeline != nil {
		stats["pipeline"] = s.deps.Pipeline.GetStats()
	}
	if s.deps.Recognizer != nil {
		stats["recognizer"] = s.deps.Recognizer.GetStats()
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleConfig returns the configuration with secrets masked
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.config.Sanitized())
}

// handleLanguages reports the language usage ranking
func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "storage is not configured")
		return
	}

	stats, err := s.deps.Store.LanguageStats(r.Context())
	if err != nil {
		s.logger.Error("Failed to read language ranking", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to read language ranking")
		return
	}
	top, err := s.deps.Store.TopLanguages(r.Context())
	if err != nil {
		s.logger.Error("Failed to read language ranking", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to read language ranking")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"supported": language.Supported(),
		"ranking":   top,
		"usage":     stats,
	})
}

// handleHistory returns the persisted conversation of a session
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "storage is not configured")
		return
	}

	rec, err := s.deps.Store.Get(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "history not found")
	case err != nil:
		s.logger.Error("Failed to read history",
			slog.String("session_id", r.PathValue("id")),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to read history")
	default:
		writeJSON(w, http.StatusOK, rec)
	}
}

// handleRoot implements the / endpoint with API documentation
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": serviceName,
		"version": serviceVersion,
		"endpoints": map[string]string{
			"GET /":                     "API documentation",
			"GET /ws?session_id=":       "Websocket translation stream",
			"GET /health":               "Service health check",
			"GET /sessions":             "List live sessions",
			"GET /sessions/{id}":        "Live session details",
			"GET /stats":                "Service statistics",
			"GET /config":               "Service configuration (secrets masked)",
			"GET /languages":            "Language usage ranking",
			"GET /history/{session_id}": "Persisted conversation history",
			"GET /metrics":              "Prometheus metrics",
		},
		"timestamp": time.Now().UTC(),
	})
}
