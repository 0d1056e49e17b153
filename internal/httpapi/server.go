// Package httpapi exposes the read-only ops surface: health, Prometheus
// metrics and a signal-window stats endpoint.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/solradar/radar/internal/persistence"
)

// Server is the ops HTTP server. It never mutates pipeline state.
type Server struct {
	router     *mux.Router
	server     *http.Server
	signals    persistence.SignalRepo
	windowDays int
	started    time.Time
}

// NewServer builds an ops server. signals may be nil, in which case the
// stats endpoint reports unavailable.
func NewServer(addr string, signals persistence.SignalRepo, windowDays int) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		signals:    signals,
		windowDays: windowDays,
		started:    time.Now(),
	}
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/stats", s.handleStats).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"uptime_seconds": int(time.Since(s.started).Seconds()),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.signals == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error": "signal store not configured",
		})
		return
	}
	since := time.Now().AddDate(0, 0, -s.windowDays)
	count, err := s.signals.Count(r.Context(), since)
	if err != nil {
		log.Error().Err(err).Msg("stats query failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": "failed to query signal store",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"signals_in_window": count,
		"window_days":       s.windowDays,
	})
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapper, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// Start blocks serving requests until shutdown or listen failure.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("ops server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
