// Package server provides the HTTP server and routing for chainlens.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/chainlens/internal/aggregate"
	"github.com/aristath/chainlens/internal/config"
	"github.com/aristath/chainlens/internal/domain"
	"github.com/aristath/chainlens/internal/scheduler"
	"github.com/aristath/chainlens/internal/search"
)

// AnalyzeService is the aggregation side of the API.
type AnalyzeService interface {
	Aggregate(ctx context.Context, query string, opts aggregate.Options) (*domain.AggregatedRecord, error)
}

// SearchService is the autocomplete side of the API.
type SearchService interface {
	Search(ctx context.Context, query string, limit int) ([]search.Result, error)
}

// Config holds server configuration.
type Config struct {
	Log            zerolog.Logger
	Config         *config.Config
	Analyze        AnalyzeService
	Search         SearchService
	SystemHandlers *SystemHandlers
	Scheduler      *scheduler.Scheduler
}

// Server represents the HTTP server.
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	analyze        AnalyzeService
	search         SearchService
	systemHandlers *SystemHandlers
	sched          *scheduler.Scheduler
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		cfg:            cfg.Config,
		analyze:        cfg.Analyze,
		search:         cfg.Search,
		systemHandlers: cfg.SystemHandlers,
		sched:          cfg.Scheduler,
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(s.requestIDMiddleware)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout, slightly above the aggregation deadline so the engine's
	// own degradation path runs before the transport cuts the request.
	s.router.Use(middleware.Timeout(s.cfg.AggregateTimeout + 5*time.Second))

	// CORS: the API is public and read-only
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/analyze", s.handleAnalyze)
		r.Get("/search", s.handleSearch)

		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Get("/cache/stats", s.systemHandlers.HandleCacheStats)

			// Manual job triggers
			r.Post("/jobs/search-rebuild", s.handleTriggerJob("search_index_rebuild"))
			r.Post("/jobs/cache-cleanup", s.handleTriggerJob("client_data_cleanup"))
		})
	})
}

// handleTriggerJob runs a scheduled job on demand.
func (s *Server) handleTriggerJob(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.sched == nil {
			s.writeError(w, http.StatusServiceUnavailable, "scheduler not running", "")
			return
		}
		if err := s.sched.RunNow(name); err != nil {
			s.writeError(w, http.StatusInternalServerError, "job failed", err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "job": name})
	}
}

// requestIDMiddleware tags every request with a UUID for log correlation.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
