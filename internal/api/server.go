// Package api provides the HTTP API server and handlers for Readwell.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/readwell/readwell-server/internal/metrics"
	"github.com/readwell/readwell-server/internal/ratelimit"
	"github.com/readwell/readwell-server/internal/sse"
	"github.com/readwell/readwell-server/internal/store"
)

// Options configures the HTTP surface.
type Options struct {
	AllowedOrigins []string
	Version        string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store      store.Store
	services   *Services
	sseManager *sse.Manager
	sseHandler *sse.Handler
	metrics    *metrics.Metrics
	limiter    *ratelimit.KeyedRateLimiter
	router     *chi.Mux
	api        huma.API
	logger     *slog.Logger
	opts       Options
}

// NewServer creates a new HTTP server with all routes configured.
// limiter may be nil to disable rate limiting of mutating requests.
func NewServer(
	st store.Store,
	services *Services,
	sseManager *sse.Manager,
	m *metrics.Metrics,
	limiter *ratelimit.KeyedRateLimiter,
	opts Options,
	logger *slog.Logger,
) *Server {
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}
	s := &Server{
		store:      st,
		services:   services,
		sseManager: sseManager,
		sseHandler: sse.NewHandler(sseManager, logger),
		metrics:    m,
		limiter:    limiter,
		router:     chi.NewRouter(),
		logger:     logger,
		opts:       opts,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Readwell API", opts.Version)
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, used by tests to wrap the server.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if s.metrics != nil {
		s.router.Use(metricsMiddleware(s.metrics))
	}
	if s.limiter != nil {
		s.router.Use(rateLimitMutations(s.limiter, s.logger))
	}
}

// setupRoutes registers the huma operations and the raw routes that stream
// or serve non-JSON bodies.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerArticleRoutes()
	s.registerHighlightRoutes()
	s.registerNoteRoutes()
	s.registerRenderRoutes()
	s.registerTagRoutes()

	s.router.Get("/api/v1/articles/{id}/export.md", s.handleExportMarkdown)
	s.router.Get("/api/v1/events", s.sseHandler.ServeHTTP)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}
}
