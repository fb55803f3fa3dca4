// Package httpapi wires the HTTP surface of the card tracking service.
// It keeps handlers thin, delegating business rules to the service layer.
package httpapi

import (
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/cardops/cardtrack/internal/analytics"
	"github.com/cardops/cardtrack/internal/service/lookup"
	"github.com/cardops/cardtrack/internal/service/tracking"
)

// Server wires handlers and middleware using Chi.
type Server struct {
	trackingSvc tracking.Service
	lookupSvc   lookup.Service
	repo        Repository
	// analytics may be nil when no snapshot file is configured; the endpoint
	// then serves a zero-valued snapshot.
	analytics *analytics.Loader
	apiKey    string
	log       *slog.Logger
	rt        *chi.Mux
}

// Option customizes the server at construction time.
type Option func(*Server)

// WithAPIKey enables the X-API-Key equality check on the webhook ingress.
func WithAPIKey(key string) Option {
	return func(s *Server) { s.apiKey = key }
}

// WithAnalytics serves the given loader's snapshot on GET /analytics.
func WithAnalytics(l *analytics.Loader) Option {
	return func(s *Server) { s.analytics = l }
}

// New constructs the HTTP server with routes and middleware.
// The logger is used by request/response logging and panic recovery.
func New(trackingSvc tracking.Service, lookupSvc lookup.Service, repo Repository, logger *slog.Logger, opts ...Option) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	s := &Server{
		trackingSvc: trackingSvc,
		lookupSvc:   lookupSvc,
		repo:        repo,
		log:         logger,
		rt:          r,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints and attaches any per-route
// middleware.
func (s *Server) routes() {
	// Webhook ingress
	s.rt.With(s.requireAPIKey()).Post("/update-card-status", s.updateCardStatus)
	// Cards
	s.rt.Post("/cards", s.postCard)
	s.rt.Get("/cards", s.listCards)
	s.rt.Get("/cards/search", s.searchCards)
	s.rt.Get("/cards/lookup", s.lookupCard)
	s.rt.Get("/cards/{cardID}", s.getCard)
	// Analytics (precomputed snapshot)
	s.rt.Get("/analytics", s.getAnalytics)
	// Health
	s.rt.Get("/health", s.health)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	// Metrics
	s.rt.Get("/metrics", metricsHandler().ServeHTTP)
}
