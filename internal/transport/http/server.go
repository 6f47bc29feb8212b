package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/fbraun/melodia/internal/search"
)

// Server represents the HTTP server
type Server struct {
	handler *Handler
	server  *http.Server
	log     zerolog.Logger
	port    string
}

// NewServer creates a new HTTP server with the full middleware chain
func NewServer(searcher search.Service, port string, log zerolog.Logger) *Server {
	handler := NewHandler(searcher, log)
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(AccessLog(log))
	r.Use(metrics.Middleware)

	r.Route("/api", func(r chi.Router) {
		r.Post("/search", handler.Search)
		r.Get("/search/active", handler.ActiveSearch)
		r.Get("/history", handler.History)
		r.Delete("/history", handler.ClearHistory)
		r.Get("/playlists", handler.Playlists)
	})
	r.Get("/healthz", handler.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		handler: handler,
		server:  server,
		log:     log.With().Str("component", "server").Logger(),
		port:    port,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("port", s.port).Msg("server starting")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("server shutting down")
	return s.server.Shutdown(ctx)
}

// Port returns the server port
func (s *Server) Port() string {
	return s.port
}

// Handler returns the server handler (useful for testing)
func (s *Server) Handler() *Handler {
	return s.handler
}

// Router returns the fully wired HTTP handler (useful for testing)
func (s *Server) Router() http.Handler {
	return s.server.Handler
}
