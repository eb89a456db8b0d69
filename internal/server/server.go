// Package server exposes the automation pipeline over HTTP: authenticated
// trigger endpoints plus a health check.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"dailybrief/internal/config"
	"dailybrief/internal/core"
	"dailybrief/internal/logger"
	"dailybrief/internal/store"
)

// Runner executes an automation run. Implemented by pipeline.Orchestrator.
type Runner interface {
	Run(ctx context.Context, topics []core.TopicConfig, headers map[string]string) (*core.RunReport, error)
}

// RequestStore looks up queued automation requests by id.
type RequestStore interface {
	GetAutomationRequest(ctx context.Context, id int64) (*store.AutomationRequest, error)
}

// Server is the trigger HTTP server.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	runner     Runner
	requests   RequestStore
	config     config.Server
}

// New creates the HTTP server. requests may be nil, which disables the
// trigger-by-id endpoint.
func New(runner Runner, requests RequestStore, cfg config.Server) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		runner:   runner,
		requests: requests,
		config:   cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  parseTimeout(cfg.ReadTimeout, 30*time.Second),
		WriteTimeout: parseTimeout(cfg.WriteTimeout, 120*time.Second),
	}

	return s
}

func parseTimeout(raw string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	return fallback
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	if s.config.CORS.Enabled {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.CORS.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	// Trigger endpoints require a valid backend-issued JWT.
	s.router.Group(func(r chi.Router) {
		r.Use(JWTAuth(s.config.JWTSecret))
		r.Post("/trigger", s.handleTrigger)
		r.Get("/trigger-by-id/{id}", s.handleTriggerByID)
	})
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	logger.Info("Starting HTTP server", "addr", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// Router returns the chi router instance (useful for testing).
func (s *Server) Router() *chi.Mux {
	return s.router
}
