// Package core provides the API chassis for the notification service.
// It creates a chi router and enforces cross-cutting concerns (panic
// recovery, request correlation, logging, caller identity) before requests
// reach domain-specific handlers.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bullhorn/internal/config"
)

// Server encapsulates the chassis dependencies for the API, allowing for easy
// injection during testing and distinct configuration per environment.
type Server struct {
	Config    *config.Config
	Logger    *slog.Logger
	Validator *Validator

	// V1RouteRegistrars are populated by the application entry point before
	// MountRoutes is called. This indirection avoids import cycles between
	// core and the handler packages.
	V1RouteRegistrars []func(chi.Router)

	// HealthProbes are checked by the /health endpoint.
	HealthProbes []HealthProbe

	router *chi.Mux
}

// NewServer initializes the chassis and prepares the server for route
// mounting. The caller is responsible for appending route registrars and
// calling MountRoutes after construction.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(),
		router:    chi.NewRouter(),
	}, nil
}

// Handler returns the http.Handler interface for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration and tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown performs a graceful termination of server-held resources.
// Connection pools and AWS clients are owned by main and closed there.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.InfoContext(ctx, "server shutdown complete")
	return nil
}
