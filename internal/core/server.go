// Package core provides the API chassis for the weather-wager service. It
// creates a chi router and enforces cross-cutting concerns -- request
// identification, logging, panic recovery, and local rate limiting -- before
// requests reach domain-specific handlers.
package core

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"weatherwager/internal/config"
	"weatherwager/internal/ratelimit"
)

// Server encapsulates the dependencies shared by all handlers, allowing for
// easy injection during testing.
type Server struct {
	Config  *config.Config
	Logger  *slog.Logger
	Limiter *ratelimit.Limiter

	router *chi.Mux
}

// NewServer initializes the chassis. The caller mounts routes after
// construction; this separation lets tests customize route registration.
func NewServer(cfg *config.Config, limiter *ratelimit.Limiter, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if limiter == nil {
		return nil, fmt.Errorf("rate limiter must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config:  cfg,
		Logger:  logger,
		Limiter: limiter,
		router:  chi.NewRouter(),
	}, nil
}

// Handler returns the http.Handler interface for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}
