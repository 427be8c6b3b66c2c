package core

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouteRegistrar mounts a handler group onto a router.
type RouteRegistrar func(r chi.Router)

// MountRoutes applies the middleware stack and mounts the health endpoint
// plus every registered v1 handler group.
func (s *Server) MountRoutes(registrars ...RouteRegistrar) {
	r := s.router

	r.Use(s.Recoverer)
	r.Use(RequestID)
	r.Use(s.RequestLogger)

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		for _, register := range registrars {
			register(r)
		}
	})
}

// handleHealth reports liveness and build metadata.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	JSON(w, r, http.StatusOK, APIResponse{
		Data: map[string]string{
			"status":  "ok",
			"service": s.Config.Service,
			"version": s.Config.Build.Version,
			"commit":  s.Config.Build.Commit,
		},
	})
}
