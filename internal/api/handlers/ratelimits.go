package handlers

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"weatherwager/internal/core"
	"weatherwager/internal/ratelimit"
	"weatherwager/internal/types"
)

// RateLimitHandler exposes read-only limiter status and explicit resets.
type RateLimitHandler struct {
	limiter *ratelimit.Limiter
}

// NewRateLimitHandler creates a RateLimitHandler.
func NewRateLimitHandler(limiter *ratelimit.Limiter) *RateLimitHandler {
	return &RateLimitHandler{limiter: limiter}
}

// RegisterRoutes mounts the rate-limit endpoints.
func (h *RateLimitHandler) RegisterRoutes(r chi.Router) {
	r.Route("/ratelimits", func(r chi.Router) {
		r.Get("/", h.HandleListStatus)
		r.Post("/reset", h.HandleResetAll)
		r.Get("/{operation}", h.HandleStatus)
		r.Post("/{operation}/reset", h.HandleReset)
	})
}

// HandleListStatus handles GET /v1/ratelimits, reporting every configured
// operation's window without recording requests.
func (h *RateLimitHandler) HandleListStatus(w http.ResponseWriter, r *http.Request) {
	ops := h.limiter.Operations()
	sort.Strings(ops)

	statuses := make(map[string]*ratelimit.Status, len(ops))
	for _, op := range ops {
		statuses[op] = h.limiter.Status(r.Context(), op)
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: statuses})
}

// HandleStatus handles GET /v1/ratelimits/{operation}.
func (h *RateLimitHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	operation := chi.URLParam(r, "operation")

	status := h.limiter.Status(r.Context(), operation)
	if status == nil {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeNotFoundOperation,
			"no rate limit configured for operation "+operation,
			nil,
		))
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: status})
}

// HandleReset handles POST /v1/ratelimits/{operation}/reset. Idempotent:
// resetting an untouched or unknown operation succeeds.
func (h *RateLimitHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	operation := chi.URLParam(r, "operation")

	if err := h.limiter.Reset(r.Context(), operation); err != nil {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeInternalStore,
			"resetting rate limit failed",
			err,
		))
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: map[string]string{"reset": operation}})
}

// HandleResetAll handles POST /v1/ratelimits/reset.
func (h *RateLimitHandler) HandleResetAll(w http.ResponseWriter, r *http.Request) {
	if err := h.limiter.ResetAll(r.Context()); err != nil {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeInternalStore,
			"resetting rate limits failed",
			err,
		))
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: map[string]string{"reset": "all"}})
}
