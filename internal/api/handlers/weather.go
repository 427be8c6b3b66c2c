// Package handlers contains the HTTP handler implementations for the
// weather-wager API: weather lookups, order validation/placement/evaluation,
// the Time Machine simulation, the token wallet, and rate-limit status.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"weatherwager/internal/core"
	"weatherwager/internal/ratelimit"
	"weatherwager/internal/types"
)

// WeatherGateway is the service contract for the weather handler, defined
// locally per the handler injection pattern.
type WeatherGateway interface {
	CurrentWeather(ctx context.Context, city string) (*types.CurrentWeather, error)
	Forecast(ctx context.Context, city string) ([]types.ForecastEntry, error)
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

// WeatherHandler maps HTTP requests to WeatherGateway calls, gated by the
// local rate limiter.
type WeatherHandler struct {
	gateway WeatherGateway
	server  *core.Server
	logger  *slog.Logger
}

// NewWeatherHandler creates a WeatherHandler.
func NewWeatherHandler(gateway WeatherGateway, server *core.Server, logger *slog.Logger) *WeatherHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WeatherHandler{
		gateway: gateway,
		server:  server,
		logger:  logger,
	}
}

// RegisterRoutes mounts the weather endpoints. Weather lookups share one
// limiter operation; reverse geocoding is additionally gated by the
// map-click operation because the UI drives it from map interaction.
func (h *WeatherHandler) RegisterRoutes(r chi.Router) {
	r.Route("/weather", func(r chi.Router) {
		r.Use(h.server.RateLimit(ratelimit.OpWeather))
		r.Get("/current", h.HandleCurrent)
		r.Get("/forecast", h.HandleForecast)
	})
	r.Route("/geocode", func(r chi.Router) {
		r.Use(h.server.RateLimit(ratelimit.OpMapClick))
		r.Use(h.server.RateLimit(ratelimit.OpGeocoding))
		r.Get("/reverse", h.HandleReverseGeocode)
	})
	r.Get("/conditions", h.HandleListConditions)
}

// HandleCurrent handles GET /v1/weather/current?city=...
func (h *WeatherHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	if city == "" {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"city query parameter is required",
			nil,
		))
		return
	}

	current, err := h.gateway.CurrentWeather(r.Context(), city)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: current})
}

// HandleForecast handles GET /v1/weather/forecast?city=...
func (h *WeatherHandler) HandleForecast(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	if city == "" {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"city query parameter is required",
			nil,
		))
		return
	}

	forecast, err := h.gateway.Forecast(r.Context(), city)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: forecast})
}

// HandleReverseGeocode handles GET /v1/geocode/reverse?lat=...&lon=...
// A failed lookup yields an empty suggestion, not an error.
func (h *WeatherHandler) HandleReverseGeocode(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"lat must be a valid number",
			nil,
		))
		return
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"lon must be a valid number",
			nil,
		))
		return
	}

	city, err := h.gateway.ReverseGeocode(r.Context(), lat, lon)
	if err != nil {
		// The gateway degrades geocoding failures to an empty suggestion.
		h.logger.Warn("reverse geocode error", slog.String("error", err.Error()))
		city = ""
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{
		Data: map[string]string{"city": city},
	})
}

// HandleListConditions handles GET /v1/conditions, serving the orderable
// weather condition catalogue for dropdowns.
func (h *WeatherHandler) HandleListConditions(w http.ResponseWriter, r *http.Request) {
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: types.WeatherConditions})
}
