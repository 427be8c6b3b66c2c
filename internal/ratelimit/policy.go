package ratelimit

import (
	"weatherwager/internal/config"
)

// Operation names. These are the stable identifiers used in store keys,
// route wiring and status endpoints; display names live in the policy table.
const (
	OpWeather   = "weatherApi"
	OpGeocoding = "geocoding"
	OpMapClick  = "mapClick"
)

// PoliciesFromConfig builds the per-operation policy table from
// configuration. The exact numbers are deployment configuration; only the
// set of operation names is part of the service's contract.
func PoliciesFromConfig(cfg config.RateLimitConfig) map[string]Policy {
	return map[string]Policy{
		OpWeather: {
			MaxRequests: cfg.WeatherMaxRequests,
			Window:      cfg.WeatherWindow,
			DisplayName: "Weather API",
		},
		OpGeocoding: {
			MaxRequests: cfg.GeocodingMax,
			Window:      cfg.GeocodingWindow,
			DisplayName: "Geocoding",
		},
		OpMapClick: {
			MaxRequests: cfg.MapClickMax,
			Window:      cfg.MapClickWindow,
			DisplayName: "Map Click",
		},
	}
}
