// Package config defines the global configuration structure for the
// weather-wager service. Configuration is loaded once at process
// initialization and is immutable thereafter. It follows 12-Factor App
// principles by strictly separating code from configuration.
//
// Values are resolved from the OS environment, optionally seeded by a dotenv
// file. Any missing required value or invalid format causes the application
// to fail immediately on startup.
package config

import (
	"time"
)

// Config is the top-level configuration struct. It is populated once during
// process initialization and never modified. Sub-components receive only the
// specific config subsets they require.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"weatherwager"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Domain Configurations
	Server    ServerConfig
	Weather   WeatherConfig
	Store     StoreConfig
	Wallet    WalletConfig
	RateLimit RateLimitConfig

	// Build Metadata (injected via ldflags, not Env)
	Build BuildInfo
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// WeatherConfig holds upstream weather and geocoding endpoint configuration.
type WeatherConfig struct {
	// OpenWeatherMap credentials. Requests fail with a credentials error
	// when empty; startup does not fail so the rest of the service (orders,
	// simulation, wallet) stays usable without a key.
	APIKey string `envconfig:"OPENWEATHER_API_KEY"`

	WeatherBaseURL   string        `envconfig:"WEATHER_BASE_URL" default:"https://api.openweathermap.org/data/2.5"`
	NominatimBaseURL string        `envconfig:"NOMINATIM_BASE_URL" default:"https://nominatim.openstreetmap.org"`
	RequestTimeout   time.Duration `envconfig:"WEATHER_REQUEST_TIMEOUT" default:"10s"`
	ForecastDays     int           `envconfig:"FORECAST_DAYS" default:"5" validate:"min=1,max=5"`
}

// StoreConfig selects and tunes the key-value store backing rate-limit
// records and the token balance.
type StoreConfig struct {
	// Backend is one of: file, memory, redis.
	Backend string `envconfig:"STORE_BACKEND" default:"file" validate:"oneof=file memory redis"`
	// FilePath is the JSON state file used by the file backend.
	FilePath string `envconfig:"STORE_FILE_PATH" default:"weatherwager.state.json"`
	// RedisAddr is the host:port of the Redis server used by the redis
	// backend, for deployments where rate-limit records and the balance are
	// shared across processes.
	RedisAddr     string        `envconfig:"STORE_REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string        `envconfig:"STORE_REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"STORE_REDIS_DB" default:"0"`
	RedisTimeout  time.Duration `envconfig:"STORE_REDIS_TIMEOUT" default:"2s"`
}

// WalletConfig holds token balance settings.
type WalletConfig struct {
	// InitialTokens seeds the balance the first time the store is empty.
	InitialTokens int `envconfig:"INITIAL_TOKENS" default:"100" validate:"min=0"`
}

// RateLimitConfig holds the per-operation sliding-window policy table.
// The exact numbers are configuration, not part of the algorithm's contract.
type RateLimitConfig struct {
	WeatherMaxRequests int           `envconfig:"RATE_LIMIT_WEATHER_MAX" default:"10" validate:"min=1"`
	WeatherWindow      time.Duration `envconfig:"RATE_LIMIT_WEATHER_WINDOW" default:"60s"`
	GeocodingMax       int           `envconfig:"RATE_LIMIT_GEOCODING_MAX" default:"5" validate:"min=1"`
	GeocodingWindow    time.Duration `envconfig:"RATE_LIMIT_GEOCODING_WINDOW" default:"60s"`
	MapClickMax        int           `envconfig:"RATE_LIMIT_MAP_CLICK_MAX" default:"3" validate:"min=1"`
	MapClickWindow     time.Duration `envconfig:"RATE_LIMIT_MAP_CLICK_WINDOW" default:"5s"`
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}
