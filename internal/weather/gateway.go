// Package weather is the anti-corruption layer between the wagering core and
// the upstream weather and geocoding services (OpenWeatherMap and Nominatim).
// All outbound calls go through a shared circuit breaker, and every failure
// is classified into the application error taxonomy at this boundary so the
// rest of the system never sees raw transport errors.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"

	"weatherwager/internal/types"
)

// Gateway fetches current weather, forecasts and reverse-geocoded place
// names, and produces the canned Time Machine scenario.
type Gateway struct {
	apiKey           string
	weatherBaseURL   string
	nominatimBaseURL string
	forecastDays     int

	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	logger  *slog.Logger
	now     func() time.Time
}

// Options configures a Gateway.
type Options struct {
	APIKey           string
	WeatherBaseURL   string
	NominatimBaseURL string
	ForecastDays     int
	Timeout          time.Duration
	Logger           *slog.Logger
	// Now overrides the time source for the simulation scenario. Tests only.
	Now func() time.Time
}

// NewGateway creates a Gateway with a circuit breaker shared by all upstream
// calls.
func NewGateway(opts Options) *Gateway {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	days := opts.ForecastDays
	if days <= 0 || days > 5 {
		days = 5
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "weather-upstream",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Gateway{
		apiKey:           opts.APIKey,
		weatherBaseURL:   opts.WeatherBaseURL,
		nominatimBaseURL: opts.NominatimBaseURL,
		forecastDays:     days,
		client:           &http.Client{Timeout: timeout},
		breaker:          cb,
		logger:           logger,
		now:              now,
	}
}

// do executes a GET through the circuit breaker and classifies failures.
func (g *Gateway) do(ctx context.Context, rawURL string, code types.ErrorCode) (*http.Response, error) {
	resp, err := g.breaker.Execute(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "WeatherWager/1.0")
		return g.client.Do(req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, types.NewAppError(code, "upstream temporarily unavailable (circuit open)", err)
		}
		var netErr net.Error
		if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
			return nil, types.NewAppError(types.ErrCodeNetwork, "could not reach upstream service", err)
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return nil, types.NewAppError(types.ErrCodeNetwork, "could not reach upstream service", err)
		}
		return nil, types.NewAppError(code, "upstream request failed", err)
	}
	return resp, nil
}

// classifyStatus maps non-2xx upstream responses into the error taxonomy.
// The body is drained and closed.
func classifyStatus(resp *http.Response, notFoundMessage string, code types.ErrorCode) error {
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return types.NewAppError(types.ErrCodeNotFoundCity, notFoundMessage, nil)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return types.NewAppError(types.ErrCodeAPICredentialsAbsent, "upstream rejected the API credentials", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return types.NewAppError(types.ErrCodeUpstreamRateLimited, "upstream rate limit exceeded", nil)
	default:
		return types.NewAppError(code,
			fmt.Sprintf("upstream returned status %d", resp.StatusCode), nil)
	}
}

// requireAPIKey returns a credentials error when no OpenWeatherMap key is
// configured.
func (g *Gateway) requireAPIKey() error {
	if g.apiKey == "" {
		return types.NewAppError(types.ErrCodeAPICredentialsAbsent, "API Key is missing", nil)
	}
	return nil
}

// openWeatherPayload is the subset of the OpenWeatherMap response both the
// current-weather and forecast endpoints share per entry.
type openWeatherEntry struct {
	Dt    int64  `json:"dt"`
	DtTxt string `json:"dt_txt"`
	Main  struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
}

func (e openWeatherEntry) condition() string {
	if len(e.Weather) == 0 {
		return ""
	}
	return e.Weather[0].Main
}

func (e openWeatherEntry) description() string {
	if len(e.Weather) == 0 {
		return ""
	}
	return e.Weather[0].Description
}

// CurrentWeather fetches present conditions for a city.
func (g *Gateway) CurrentWeather(ctx context.Context, city string) (*types.CurrentWeather, error) {
	if err := g.requireAPIKey(); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("units", "metric")
	q.Set("appid", g.apiKey)

	resp, err := g.do(ctx, fmt.Sprintf("%s/weather?%s", g.weatherBaseURL, q.Encode()), types.ErrCodeUpstreamWeather)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp, "City not found", types.ErrCodeUpstreamWeather)
	}
	defer resp.Body.Close()

	var payload struct {
		openWeatherEntry
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamWeather, "decoding weather response", err)
	}

	return &types.CurrentWeather{
		City:        payload.Name,
		Temp:        payload.Main.Temp,
		Condition:   payload.condition(),
		Description: payload.description(),
	}, nil
}

// Forecast fetches the 3-hourly forecast for a city and collapses it to at
// most forecastDays daily entries, keeping the first entry of each distinct
// calendar date.
func (g *Gateway) Forecast(ctx context.Context, city string) ([]types.ForecastEntry, error) {
	if err := g.requireAPIKey(); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("units", "metric")
	q.Set("appid", g.apiKey)

	resp, err := g.do(ctx, fmt.Sprintf("%s/forecast?%s", g.weatherBaseURL, q.Encode()), types.ErrCodeUpstreamWeather)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp, "City not found", types.ErrCodeUpstreamWeather)
	}
	defer resp.Body.Close()

	var payload struct {
		List []openWeatherEntry `json:"list"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamWeather, "decoding forecast response", err)
	}

	return collapseDaily(payload.List, g.forecastDays), nil
}

// collapseDaily reduces 3-hourly entries to one entry per distinct calendar
// date, up to maxDays.
func collapseDaily(entries []openWeatherEntry, maxDays int) []types.ForecastEntry {
	seen := make(map[string]struct{}, maxDays)
	daily := make([]types.ForecastEntry, 0, maxDays)

	for _, item := range entries {
		date := item.DtTxt
		if len(date) >= 10 {
			date = date[:10]
		} else if date == "" {
			date = time.Unix(item.Dt, 0).UTC().Format("2006-01-02")
		}
		if _, ok := seen[date]; ok {
			continue
		}
		seen[date] = struct{}{}
		daily = append(daily, types.ForecastEntry{
			Date:      date,
			Temp:      item.Main.Temp,
			Condition: item.condition(),
		})
		if len(daily) == maxDays {
			break
		}
	}
	return daily
}

// ReverseGeocode resolves coordinates to a place name via Nominatim.
// Failures are soft: the caller receives ("", nil) and treats it as "no city
// suggestion available" rather than a user-facing error.
func (g *Gateway) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lon))

	resp, err := g.do(ctx, fmt.Sprintf("%s/reverse?%s", g.nominatimBaseURL, q.Encode()), types.ErrCodeUpstreamGeocoding)
	if err != nil {
		g.logger.Warn("reverse geocoding failed", slog.String("error", err.Error()))
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		g.logger.Warn("reverse geocoding returned non-OK status", slog.Int("status", resp.StatusCode))
		return "", nil
	}
	defer resp.Body.Close()

	var payload struct {
		Address struct {
			City    string `json:"city"`
			Town    string `json:"town"`
			Village string `json:"village"`
		} `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		g.logger.Warn("decoding reverse geocode response failed", slog.String("error", err.Error()))
		return "", nil
	}

	switch {
	case payload.Address.City != "":
		return payload.Address.City, nil
	case payload.Address.Town != "":
		return payload.Address.Town, nil
	case payload.Address.Village != "":
		return payload.Address.Village, nil
	default:
		return "", nil
	}
}
