package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weatherwager/internal/config"
	"weatherwager/internal/core"
	"weatherwager/internal/orders"
	"weatherwager/internal/ratelimit"
	"weatherwager/internal/store"
	"weatherwager/internal/types"
	"weatherwager/internal/wallet"
)

// stubGateway satisfies WeatherGateway and ScenarioProvider with canned data.
type stubGateway struct {
	current      *types.CurrentWeather
	currentErr   error
	forecast     []types.ForecastEntry
	forecastErr  error
	city         string
	geocodeErr   error
	scenarioDate string
}

func (s *stubGateway) CurrentWeather(ctx context.Context, city string) (*types.CurrentWeather, error) {
	if s.currentErr != nil {
		return nil, s.currentErr
	}
	return s.current, nil
}

func (s *stubGateway) Forecast(ctx context.Context, city string) ([]types.ForecastEntry, error) {
	if s.forecastErr != nil {
		return nil, s.forecastErr
	}
	return s.forecast, nil
}

func (s *stubGateway) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	if s.geocodeErr != nil {
		return "", s.geocodeErr
	}
	return s.city, nil
}

func (s *stubGateway) SimulateRefundScenario() types.SimulationScenario {
	return types.SimulationScenario{
		Date:          s.scenarioDate,
		ActualWeather: types.ActualWeather{Temp: 15, Condition: "Rain"},
		Description:   "heavy intensity rain",
		OriginalForecast: types.ForecastEntry{
			Temp:      25,
			Condition: "Clear",
		},
		RefundAmount: 50,
		Message:      "Refund Processed! The weather did not match your order.",
	}
}

// testApp wires the full handler stack over in-memory dependencies.
type testApp struct {
	handler http.Handler
	wallet  *wallet.Wallet
	gateway *stubGateway
	limiter *ratelimit.Limiter
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	kv := store.NewMemoryStore()
	policies := map[string]ratelimit.Policy{
		ratelimit.OpWeather:   {MaxRequests: 100, Window: time.Minute, DisplayName: "Weather API"},
		ratelimit.OpGeocoding: {MaxRequests: 100, Window: time.Minute, DisplayName: "Geocoding"},
		ratelimit.OpMapClick:  {MaxRequests: 3, Window: 5 * time.Second, DisplayName: "Map Click"},
	}
	limiter := ratelimit.New(kv, policies, logger)

	cfg := &config.Config{Service: "weatherwager"}
	srv, err := core.NewServer(cfg, limiter, logger)
	require.NoError(t, err)

	gateway := &stubGateway{
		current:      &types.CurrentWeather{City: "London", Temp: 18.5, Condition: "Clouds", Description: "overcast clouds"},
		forecast:     []types.ForecastEntry{{Date: "2026-09-02", Temp: 21, Condition: "Clear"}},
		city:         "London",
		scenarioDate: "2026-09-02",
	}
	tokenWallet := wallet.New(kv, 100, nil, logger)

	srv.MountRoutes(
		NewWeatherHandler(gateway, srv, logger).RegisterRoutes,
		NewOrderHandler(tokenWallet, logger).RegisterRoutes,
		NewSimulationHandler(gateway, tokenWallet, logger).RegisterRoutes,
		NewWalletHandler(tokenWallet).RegisterRoutes,
		NewRateLimitHandler(limiter).RegisterRoutes,
	)

	return &testApp{
		handler: srv.Handler(),
		wallet:  tokenWallet,
		gateway: gateway,
		limiter: limiter,
	}
}

func (a *testApp) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) []string {
	t.Helper()

	var envelope struct {
		Data     json.RawMessage `json:"data"`
		Warnings []string        `json:"warnings"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	if dst != nil {
		require.NoError(t, json.Unmarshal(envelope.Data, dst))
	}
	return envelope.Warnings
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) core.ErrorDetail {
	t.Helper()

	var envelope core.APIErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return envelope.Error
}

func TestListConditions(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/v1/conditions", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var conditions []types.ConditionOption
	decodeData(t, rec, &conditions)
	require.Len(t, conditions, 8)
	assert.Equal(t, types.ConditionClear, conditions[0].Value)
	assert.Equal(t, "Clear ☀️", conditions[0].Label)
}

func TestCurrentWeather(t *testing.T) {
	app := newTestApp(t)

	t.Run("missing city is a validation error", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/v1/weather/current", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, types.ClassValidation, decodeError(t, rec).Classification)
	})

	t.Run("returns gateway data", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/v1/weather/current?city=London", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var current types.CurrentWeather
		decodeData(t, rec, &current)
		assert.Equal(t, "London", current.City)
		assert.Equal(t, 18.5, current.Temp)
	})

	t.Run("gateway errors keep their classification", func(t *testing.T) {
		app := newTestApp(t)
		app.gateway.currentErr = types.NewAppError(types.ErrCodeNotFoundCity, "City not found", nil)

		rec := app.do(t, http.MethodGet, "/v1/weather/current?city=Nowhere", "")
		require.Equal(t, http.StatusNotFound, rec.Code)

		detail := decodeError(t, rec)
		assert.Equal(t, string(types.ErrCodeNotFoundCity), detail.Code)
		assert.Equal(t, "City Not Found", detail.Display.Title)
	})
}

func TestForecast(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/v1/weather/forecast?city=London", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var forecast []types.ForecastEntry
	decodeData(t, rec, &forecast)
	require.Len(t, forecast, 1)
	assert.Equal(t, "2026-09-02", forecast[0].Date)
}

func TestReverseGeocode(t *testing.T) {
	t.Run("returns the suggested city", func(t *testing.T) {
		app := newTestApp(t)
		rec := app.do(t, http.MethodGet, "/v1/geocode/reverse?lat=51.5&lon=-0.12", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var data map[string]string
		decodeData(t, rec, &data)
		assert.Equal(t, "London", data["city"])
	})

	t.Run("lookup failure degrades to empty city", func(t *testing.T) {
		app := newTestApp(t)
		app.gateway.geocodeErr = fmt.Errorf("nominatim down")

		rec := app.do(t, http.MethodGet, "/v1/geocode/reverse?lat=51.5&lon=-0.12", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var data map[string]string
		decodeData(t, rec, &data)
		assert.Equal(t, "", data["city"])
	})

	t.Run("invalid coordinates are a validation error", func(t *testing.T) {
		app := newTestApp(t)
		rec := app.do(t, http.MethodGet, "/v1/geocode/reverse?lat=north&lon=-0.12", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("map click limit denies the fourth request", func(t *testing.T) {
		app := newTestApp(t)
		for i := 0; i < 3; i++ {
			rec := app.do(t, http.MethodGet, "/v1/geocode/reverse?lat=51.5&lon=-0.12", "")
			require.Equal(t, http.StatusOK, rec.Code, "request %d should be admitted", i+1)
		}

		rec := app.do(t, http.MethodGet, "/v1/geocode/reverse?lat=51.5&lon=-0.12", "")
		require.Equal(t, http.StatusTooManyRequests, rec.Code)

		detail := decodeError(t, rec)
		assert.Equal(t, "Map Click", detail.Details["limit_name"])
		assert.Contains(t, detail.Message, "Too many requests. Please wait")
	})
}

func TestValidateOrder(t *testing.T) {
	app := newTestApp(t)

	t.Run("empty form accumulates every field error", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/v1/orders/validate",
			`{"selected_date":"","desired_temp":"","desired_condition":"","tokens_to_spend":""}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var result orders.ValidationResult
		decodeData(t, rec, &result)
		assert.False(t, result.IsValid)
		require.Len(t, result.Errors, 4)
		assert.Equal(t, "selectedDate", result.Errors[0].Field)
		require.NotNil(t, result.FirstError)
		assert.Equal(t, "Please select a date", result.FirstError.Message)
	})

	t.Run("valid form passes", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/v1/orders/validate",
			`{"selected_date":"2026-09-02","desired_temp":"20","desired_condition":"Clear","tokens_to_spend":"10"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var result orders.ValidationResult
		decodeData(t, rec, &result)
		assert.True(t, result.IsValid)
		assert.Empty(t, result.Errors)
	})

	t.Run("overspending reports the available balance", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/v1/orders/validate",
			`{"selected_date":"2026-09-02","desired_temp":"20","desired_condition":"Clear","tokens_to_spend":"500"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var result orders.ValidationResult
		decodeData(t, rec, &result)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "Not enough tokens! You have 100", result.Errors[0].Message)
	})
}

func TestPlaceOrder(t *testing.T) {
	t.Run("debits the wager", func(t *testing.T) {
		app := newTestApp(t)
		rec := app.do(t, http.MethodPost, "/v1/orders/",
			`{"selected_date":"2026-09-02","desired_temp":"20","desired_condition":"Clear","tokens_to_spend":"30"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		var placed struct {
			Order   types.Order `json:"order"`
			Balance int         `json:"balance"`
		}
		decodeData(t, rec, &placed)
		assert.Equal(t, 30, placed.Order.TokensWagered)
		assert.Equal(t, 70, placed.Balance)
		assert.Equal(t, 70, app.wallet.Balance(context.Background()))
	})

	t.Run("invalid form is a 400 with accumulated errors", func(t *testing.T) {
		app := newTestApp(t)
		rec := app.do(t, http.MethodPost, "/v1/orders/",
			`{"selected_date":"","desired_temp":"20","desired_condition":"Clear","tokens_to_spend":"30"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		detail := decodeError(t, rec)
		assert.Equal(t, string(types.ErrCodeValidationOrderForm), detail.Code)
		assert.Equal(t, "Please select a date", detail.Message)
		assert.NotNil(t, detail.Details["errors"])
		assert.Equal(t, 100, app.wallet.Balance(context.Background()), "failed placement must not debit")
	})

	t.Run("malformed JSON is rejected", func(t *testing.T) {
		app := newTestApp(t)
		rec := app.do(t, http.MethodPost, "/v1/orders/", `{"selected_date":`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestEvaluateOrder(t *testing.T) {
	app := newTestApp(t)

	t.Run("matching weather keeps the payment", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/v1/orders/evaluate",
			`{"order":{"selected_date":"2026-09-02","desired_temp":"20","desired_condition":"Clear","tokens_wagered":30},"actual":{"temp":25,"condition":"Clear"}}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Evaluation types.EvaluationResult `json:"evaluation"`
			Refund     int                    `json:"refund"`
		}
		decodeData(t, rec, &resp)
		assert.True(t, resp.Evaluation.IsSuccess)
		assert.Equal(t, "Weather matched your order. Payment kept.", resp.Evaluation.Message)
		assert.Equal(t, 0, resp.Refund)
	})

	t.Run("mismatch refunds the wager", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/v1/orders/evaluate",
			`{"order":{"selected_date":"2026-09-02","desired_temp":"20","desired_condition":"Clear","tokens_wagered":30},"actual":{"temp":15,"condition":"Rain"}}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Evaluation types.EvaluationResult `json:"evaluation"`
			Refund     int                    `json:"refund"`
		}
		decodeData(t, rec, &resp)
		assert.False(t, resp.Evaluation.IsSuccess)
		assert.Equal(t, types.ReasonTemperature, resp.Evaluation.Reason)
		assert.Equal(t, 30, resp.Refund)

		assert.Equal(t, 100, app.wallet.Balance(context.Background()), "evaluation must not touch the wallet")
	})
}

func TestSimulation(t *testing.T) {
	t.Run("failed order credits the refund", func(t *testing.T) {
		app := newTestApp(t)
		rec := app.do(t, http.MethodGet, "/v1/simulation?temp=20&condition=Clear&tokens=50", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Scenario   types.SimulationScenario `json:"scenario"`
			Order      types.Order              `json:"order"`
			Evaluation types.EvaluationResult   `json:"evaluation"`
			Refund     int                      `json:"refund"`
			Balance    int                      `json:"balance"`
		}
		decodeData(t, rec, &resp)
		assert.Equal(t, "2026-09-02", resp.Order.SelectedDate, "date defaults to the scenario date")
		assert.False(t, resp.Evaluation.IsSuccess)
		assert.Equal(t, types.ReasonTemperature, resp.Evaluation.Reason)
		assert.Equal(t, 50, resp.Refund)
		assert.Equal(t, 150, resp.Balance)
		assert.Equal(t, 150, app.wallet.Balance(context.Background()))
	})

	t.Run("successful order leaves the balance alone", func(t *testing.T) {
		app := newTestApp(t)
		rec := app.do(t, http.MethodGet, "/v1/simulation?temp=10&condition=Rain&tokens=50", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Evaluation types.EvaluationResult `json:"evaluation"`
			Refund     int                    `json:"refund"`
			Balance    int                    `json:"balance"`
		}
		decodeData(t, rec, &resp)
		assert.True(t, resp.Evaluation.IsSuccess)
		assert.Equal(t, 0, resp.Refund)
		assert.Equal(t, 100, resp.Balance)
	})

	t.Run("invalid tokens is a validation error", func(t *testing.T) {
		app := newTestApp(t)
		rec := app.do(t, http.MethodGet, "/v1/simulation?tokens=lots", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, string(types.ErrCodeValidationInvalidTokens), decodeError(t, rec).Code)
	})
}

func TestWalletEndpoints(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/v1/wallet/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var balance struct {
		Balance int `json:"balance"`
	}
	decodeData(t, rec, &balance)
	assert.Equal(t, 100, balance.Balance)

	_, _, err := app.wallet.Debit(context.Background(), 40)
	require.NoError(t, err)

	rec = app.do(t, http.MethodPost, "/v1/wallet/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &balance)
	assert.Equal(t, 100, balance.Balance)
}

func TestRateLimitEndpoints(t *testing.T) {
	app := newTestApp(t)

	t.Run("status list covers every operation", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/v1/ratelimits/", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var statuses map[string]ratelimit.Status
		decodeData(t, rec, &statuses)
		require.Len(t, statuses, 3)
		assert.Equal(t, 3, statuses[ratelimit.OpMapClick].MaxRequests)
	})

	t.Run("unknown operation is a 404", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/v1/ratelimits/unknownOp", "")
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, string(types.ErrCodeNotFoundOperation), decodeError(t, rec).Code)
	})

	t.Run("reset restores quota", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			rec := app.do(t, http.MethodGet, "/v1/geocode/reverse?lat=1&lon=2", "")
			require.Equal(t, http.StatusOK, rec.Code)
		}
		rec := app.do(t, http.MethodGet, "/v1/geocode/reverse?lat=1&lon=2", "")
		require.Equal(t, http.StatusTooManyRequests, rec.Code)

		rec = app.do(t, http.MethodPost, "/v1/ratelimits/"+ratelimit.OpMapClick+"/reset", "")
		require.Equal(t, http.StatusOK, rec.Code)

		rec = app.do(t, http.MethodGet, "/v1/geocode/reverse?lat=1&lon=2", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
