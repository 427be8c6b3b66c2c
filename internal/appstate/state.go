// Package appstate models the UI-facing application state as an owned struct
// with named sub-records, updated through reducer-style merge operations
// instead of ad-hoc shared mutation. It also provides the request-sequence
// guard that drops stale async responses: a field only accepts a response
// whose id matches the latest issued request id.
package appstate

import (
	"sync"
	"sync/atomic"

	"weatherwager/internal/types"
)

// WeatherState holds the weather data currently displayed.
type WeatherState struct {
	City         string                `json:"city"`
	Current      *types.CurrentWeather `json:"current,omitempty"`
	Forecast     []types.ForecastEntry `json:"forecast,omitempty"`
	UserLocation *[2]float64           `json:"user_location,omitempty"` // lat, lon
}

// OrderFormState mirrors the four order-form fields as entered.
type OrderFormState struct {
	SelectedDate     string `json:"selected_date"`
	DesiredTemp      string `json:"desired_temp"`
	DesiredCondition string `json:"desired_condition"`
	TokensToSpend    string `json:"tokens_to_spend"`
}

// UIState holds presentation flags and the single surfaced error.
// Exactly one error is shown at a time; a new one replaces the last.
type UIState struct {
	StatusMessage string `json:"status_message,omitempty"`
	ErrorTag      string `json:"error_tag,omitempty"` // taxonomy classification
	ErrorText     string `json:"error_text,omitempty"`
}

// AsyncState tracks in-flight request flags.
type AsyncState struct {
	LoadingWeather  bool `json:"loading_weather"`
	LoadingForecast bool `json:"loading_forecast"`
}

// SimulationState holds the Time Machine view data.
type SimulationState struct {
	Scenario   *types.SimulationScenario `json:"scenario,omitempty"`
	Evaluation *types.EvaluationResult   `json:"evaluation,omitempty"`
	Refund     int                       `json:"refund"`
}

// State is the complete application state.
type State struct {
	Weather    WeatherState    `json:"weather"`
	OrderForm  OrderFormState  `json:"order_form"`
	UI         UIState         `json:"ui"`
	Async      AsyncState      `json:"async"`
	Simulation SimulationState `json:"simulation"`
	Balance    int             `json:"balance"`
}

// Change is a pure merge operation over a State copy.
type Change func(State) State

// Container owns a State and applies Changes atomically.
type Container struct {
	mu    sync.RWMutex
	state State
}

// NewContainer creates a Container with the given initial state.
func NewContainer(initial State) *Container {
	return &Container{state: initial}
}

// Snapshot returns a copy of the current state.
func (c *Container) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Apply runs the changes in order against the current state and installs the
// result. Each Change receives a copy and returns the next state; no change
// ever mutates shared data in place.
func (c *Container) Apply(changes ...Change) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.state
	for _, change := range changes {
		next = change(next)
	}
	c.state = next
	return next
}

// SetBalance overwrites the balance sub-record, e.g. on receipt of a
// token-update notification.
func SetBalance(balance int) Change {
	return func(s State) State {
		s.Balance = balance
		return s
	}
}

// SetError replaces the surfaced error with a new tagged one.
func SetError(tag, text string) Change {
	return func(s State) State {
		s.UI.ErrorTag = tag
		s.UI.ErrorText = text
		return s
	}
}

// ClearError removes the surfaced error.
func ClearError() Change {
	return func(s State) State {
		s.UI.ErrorTag = ""
		s.UI.ErrorText = ""
		return s
	}
}

// MergeWeather overwrites the weather sub-record.
func MergeWeather(weather WeatherState) Change {
	return func(s State) State {
		s.Weather = weather
		return s
	}
}

// MergeOrderForm overwrites the order-form sub-record.
func MergeOrderForm(form OrderFormState) Change {
	return func(s State) State {
		s.OrderForm = form
		return s
	}
}

// MergeSimulation overwrites the simulation sub-record.
func MergeSimulation(sim SimulationState) Change {
	return func(s State) State {
		s.Simulation = sim
		return s
	}
}

// Guard issues monotonically increasing request ids per field and accepts
// only the response matching the latest id, so an overlapping earlier fetch
// cannot overwrite newer data when responses arrive out of order.
type Guard struct {
	latest atomic.Uint64
}

// Next issues a new request id, superseding all earlier ones.
func (g *Guard) Next() uint64 {
	return g.latest.Add(1)
}

// Accept reports whether the response for the given id is still current.
func (g *Guard) Accept(id uint64) bool {
	return g.latest.Load() == id
}
