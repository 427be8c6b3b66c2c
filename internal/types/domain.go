package types

// Order is a user's wager that future weather will meet the stated criteria
// on the chosen date. DesiredTemp and DesiredCondition travel as strings
// because they arrive from form fields; an empty string means the constraint
// is absent.
type Order struct {
	SelectedDate     string `json:"selected_date"`
	DesiredTemp      string `json:"desired_temp"`
	DesiredCondition string `json:"desired_condition"`
	TokensWagered    int    `json:"tokens_wagered"`
}

// ActualWeather is the observed (or simulated) weather an order is judged
// against. Immutable once observed for a given evaluation.
type ActualWeather struct {
	Temp      float64 `json:"temp"`
	Condition string  `json:"condition"`
}

// Failure reasons reported by order evaluation. Temperature takes priority
// when both constraints fail.
const (
	ReasonTemperature = "temperature"
	ReasonCondition   = "weather condition"
)

// EvaluationResult captures the outcome of judging an order against actual
// weather. Derived deterministically from its inputs; no hidden state.
type EvaluationResult struct {
	IsSuccess bool   `json:"is_success"`
	Message   string `json:"message"`
	// Reason is empty on success, otherwise ReasonTemperature or
	// ReasonCondition.
	Reason string `json:"reason,omitempty"`
}

// CurrentWeather is the gateway's view of present conditions for a place.
type CurrentWeather struct {
	City        string  `json:"city"`
	Temp        float64 `json:"temp"`
	Condition   string  `json:"condition"`
	Description string  `json:"description,omitempty"`
}

// ForecastEntry is one daily entry of a multi-day forecast.
type ForecastEntry struct {
	Date      string  `json:"date"` // YYYY-MM-DD
	Temp      float64 `json:"temp"`
	Condition string  `json:"condition"`
}

// SimulationScenario seeds the Time Machine view: a canned "future" outcome
// together with the forecast the user originally saw.
type SimulationScenario struct {
	Date             string        `json:"date"`
	ActualWeather    ActualWeather `json:"actual_weather"`
	Description      string        `json:"description"`
	OriginalForecast ForecastEntry `json:"original_forecast"`
	RefundAmount     int           `json:"refund_amount"`
	Message          string        `json:"message"`
}
