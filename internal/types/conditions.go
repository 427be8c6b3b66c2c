package types

// WeatherCondition is one of the enumerated OpenWeatherMap condition groups
// a user can order. Values match the upstream "weather[0].main" field exactly;
// order evaluation compares them case-sensitively.
type WeatherCondition string

const (
	ConditionClear        WeatherCondition = "Clear"
	ConditionClouds       WeatherCondition = "Clouds"
	ConditionRain         WeatherCondition = "Rain"
	ConditionDrizzle      WeatherCondition = "Drizzle"
	ConditionThunderstorm WeatherCondition = "Thunderstorm"
	ConditionSnow         WeatherCondition = "Snow"
	ConditionMist         WeatherCondition = "Mist"
	ConditionFog          WeatherCondition = "Fog"
)

// ConditionOption pairs a condition value with its display label for
// dropdowns.
type ConditionOption struct {
	Value WeatherCondition `json:"value"`
	Label string           `json:"label"`
}

// WeatherConditions is the centralized, ordered list of orderable conditions.
var WeatherConditions = []ConditionOption{
	{Value: ConditionClear, Label: "Clear ☀️"},
	{Value: ConditionClouds, Label: "Cloudy ☁️"},
	{Value: ConditionRain, Label: "Rain 🌧️"},
	{Value: ConditionDrizzle, Label: "Drizzle 🌦️"},
	{Value: ConditionThunderstorm, Label: "Thunderstorm ⛈️"},
	{Value: ConditionSnow, Label: "Snow ❄️"},
	{Value: ConditionMist, Label: "Mist 🌫️"},
	{Value: ConditionFog, Label: "Fog 🌁"},
}

// ConditionLabel returns the display label for a condition value, or the raw
// value when it is not in the catalogue.
func ConditionLabel(value string) string {
	for _, c := range WeatherConditions {
		if string(c.Value) == value {
			return c.Label
		}
	}
	return value
}

// IsValidCondition reports whether value is one of the orderable conditions.
func IsValidCondition(value string) bool {
	for _, c := range WeatherConditions {
		if string(c.Value) == value {
			return true
		}
	}
	return false
}
