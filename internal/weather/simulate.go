package weather

import (
	"weatherwager/internal/types"
)

// SimulateRefundScenario returns the canned data seeding the Time Machine
// demo: tomorrow's date, a rainy 15°C outcome against an originally forecast
// clear 25°C, and a 50-token refund.
func (g *Gateway) SimulateRefundScenario() types.SimulationScenario {
	tomorrow := g.now().AddDate(0, 0, 1).UTC().Format("2006-01-02")

	return types.SimulationScenario{
		Date: tomorrow,
		ActualWeather: types.ActualWeather{
			Temp:      15,
			Condition: string(types.ConditionRain),
		},
		Description: "heavy intensity rain",
		OriginalForecast: types.ForecastEntry{
			Temp:      25,
			Condition: string(types.ConditionClear),
		},
		RefundAmount: 50,
		Message:      "Refund Processed! The weather did not match your order.",
	}
}
