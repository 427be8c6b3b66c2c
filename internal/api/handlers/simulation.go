package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"weatherwager/internal/core"
	"weatherwager/internal/orders"
	"weatherwager/internal/types"
	"weatherwager/internal/wallet"
)

// ScenarioProvider produces the canned Time Machine scenario.
type ScenarioProvider interface {
	SimulateRefundScenario() types.SimulationScenario
}

// SimulationHandler renders the Time Machine view: the simulated "future"
// that reveals whether an order succeeded and refunds tokens on mismatch.
type SimulationHandler struct {
	scenarios ScenarioProvider
	wallet    *wallet.Wallet
	logger    *slog.Logger
}

// NewSimulationHandler creates a SimulationHandler.
func NewSimulationHandler(scenarios ScenarioProvider, w *wallet.Wallet, logger *slog.Logger) *SimulationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SimulationHandler{
		scenarios: scenarios,
		wallet:    w,
		logger:    logger,
	}
}

// RegisterRoutes mounts the simulation endpoint.
func (h *SimulationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/simulation", h.HandleSimulation)
}

// simulationResponse is the full Time Machine view model.
type simulationResponse struct {
	Scenario   types.SimulationScenario `json:"scenario"`
	Order      types.Order              `json:"order"`
	Actual     types.ActualWeather      `json:"actual_weather"`
	Evaluation types.EvaluationResult   `json:"evaluation"`
	Refund     int                      `json:"refund"`
	Balance    int                      `json:"balance"`
}

// HandleSimulation handles GET /v1/simulation.
//
// The four order query parameters (date, temp, condition, tokens) together
// with the scenario constants fully determine the view: the evaluation is a
// pure function of them. The only side effect is the refund credit (and its
// token-update notification) when the order failed.
func (h *SimulationHandler) HandleSimulation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	tokens := 0
	if raw := q.Get("tokens"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			core.Error(w, r, types.NewAppError(
				types.ErrCodeValidationInvalidTokens,
				"tokens must be a non-negative integer",
				nil,
			))
			return
		}
		tokens = parsed
	}

	scenario := h.scenarios.SimulateRefundScenario()
	order := types.Order{
		SelectedDate:     q.Get("date"),
		DesiredTemp:      q.Get("temp"),
		DesiredCondition: q.Get("condition"),
		TokensWagered:    tokens,
	}
	if order.SelectedDate == "" {
		order.SelectedDate = scenario.Date
	}

	evaluation := orders.EvaluateOrder(order, scenario.ActualWeather)
	refund := orders.CalculateRefund(evaluation, order.TokensWagered)

	ctx := r.Context()
	resp := core.APIResponse{}

	balance := h.wallet.Balance(ctx)
	if refund > 0 {
		var outcome wallet.PersistOutcome
		balance, outcome = h.wallet.Refund(ctx, refund)
		if outcome == wallet.MemoryOnly {
			resp.Warnings = append(resp.Warnings, "refund not persisted; in-memory only for this session")
		}
	}

	resp.Data = simulationResponse{
		Scenario:   scenario,
		Order:      order,
		Actual:     scenario.ActualWeather,
		Evaluation: evaluation,
		Refund:     refund,
		Balance:    balance,
	}
	core.JSON(w, r, http.StatusOK, resp)
}
