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

// OrderHandler exposes order validation, placement and evaluation.
type OrderHandler struct {
	wallet *wallet.Wallet
	logger *slog.Logger
}

// NewOrderHandler creates an OrderHandler.
func NewOrderHandler(w *wallet.Wallet, logger *slog.Logger) *OrderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderHandler{
		wallet: w,
		logger: logger,
	}
}

// RegisterRoutes mounts the order endpoints.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/validate", h.HandleValidate)
		r.Post("/", h.HandlePlace)
		r.Post("/evaluate", h.HandleEvaluate)
	})
}

// HandleValidate handles POST /v1/orders/validate. It runs the form checks
// against the current balance without placing anything. Validation failures
// are part of the response data, not an HTTP error: the form is shown inline.
func (h *OrderHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var form orders.OrderForm
	if err := core.DecodeJSON(r, &form); err != nil {
		core.Error(w, r, err)
		return
	}

	result := orders.ValidateOrderForm(form, h.wallet.Balance(r.Context()))
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: result})
}

// placedOrder is the response payload for a successful order placement.
type placedOrder struct {
	Order   types.Order `json:"order"`
	Balance int         `json:"balance"`
}

// HandlePlace handles POST /v1/orders: validate the form, debit the wager,
// and return the accepted order with the new balance. An invalid form yields
// a 400 carrying the accumulated field errors.
func (h *OrderHandler) HandlePlace(w http.ResponseWriter, r *http.Request) {
	var form orders.OrderForm
	if err := core.DecodeJSON(r, &form); err != nil {
		core.Error(w, r, err)
		return
	}

	ctx := r.Context()
	validation := orders.ValidateOrderForm(form, h.wallet.Balance(ctx))
	if !validation.IsValid {
		core.Error(w, r, types.NewAppErrorWithDetails(
			types.ErrCodeValidationOrderForm,
			validation.FirstError.Message,
			nil,
			map[string]any{"errors": validation.Errors},
		))
		return
	}

	tokens, _ := strconv.Atoi(form.TokensToSpend)
	balance, outcome, err := h.wallet.Debit(ctx, tokens)
	if err != nil {
		// The balance moved between validation and debit.
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationInvalidTokens,
			"Not enough tokens! You have "+strconv.Itoa(balance),
			err,
		))
		return
	}

	resp := core.APIResponse{
		Data: placedOrder{
			Order: types.Order{
				SelectedDate:     form.SelectedDate,
				DesiredTemp:      form.DesiredTemp,
				DesiredCondition: form.DesiredCondition,
				TokensWagered:    tokens,
			},
			Balance: balance,
		},
	}
	if outcome == wallet.MemoryOnly {
		resp.Warnings = append(resp.Warnings, "balance not persisted; in-memory only for this session")
	}
	core.JSON(w, r, http.StatusCreated, resp)
}

// evaluateRequest pairs an order with the actual weather to judge it against.
type evaluateRequest struct {
	Order  types.Order         `json:"order"`
	Actual types.ActualWeather `json:"actual"`
}

// evaluateResponse carries the evaluation together with the refund due.
type evaluateResponse struct {
	Evaluation types.EvaluationResult `json:"evaluation"`
	Refund     int                    `json:"refund"`
}

// HandleEvaluate handles POST /v1/orders/evaluate. Pure: it does not touch
// the wallet; the simulation flow owns refund side effects.
func (h *OrderHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, r, err)
		return
	}

	evaluation := orders.EvaluateOrder(req.Order, req.Actual)
	core.JSON(w, r, http.StatusOK, core.APIResponse{
		Data: evaluateResponse{
			Evaluation: evaluation,
			Refund:     orders.CalculateRefund(evaluation, req.Order.TokensWagered),
		},
	})
}
