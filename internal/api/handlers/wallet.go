package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"weatherwager/internal/core"
	"weatherwager/internal/wallet"
)

// WalletHandler exposes the token balance.
type WalletHandler struct {
	wallet *wallet.Wallet
}

// NewWalletHandler creates a WalletHandler.
func NewWalletHandler(w *wallet.Wallet) *WalletHandler {
	return &WalletHandler{wallet: w}
}

// RegisterRoutes mounts the wallet endpoints.
func (h *WalletHandler) RegisterRoutes(r chi.Router) {
	r.Route("/wallet", func(r chi.Router) {
		r.Get("/", h.HandleBalance)
		r.Post("/reset", h.HandleReset)
	})
}

// balancePayload is the wallet response body.
type balancePayload struct {
	Balance int `json:"balance"`
}

// HandleBalance handles GET /v1/wallet.
func (h *WalletHandler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	core.JSON(w, r, http.StatusOK, core.APIResponse{
		Data: balancePayload{Balance: h.wallet.Balance(r.Context())},
	})
}

// HandleReset handles POST /v1/wallet/reset, restoring the initial balance.
func (h *WalletHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	balance, outcome := h.wallet.Reset(r.Context())

	resp := core.APIResponse{Data: balancePayload{Balance: balance}}
	if outcome == wallet.MemoryOnly {
		resp.Warnings = append(resp.Warnings, "balance not persisted; in-memory only for this session")
	}
	core.JSON(w, r, http.StatusOK, resp)
}
