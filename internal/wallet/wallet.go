// Package wallet owns the process-wide token balance: a single non-negative
// integer persisted across sessions, debited when an order is placed and
// credited back when a failed evaluation triggers a refund.
//
// Persistence is best-effort. The in-memory balance stays authoritative for
// the current session; every mutation reports whether it also reached the
// store, so callers can surface a non-fatal warning instead of losing the
// write silently.
package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"weatherwager/internal/notify"
	"weatherwager/internal/store"
)

// balanceKey is the store key holding the decimal balance string.
const balanceKey = "weatherWizardTokens"

// PersistOutcome reports how far a balance mutation reached.
type PersistOutcome string

const (
	// Persisted means the new balance was written to the store.
	Persisted PersistOutcome = "persisted"
	// MemoryOnly means the store write failed; the balance is only held
	// in memory for the current session.
	MemoryOnly PersistOutcome = "memory_only"
)

// ErrInsufficientTokens is returned when a debit exceeds the balance.
var ErrInsufficientTokens = fmt.Errorf("insufficient tokens")

// Wallet manages the token balance over a KV store.
type Wallet struct {
	mu      sync.Mutex
	kv      store.KV
	channel notify.Channel
	logger  *slog.Logger

	initialTokens int
	balance       int
	loaded        bool
}

// New creates a Wallet. initialTokens seeds the balance the first time the
// store has no value. channel may be nil when no listeners exist.
func New(kv store.KV, initialTokens int, channel notify.Channel, logger *slog.Logger) *Wallet {
	if logger == nil {
		logger = slog.Default()
	}
	return &Wallet{
		kv:            kv,
		channel:       channel,
		logger:        logger,
		initialTokens: initialTokens,
	}
}

// Balance returns the current token balance, loading it from the store (or
// seeding the initial balance) on first use.
func (w *Wallet) Balance(ctx context.Context) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.loadLocked(ctx)
	return w.balance
}

// Debit removes tokens wagered on an order. Returns the new balance and the
// persistence outcome. Debiting more than the balance fails without
// mutating anything.
func (w *Wallet) Debit(ctx context.Context, tokens int) (int, PersistOutcome, error) {
	if tokens <= 0 {
		return 0, MemoryOnly, fmt.Errorf("debit amount must be positive, got %d", tokens)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.loadLocked(ctx)
	if tokens > w.balance {
		return w.balance, MemoryOnly, fmt.Errorf("%w: have %d, need %d", ErrInsufficientTokens, w.balance, tokens)
	}

	w.balance -= tokens
	return w.balance, w.persistLocked(ctx), nil
}

// Refund credits tokens back after a failed evaluation and publishes a
// token-update event so other views can overwrite their balance. A zero
// refund (successful order) is a no-op.
func (w *Wallet) Refund(ctx context.Context, tokens int) (int, PersistOutcome) {
	if tokens <= 0 {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.loadLocked(ctx)
		return w.balance, Persisted
	}

	w.mu.Lock()
	w.loadLocked(ctx)
	w.balance += tokens
	balance := w.balance
	outcome := w.persistLocked(ctx)
	w.mu.Unlock()

	if w.channel != nil {
		if err := w.channel.Publish(ctx, notify.TokenUpdate{
			Operation: notify.EventTokenUpdate,
			Balance:   balance,
		}); err != nil {
			w.logger.Warn("publishing token update failed", slog.String("error", err.Error()))
		}
	}

	return balance, outcome
}

// Reset restores the initial balance. Used by the demo UI's reset control.
func (w *Wallet) Reset(ctx context.Context) (int, PersistOutcome) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.balance = w.initialTokens
	w.loaded = true
	return w.balance, w.persistLocked(ctx)
}

// loadLocked reads the balance from the store on first use. Missing or
// unparseable values seed the initial balance. Caller holds w.mu.
func (w *Wallet) loadLocked(ctx context.Context) {
	if w.loaded {
		return
	}
	w.loaded = true
	w.balance = w.initialTokens

	raw, ok, err := w.kv.Get(ctx, balanceKey)
	if err != nil {
		w.logger.Error("reading token balance failed, using initial balance",
			slog.String("error", err.Error()))
		return
	}
	if !ok {
		return
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		w.logger.Error("stored token balance invalid, using initial balance",
			slog.String("value", raw))
		return
	}
	w.balance = parsed
}

// persistLocked writes the balance to the store, best-effort. Caller holds w.mu.
func (w *Wallet) persistLocked(ctx context.Context) PersistOutcome {
	if err := w.kv.Set(ctx, balanceKey, strconv.Itoa(w.balance)); err != nil {
		w.logger.Error("persisting token balance failed, balance is in-memory only",
			slog.Int("balance", w.balance),
			slog.String("error", err.Error()),
		)
		return MemoryOnly
	}
	return Persisted
}
