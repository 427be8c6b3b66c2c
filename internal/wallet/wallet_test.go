package wallet

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"weatherwager/internal/notify"
	"weatherwager/internal/store"
)

func TestBalance_SeedsInitialTokens(t *testing.T) {
	w := New(store.NewMemoryStore(), 100, nil, slog.Default())

	if got := w.Balance(context.Background()); got != 100 {
		t.Errorf("fresh balance = %d, want 100", got)
	}
}

func TestBalance_LoadsPersistedValue(t *testing.T) {
	kv := store.NewMemoryStore()
	ctx := context.Background()
	if err := kv.Set(ctx, "weatherWizardTokens", "73"); err != nil {
		t.Fatal(err)
	}

	w := New(kv, 100, nil, slog.Default())
	if got := w.Balance(ctx); got != 73 {
		t.Errorf("balance = %d, want 73 from store", got)
	}
}

func TestBalance_InvalidStoredValueFallsBackToInitial(t *testing.T) {
	kv := store.NewMemoryStore()
	ctx := context.Background()
	if err := kv.Set(ctx, "weatherWizardTokens", "lots"); err != nil {
		t.Fatal(err)
	}

	w := New(kv, 100, nil, slog.Default())
	if got := w.Balance(ctx); got != 100 {
		t.Errorf("balance = %d, want initial 100 on corrupt store value", got)
	}
}

func TestDebit_ReducesAndPersists(t *testing.T) {
	kv := store.NewMemoryStore()
	ctx := context.Background()
	w := New(kv, 100, nil, slog.Default())

	balance, outcome, err := w.Debit(ctx, 30)
	if err != nil {
		t.Fatalf("Debit: %v", err)
	}
	if balance != 70 {
		t.Errorf("balance after debit = %d, want 70", balance)
	}
	if outcome != Persisted {
		t.Errorf("outcome = %v, want Persisted", outcome)
	}

	raw, ok, _ := kv.Get(ctx, "weatherWizardTokens")
	if !ok || raw != "70" {
		t.Errorf("stored balance = (%q, %v), want (70, true)", raw, ok)
	}
}

func TestDebit_InsufficientTokens(t *testing.T) {
	w := New(store.NewMemoryStore(), 10, nil, slog.Default())
	ctx := context.Background()

	balance, _, err := w.Debit(ctx, 50)
	if !errors.Is(err, ErrInsufficientTokens) {
		t.Fatalf("err = %v, want ErrInsufficientTokens", err)
	}
	if balance != 10 {
		t.Errorf("balance after failed debit = %d, want unchanged 10", balance)
	}
}

func TestRefund_CreditsAndNotifies(t *testing.T) {
	broadcast := notify.NewBroadcast()
	events, cancel := broadcast.Subscribe()
	defer cancel()

	w := New(store.NewMemoryStore(), 100, broadcast, slog.Default())
	ctx := context.Background()

	if _, _, err := w.Debit(ctx, 50); err != nil {
		t.Fatal(err)
	}
	balance, outcome := w.Refund(ctx, 50)
	if balance != 100 {
		t.Errorf("balance after refund = %d, want 100", balance)
	}
	if outcome != Persisted {
		t.Errorf("outcome = %v, want Persisted", outcome)
	}

	select {
	case event := <-events:
		if event.Operation != notify.EventTokenUpdate {
			t.Errorf("event operation = %q, want %q", event.Operation, notify.EventTokenUpdate)
		}
		if event.Balance != 100 {
			t.Errorf("event balance = %d, want 100", event.Balance)
		}
	case <-time.After(time.Second):
		t.Fatal("no token update published after refund")
	}
}

func TestRefund_ZeroIsNoOp(t *testing.T) {
	broadcast := notify.NewBroadcast()
	events, cancel := broadcast.Subscribe()
	defer cancel()

	w := New(store.NewMemoryStore(), 100, broadcast, slog.Default())
	balance, _ := w.Refund(context.Background(), 0)
	if balance != 100 {
		t.Errorf("balance = %d, want 100", balance)
	}

	select {
	case event := <-events:
		t.Errorf("unexpected event for zero refund: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

// writeFailKV fails all writes to exercise the memory-only outcome.
type writeFailKV struct {
	store.KV
}

func (f *writeFailKV) Set(context.Context, string, string) error {
	return errors.New("store unavailable")
}

func TestDebit_StoreFailureIsMemoryOnly(t *testing.T) {
	w := New(&writeFailKV{KV: store.NewMemoryStore()}, 100, nil, slog.Default())
	ctx := context.Background()

	balance, outcome, err := w.Debit(ctx, 40)
	if err != nil {
		t.Fatalf("Debit must not fail on persistence errors: %v", err)
	}
	if balance != 60 {
		t.Errorf("balance = %d, want 60 (in-memory state authoritative)", balance)
	}
	if outcome != MemoryOnly {
		t.Errorf("outcome = %v, want MemoryOnly", outcome)
	}

	// The session keeps its in-memory balance.
	if got := w.Balance(ctx); got != 60 {
		t.Errorf("Balance = %d, want 60", got)
	}
}

func TestReset_RestoresInitialBalance(t *testing.T) {
	kv := store.NewMemoryStore()
	ctx := context.Background()
	w := New(kv, 100, nil, slog.Default())

	if _, _, err := w.Debit(ctx, 90); err != nil {
		t.Fatal(err)
	}
	balance, outcome := w.Reset(ctx)
	if balance != 100 {
		t.Errorf("balance after reset = %d, want 100", balance)
	}
	if outcome != Persisted {
		t.Errorf("outcome = %v, want Persisted", outcome)
	}
}
