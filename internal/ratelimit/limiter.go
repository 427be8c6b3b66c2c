// Package ratelimit implements a local sliding-window request gate for named
// external operations. It bounds how often the service calls shared weather
// and geocoding quotas; it is advisory, not a security control.
//
// Per-operation request timestamps are persisted through the store.KV
// contract under a fixed key prefix, as a JSON array of milliseconds since
// epoch. The read-prune-append cycle is serialized within a process by a
// mutex, but the storage layer gives no cross-process atomicity: two
// processes sharing a store can race and over-admit by one. That weakness is
// documented and accepted for a client-local limiter.
package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"weatherwager/internal/store"
)

// keyPrefix namespaces rate-limit keys in the shared KV store.
const keyPrefix = "rateLimit_"

// Policy configures one named operation's sliding window.
type Policy struct {
	// MaxRequests admitted per window.
	MaxRequests int
	// Window is the sliding window duration.
	Window time.Duration
	// DisplayName is the human-readable operation name used in messages.
	DisplayName string
}

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed bool `json:"allowed"`
	// WaitTimeSeconds is how long the caller must wait, rounded up to whole
	// seconds. Only set when the request is denied.
	WaitTimeSeconds int `json:"wait_time_seconds,omitempty"`
	// Message is a human-readable denial message.
	Message string `json:"message,omitempty"`
	// LimitName is the denied operation's display name.
	LimitName string `json:"limit_name,omitempty"`
	// RemainingRequests is the quota left in the current window. Only set
	// when the request is allowed for a configured operation.
	RemainingRequests int `json:"remaining_requests,omitempty"`
}

// Status is the read-only view of one operation's window.
type Status struct {
	RemainingRequests int           `json:"remaining_requests"`
	CurrentRequests   int           `json:"current_requests"`
	MaxRequests       int           `json:"max_requests"`
	Window            time.Duration `json:"window_ms"`
}

// Limiter gates named operations against their policies using a persisted
// timestamp window.
type Limiter struct {
	mu       sync.Mutex
	kv       store.KV
	policies map[string]Policy
	logger   *slog.Logger
	now      func() time.Time
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithClock overrides the limiter's time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a Limiter over the given store and policy table.
func New(kv store.KV, policies map[string]Policy, logger *slog.Logger, opts ...Option) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Limiter{
		kv:       kv,
		policies: policies,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check decides whether a request for the named operation may proceed and,
// if so, records it.
//
// Unknown operations are always allowed (fail-open, log-worthy). A corrupt
// or unreadable persisted window is treated as empty. A failed persist does
// not block the caller; the request is still admitted.
func (l *Limiter) Check(ctx context.Context, operation string) Decision {
	policy, ok := l.policies[operation]
	if !ok {
		l.logger.Warn("no rate limit policy for operation", slog.String("operation", operation))
		return Decision{Allowed: true}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	timestamps := l.loadWindow(ctx, operation, policy, now)

	if len(timestamps) >= policy.MaxRequests {
		oldest := timestamps[0]
		for _, ts := range timestamps[1:] {
			if ts < oldest {
				oldest = ts
			}
		}
		waitMs := policy.Window.Milliseconds() - (now.UnixMilli() - oldest)
		waitSeconds := int((waitMs + 999) / 1000)

		return Decision{
			Allowed:         false,
			WaitTimeSeconds: waitSeconds,
			Message:         fmt.Sprintf("Too many requests. Please wait %d seconds.", waitSeconds),
			LimitName:       policy.DisplayName,
		}
	}

	timestamps = append(timestamps, now.UnixMilli())
	if err := l.persistWindow(ctx, operation, timestamps); err != nil {
		// Best-effort persistence: the request is admitted regardless.
		l.logger.Error("persisting rate limit window failed",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
	}

	return Decision{
		Allowed:           true,
		RemainingRequests: policy.MaxRequests - len(timestamps),
	}
}

// Status returns the remaining/used/max counts for an operation without
// recording a request. Returns nil for an unconfigured operation.
func (l *Limiter) Status(ctx context.Context, operation string) *Status {
	policy, ok := l.policies[operation]
	if !ok {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	timestamps := l.loadWindow(ctx, operation, policy, l.now())

	remaining := policy.MaxRequests - len(timestamps)
	if remaining < 0 {
		remaining = 0
	}
	return &Status{
		RemainingRequests: remaining,
		CurrentRequests:   len(timestamps),
		MaxRequests:       policy.MaxRequests,
		Window:            policy.Window,
	}
}

// Reset deletes the persisted window for an operation. Idempotent.
func (l *Limiter) Reset(ctx context.Context, operation string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.kv.Delete(ctx, keyPrefix+operation); err != nil {
		return fmt.Errorf("resetting rate limit for %s: %w", operation, err)
	}
	return nil
}

// ResetAll resets every configured operation.
func (l *Limiter) ResetAll(ctx context.Context) error {
	var firstErr error
	for operation := range l.policies {
		if err := l.Reset(ctx, operation); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Operations returns the configured operation names.
func (l *Limiter) Operations() []string {
	ops := make([]string, 0, len(l.policies))
	for op := range l.policies {
		ops = append(ops, op)
	}
	return ops
}

// loadWindow reads and prunes the persisted timestamp window. Read and parse
// failures degrade to an empty window. Caller holds l.mu.
func (l *Limiter) loadWindow(ctx context.Context, operation string, policy Policy, now time.Time) []int64 {
	raw, ok, err := l.kv.Get(ctx, keyPrefix+operation)
	if err != nil {
		l.logger.Error("reading rate limit window failed",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if !ok {
		return nil
	}

	var timestamps []int64
	if err := json.Unmarshal([]byte(raw), &timestamps); err != nil {
		l.logger.Error("corrupt rate limit window, treating as empty",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
		return nil
	}

	cutoff := now.UnixMilli() - policy.Window.Milliseconds()
	live := timestamps[:0]
	for _, ts := range timestamps {
		if ts > cutoff {
			live = append(live, ts)
		}
	}
	return live
}

// persistWindow writes the timestamp window back to the store. Caller holds l.mu.
func (l *Limiter) persistWindow(ctx context.Context, operation string, timestamps []int64) error {
	raw, err := json.Marshal(timestamps)
	if err != nil {
		return fmt.Errorf("encoding window: %w", err)
	}
	return l.kv.Set(ctx, keyPrefix+operation, string(raw))
}
