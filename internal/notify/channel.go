// Package notify defines the typed event contract used to propagate token
// balance changes to interested views, and the channel abstraction that makes
// the transport swappable (in-process fan-out here; a browser client bridges
// these events to its opener window or any other surface).
package notify

import (
	"context"
	"sync"
)

// EventTokenUpdate is the operation name for balance-change events.
const EventTokenUpdate = "token_update"

// TokenUpdate is the payload of a balance-change event. Receivers overwrite
// their in-memory balance with the received value.
type TokenUpdate struct {
	Operation string `json:"operation"` // always EventTokenUpdate
	Balance   int    `json:"balance"`
}

// Channel publishes token-update events to whoever is listening. A nil or
// absent channel is valid; publishing is always best-effort.
type Channel interface {
	Publish(ctx context.Context, event TokenUpdate) error
}

// Broadcast is an in-process Channel that fans events out to subscribers.
// Slow subscribers are skipped rather than blocking the publisher; balance
// events are idempotent snapshots, so a dropped intermediate value is
// recovered by the next one.
type Broadcast struct {
	mu   sync.RWMutex
	subs []chan TokenUpdate
}

// NewBroadcast creates an empty Broadcast channel.
func NewBroadcast() *Broadcast {
	return &Broadcast{}
}

// Subscribe registers a listener and returns its receive channel together
// with an unsubscribe function.
func (b *Broadcast) Subscribe() (<-chan TokenUpdate, func()) {
	ch := make(chan TokenUpdate, 8)

	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, sub := range b.subs {
			if sub == ch {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

// Publish delivers the event to all current subscribers without blocking.
func (b *Broadcast) Publish(_ context.Context, event TokenUpdate) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		select {
		case sub <- event:
		default:
		}
	}
	return nil
}
