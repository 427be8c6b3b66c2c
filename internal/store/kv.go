// Package store provides the namespaced string key-value store backing
// rate-limit records and the token balance. Three backends are available:
// an in-memory store (tests, ephemeral runs), a JSON file store (single
// process local persistence), and a Redis store (state shared across
// processes).
package store

import "context"

// KV is the persisted string key-value contract. Implementations must be
// safe for concurrent use within a process; they are NOT required to make
// read-modify-write cycles atomic across processes. Callers that need
// stronger guarantees must serialize access themselves.
type KV interface {
	// Get returns the value for key and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores the value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
