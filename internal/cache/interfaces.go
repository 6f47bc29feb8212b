package cache

import (
	"context"
	"encoding/json"
	"fmt"
)

// Kind identifies a cached resource type
type Kind string

const (
	// KindSearchHistory caches a user's recent search submissions
	KindSearchHistory Kind = "search-history"

	// KindPlaylists caches a user's playlists (read-only dependency)
	KindPlaylists Kind = "playlists"
)

// Key scopes one cached value by resource kind and owning user
type Key struct {
	Kind   Kind
	UserID string
}

// String renders the key in its canonical "{kind}-{userId}" form
func (k Key) String() string {
	return fmt.Sprintf("%s-%s", k.Kind, k.UserID)
}

// Fetcher loads the current value for a key from the backend.
// Fetchers run outside request scope; the cache owns their context.
type Fetcher func(ctx context.Context) (json.RawMessage, error)

// QueryCache defines the keyed query cache shared by all components.
// Mutation is whole-value overwrite only; a key has at most one
// in-flight fetch and the last resolution wins.
type QueryCache interface {
	// Get returns the cached value for key if present. On a miss it
	// returns fallback immediately, registers fetch for the key, and
	// fills the cache asynchronously. The registered fetcher is also
	// what Invalidate re-runs later.
	Get(ctx context.Context, key Key, fetch Fetcher, fallback json.RawMessage) (json.RawMessage, error)

	// Invalidate marks the entry stale and triggers an asynchronous
	// re-fetch with the last-registered fetcher. A failed re-fetch
	// leaves the previous value in place.
	Invalidate(ctx context.Context, key Key) error

	// Set overwrites the cached value directly without re-fetching
	// (used for optimistic local clears).
	Set(ctx context.Context, key Key, value json.RawMessage) error

	// Subscribe registers fn to run whenever the value for key
	// resolves to something new. The returned func cancels it.
	Subscribe(key Key, fn func(json.RawMessage)) (cancel func())

	// Close waits for in-flight fetches and releases resources
	Close() error
}
