package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fbraun/melodia/internal/cache"
)

const fetchTimeout = 10 * time.Second

// Cache implements cache.QueryCache using in-memory storage.
// Entries live for the process lifetime; there is no eviction.
type Cache struct {
	log    zerolog.Logger
	mu     sync.Mutex
	slots  map[string]*slot
	subs   map[string]map[int]func(json.RawMessage)
	nextID int
	wg     sync.WaitGroup
	closed bool
}

type slot struct {
	value     json.RawMessage
	fetchedAt time.Time
	fetcher   cache.Fetcher
	present   bool
	fetching  bool
}

// New creates a new in-memory query cache
func New(log zerolog.Logger) *Cache {
	return &Cache{
		log:   log.With().Str("component", "cache").Logger(),
		slots: make(map[string]*slot),
		subs:  make(map[string]map[int]func(json.RawMessage)),
	}
}

// Get returns the cached value for key, or fallback on a miss while the
// fetch runs in the background
func (c *Cache) Get(ctx context.Context, key cache.Key, fetch cache.Fetcher, fallback json.RawMessage) (json.RawMessage, error) {
	k := key.String()

	c.mu.Lock()
	s := c.slot(k)
	if fetch != nil {
		s.fetcher = fetch
	}
	if s.present {
		v := cloneRaw(s.value)
		c.mu.Unlock()
		return v, nil
	}
	c.startFetchLocked(k, s)
	c.mu.Unlock()

	return fallback, nil
}

// Invalidate triggers a background re-fetch with the last-registered
// fetcher for key. A no-op when no fetcher was ever registered.
func (c *Cache) Invalidate(ctx context.Context, key cache.Key) error {
	k := key.String()

	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.slots[k]
	if !ok || s.fetcher == nil {
		return nil
	}
	c.startFetchLocked(k, s)
	return nil
}

// Set overwrites the cached value directly and notifies subscribers
func (c *Cache) Set(ctx context.Context, key cache.Key, value json.RawMessage) error {
	k := key.String()

	c.mu.Lock()
	s := c.slot(k)
	s.value = cloneRaw(value)
	s.fetchedAt = time.Now()
	s.present = true
	fns := c.subscribersLocked(k)
	c.mu.Unlock()

	for _, fn := range fns {
		fn(cloneRaw(value))
	}
	return nil
}

// Subscribe registers fn for value updates on key
func (c *Cache) Subscribe(key cache.Key, fn func(json.RawMessage)) func() {
	k := key.String()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.subs[k] == nil {
		c.subs[k] = make(map[int]func(json.RawMessage))
	}
	id := c.nextID
	c.nextID++
	c.subs[k][id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs[k], id)
	}
}

// Close waits for in-flight fetches to settle
func (c *Cache) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.wg.Wait()
	return nil
}

// slot returns the entry for k, creating it if needed. Callers hold mu.
func (c *Cache) slot(k string) *slot {
	s, ok := c.slots[k]
	if !ok {
		s = &slot{}
		c.slots[k] = s
	}
	return s
}

// startFetchLocked spawns the background fetch unless one is already in
// flight for this key. Callers hold mu.
func (c *Cache) startFetchLocked(k string, s *slot) {
	if c.closed || s.fetcher == nil || s.fetching {
		return
	}
	s.fetching = true
	c.wg.Add(1)
	go c.refresh(k)
}

// refresh runs the registered fetcher for k and stores the result.
// A failed fetch leaves the previous value in place.
func (c *Cache) refresh(k string) {
	defer c.wg.Done()

	c.mu.Lock()
	s, ok := c.slots[k]
	if !ok {
		c.mu.Unlock()
		return
	}
	fetch := s.fetcher
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	value, err := fetch(ctx)
	cancel()

	c.mu.Lock()
	s.fetching = false
	if err != nil {
		c.mu.Unlock()
		c.log.Warn().Err(err).Str("key", k).Msg("cache re-fetch failed, keeping previous value")
		return
	}
	s.value = cloneRaw(value)
	s.fetchedAt = time.Now()
	s.present = true
	fns := c.subscribersLocked(k)
	c.mu.Unlock()

	for _, fn := range fns {
		fn(cloneRaw(value))
	}
}

// subscribersLocked snapshots the callbacks for k. Callers hold mu.
func (c *Cache) subscribersLocked(k string) []func(json.RawMessage) {
	fns := make([]func(json.RawMessage), 0, len(c.subs[k]))
	for _, fn := range c.subs[k] {
		fns = append(fns, fn)
	}
	return fns
}

// cloneRaw copies a raw value to prevent external modification
func cloneRaw(v json.RawMessage) json.RawMessage {
	if v == nil {
		return nil
	}
	return append(json.RawMessage(nil), v...)
}

// Ensure Cache implements the interface
var _ cache.QueryCache = (*Cache)(nil)
