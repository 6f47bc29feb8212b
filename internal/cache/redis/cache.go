package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/rueidis"
	"github.com/rs/zerolog"

	"github.com/fbraun/melodia/internal/cache"
)

const (
	keyPrefix      = "melodia:cache:"
	fetchTimeout   = 10 * time.Second
	clientCacheTTL = 30 * time.Second
)

// Config holds connection parameters for the redis cache backend
type Config struct {
	Addr     string
	Username string
	Password string
	DB       int
	TTL      time.Duration
}

// Cache implements cache.QueryCache backed by redis via rueidis.
// Values live in redis (with rueidis client-side caching on reads);
// fetchers and subscribers stay process-local.
type Cache struct {
	log    zerolog.Logger
	client rueidis.Client
	ttl    time.Duration

	mu       sync.Mutex
	fetchers map[string]cache.Fetcher
	fetching map[string]bool
	subs     map[string]map[int]func(json.RawMessage)
	nextID   int
	wg       sync.WaitGroup
	closed   bool
}

// New creates a redis-backed query cache
func New(cfg Config, log zerolog.Logger) (*Cache, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{cfg.Addr},
		Username:    cfg.Username,
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Cache{
		log:      log.With().Str("component", "cache-redis").Logger(),
		client:   client,
		ttl:      ttl,
		fetchers: make(map[string]cache.Fetcher),
		fetching: make(map[string]bool),
		subs:     make(map[string]map[int]func(json.RawMessage)),
	}, nil
}

// Get returns the cached value for key, or fallback on a miss while the
// fetch runs in the background. Redis read errors are swallowed into the
// fallback path so a degraded cache never fails the caller.
func (c *Cache) Get(ctx context.Context, key cache.Key, fetch cache.Fetcher, fallback json.RawMessage) (json.RawMessage, error) {
	k := key.String()

	c.mu.Lock()
	if fetch != nil {
		c.fetchers[k] = fetch
	}
	c.mu.Unlock()

	cmd := c.client.B().Get().Key(keyPrefix + k).Cache()
	raw, err := c.client.DoCache(ctx, cmd, clientCacheTTL).AsBytes()
	if err == nil {
		return json.RawMessage(raw), nil
	}
	if !rueidis.IsRedisNil(err) {
		c.log.Warn().Err(err).Str("key", k).Msg("redis read failed, serving fallback")
	}

	c.startFetch(k)
	return fallback, nil
}

// Invalidate triggers a background re-fetch with the last-registered
// fetcher for key
func (c *Cache) Invalidate(ctx context.Context, key cache.Key) error {
	c.startFetch(key.String())
	return nil
}

// Set overwrites the stored value directly and notifies subscribers
func (c *Cache) Set(ctx context.Context, key cache.Key, value json.RawMessage) error {
	k := key.String()
	if err := c.store(ctx, k, value); err != nil {
		return err
	}
	c.notify(k, value)
	return nil
}

// Subscribe registers fn for value updates on key. Notifications fire
// only in the process that resolved the value.
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

// Close waits for in-flight fetches and shuts down the client
func (c *Cache) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.wg.Wait()
	c.client.Close()
	return nil
}

// startFetch spawns the background re-fetch unless one is already in
// flight for this key or no fetcher was ever registered
func (c *Cache) startFetch(k string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.fetchers[k] == nil || c.fetching[k] {
		return
	}
	c.fetching[k] = true
	c.wg.Add(1)
	go c.refresh(k)
}

// refresh runs the registered fetcher for k and stores the result.
// A failed fetch leaves the previous stored value in place.
func (c *Cache) refresh(k string) {
	defer c.wg.Done()

	c.mu.Lock()
	fetch := c.fetchers[k]
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	value, err := fetch(ctx)

	c.mu.Lock()
	c.fetching[k] = false
	c.mu.Unlock()

	if err != nil {
		c.log.Warn().Err(err).Str("key", k).Msg("cache re-fetch failed, keeping previous value")
		return
	}
	if err := c.store(ctx, k, value); err != nil {
		c.log.Warn().Err(err).Str("key", k).Msg("failed to store re-fetched value")
		return
	}
	c.notify(k, value)
}

func (c *Cache) store(ctx context.Context, k string, value json.RawMessage) error {
	cmd := c.client.B().Set().Key(keyPrefix + k).Value(string(value)).Ex(c.ttl).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to store cache value: %w", err)
	}
	return nil
}

func (c *Cache) notify(k string, value json.RawMessage) {
	c.mu.Lock()
	fns := make([]func(json.RawMessage), 0, len(c.subs[k]))
	for _, fn := range c.subs[k] {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(append(json.RawMessage(nil), value...))
	}
}

// Ensure Cache implements the interface
var _ cache.QueryCache = (*Cache)(nil)
