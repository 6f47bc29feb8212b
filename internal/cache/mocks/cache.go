package mocks

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"github.com/fbraun/melodia/internal/cache"
)

// QueryCache is a mock implementation of cache.QueryCache
type QueryCache struct {
	mock.Mock
}

// Get returns the cached value for key or the fallback
func (m *QueryCache) Get(ctx context.Context, key cache.Key, fetch cache.Fetcher, fallback json.RawMessage) (json.RawMessage, error) {
	args := m.Called(ctx, key, fetch, fallback)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

// Invalidate marks the entry stale and triggers a re-fetch
func (m *QueryCache) Invalidate(ctx context.Context, key cache.Key) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// Set overwrites the cached value directly
func (m *QueryCache) Set(ctx context.Context, key cache.Key, value json.RawMessage) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

// Subscribe registers fn for value updates on key
func (m *QueryCache) Subscribe(key cache.Key, fn func(json.RawMessage)) func() {
	args := m.Called(key, fn)
	return args.Get(0).(func())
}

// Close releases cache resources
func (m *QueryCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Ensure QueryCache implements the interface
var _ cache.QueryCache = (*QueryCache)(nil)
