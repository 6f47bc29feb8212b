package mocks

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"github.com/fbraun/melodia/internal/domain"
)

// Service is a mock implementation of search.Service
type Service struct {
	mock.Mock
}

// Search runs one search submission
func (m *Service) Search(ctx context.Context, userID, rawQuery string) (*domain.SearchResults, error) {
	args := m.Called(ctx, userID, rawQuery)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SearchResults), args.Error(1)
}

// Active returns the in-progress flag and published result set
func (m *Service) Active(userID string) (bool, *domain.SearchResults) {
	args := m.Called(userID)
	if args.Get(1) == nil {
		return args.Bool(0), nil
	}
	return args.Bool(0), args.Get(1).(*domain.SearchResults)
}

// History returns the cached recent-search list
func (m *Service) History(ctx context.Context, userID string) (json.RawMessage, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

// ClearHistory deletes all history for a user
func (m *Service) ClearHistory(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// Playlists returns the cached playlists for a user
func (m *Service) Playlists(ctx context.Context, userID string) (json.RawMessage, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

// Close closes the service and its dependencies
func (m *Service) Close() error {
	args := m.Called()
	return args.Error(0)
}
