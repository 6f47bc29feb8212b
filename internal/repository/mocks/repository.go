package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/fbraun/melodia/internal/domain"
	"github.com/fbraun/melodia/internal/repository"
)

// Store is a mock implementation of repository.Store
type Store struct {
	mock.Mock
}

// InsertSearch appends one history entry for a user
func (m *Store) InsertSearch(ctx context.Context, userID, query string, searchedAt time.Time) error {
	args := m.Called(ctx, userID, query, searchedAt)
	return args.Error(0)
}

// ListRecentSearches returns up to limit entries, newest first
func (m *Store) ListRecentSearches(ctx context.Context, userID string, limit int) ([]domain.SearchHistoryEntry, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SearchHistoryEntry), args.Error(1)
}

// DeleteAllSearches removes every history entry for a user
func (m *Store) DeleteAllSearches(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// SearchSongs matches songs by title or artist display name
func (m *Store) SearchSongs(ctx context.Context, query string, limit int) ([]domain.Song, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Song), args.Error(1)
}

// SearchAlbums matches albums by title
func (m *Store) SearchAlbums(ctx context.Context, query string, limit int) ([]domain.Album, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Album), args.Error(1)
}

// ListPlaylists returns a user's playlists
func (m *Store) ListPlaylists(ctx context.Context, userID string) ([]domain.Playlist, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Playlist), args.Error(1)
}

// Close closes the record store connection
func (m *Store) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Ensure Store implements the interface
var _ repository.Store = (*Store)(nil)
