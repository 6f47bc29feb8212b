package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fbraun/melodia/internal/domain"
)

// ErrValidation indicates the backend rejected a write (malformed record)
var ErrValidation = errors.New("record rejected by backend")

// ErrTransport indicates the record store was unreachable or failed
var ErrTransport = errors.New("record store unavailable")

// HistoryRepository defines search-history operations against the record store
type HistoryRepository interface {
	// InsertSearch appends one history entry for a user
	InsertSearch(ctx context.Context, userID, query string, searchedAt time.Time) error

	// ListRecentSearches returns up to limit entries, newest first
	ListRecentSearches(ctx context.Context, userID string, limit int) ([]domain.SearchHistoryEntry, error)

	// DeleteAllSearches removes every history entry for a user and
	// returns the number of rows deleted
	DeleteAllSearches(ctx context.Context, userID string) (int64, error)
}

// CatalogRepository defines read-only lookups over songs and albums
type CatalogRepository interface {
	// SearchSongs matches songs whose title or artist display name
	// contains query (case-insensitive), with artist and album embedded
	SearchSongs(ctx context.Context, query string, limit int) ([]domain.Song, error)

	// SearchAlbums matches albums whose title contains query
	// (case-insensitive), with the artist embedded
	SearchAlbums(ctx context.Context, query string, limit int) ([]domain.Album, error)
}

// PlaylistRepository defines the read-only playlist lookup consumed by
// the search presentation
type PlaylistRepository interface {
	ListPlaylists(ctx context.Context, userID string) ([]domain.Playlist, error)
}

// Store bundles every record-store port plus lifecycle
type Store interface {
	HistoryRepository
	CatalogRepository
	PlaylistRepository

	// Close closes the record store connection
	Close() error
}
