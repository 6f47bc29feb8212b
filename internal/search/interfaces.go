package search

import (
	"context"
	"encoding/json"

	"github.com/fbraun/melodia/internal/domain"
)

// Service defines the search workflow operations
type Service interface {
	// Search runs one search submission: guard empty queries, record
	// history, fan out the song and album lookups, refresh the history
	// cache, and publish the merged result set. A nil result set with a
	// nil error means the empty-query guard fired.
	Search(ctx context.Context, userID, rawQuery string) (*domain.SearchResults, error)

	// Active returns the in-progress flag and the currently published
	// result set for a user. A nil result set means the history view is
	// shown instead.
	Active(userID string) (busy bool, results *domain.SearchResults)

	// History returns the cached recent-search list for a user,
	// newest first, capped for display
	History(ctx context.Context, userID string) (json.RawMessage, error)

	// ClearHistory deletes all history for a user and optimistically
	// empties the cached list without waiting for a re-fetch
	ClearHistory(ctx context.Context, userID string) (int64, error)

	// Playlists returns the cached playlists for a user
	Playlists(ctx context.Context, userID string) (json.RawMessage, error)

	// Close closes the service and its dependencies
	Close() error
}
