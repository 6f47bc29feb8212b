package postgrest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fbraun/melodia/internal/domain"
	"github.com/fbraun/melodia/internal/repository"
)

// Collections owned by the external record store
const (
	collectionSearchHistory = "search_history"
	collectionSongs         = "songs"
	collectionAlbums        = "albums"
	collectionPlaylists     = "playlists"
)

// Repository implements repository.Store against a remote PostgREST
// record store
type Repository struct {
	client *Client
}

// New creates a PostgREST-backed repository
func New(baseURL, apiKey string) *Repository {
	return &Repository{client: NewClient(baseURL, apiKey)}
}

// InsertSearch appends one history entry for a user
func (r *Repository) InsertSearch(ctx context.Context, userID, query string, searchedAt time.Time) error {
	record := map[string]any{
		"user_id":     userID,
		"query":       query,
		"searched_at": searchedAt.UTC().Format(time.RFC3339Nano),
	}
	if err := r.client.Insert(ctx, collectionSearchHistory, record); err != nil {
		return fmt.Errorf("failed to insert search history: %w", err)
	}
	return nil
}

// ListRecentSearches returns up to limit entries, newest first
func (r *Repository) ListRecentSearches(ctx context.Context, userID string, limit int) ([]domain.SearchHistoryEntry, error) {
	raw, err := r.client.Select(ctx, collectionSearchHistory, SelectOptions{
		Filters: []Filter{Eq("user_id", userID)},
		Order:   &Order{Column: "searched_at", Descending: true},
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list search history: %w", err)
	}

	var entries []domain.SearchHistoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode search history: %w", err)
	}
	return entries, nil
}

// DeleteAllSearches removes every history entry for a user
func (r *Repository) DeleteAllSearches(ctx context.Context, userID string) (int64, error) {
	count, err := r.client.DeleteWhere(ctx, collectionSearchHistory, Eq("user_id", userID))
	if err != nil {
		return 0, fmt.Errorf("failed to delete search history: %w", err)
	}
	return count, nil
}

// SearchSongs matches songs by title or artist display name
func (r *Repository) SearchSongs(ctx context.Context, query string, limit int) ([]domain.Song, error) {
	pattern := ContainsPattern(query)
	raw, err := r.client.Select(ctx, collectionSongs, SelectOptions{
		Columns: "*,artist:profiles(*),album:albums(*)",
		Filters: []Filter{Or(
			CondIlike("title", pattern),
			CondIlike("artist.display_name", pattern),
		)},
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search songs: %w", err)
	}

	var songs []domain.Song
	if err := json.Unmarshal(raw, &songs); err != nil {
		return nil, fmt.Errorf("failed to decode songs: %w", err)
	}
	return songs, nil
}

// SearchAlbums matches albums by title
func (r *Repository) SearchAlbums(ctx context.Context, query string, limit int) ([]domain.Album, error) {
	raw, err := r.client.Select(ctx, collectionAlbums, SelectOptions{
		Columns: "*,artist:profiles(*)",
		Filters: []Filter{Ilike("title", ContainsPattern(query))},
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search albums: %w", err)
	}

	var albums []domain.Album
	if err := json.Unmarshal(raw, &albums); err != nil {
		return nil, fmt.Errorf("failed to decode albums: %w", err)
	}
	return albums, nil
}

// ListPlaylists returns a user's playlists
func (r *Repository) ListPlaylists(ctx context.Context, userID string) ([]domain.Playlist, error) {
	raw, err := r.client.Select(ctx, collectionPlaylists, SelectOptions{
		Filters: []Filter{Eq("user_id", userID)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}

	var playlists []domain.Playlist
	if err := json.Unmarshal(raw, &playlists); err != nil {
		return nil, fmt.Errorf("failed to decode playlists: %w", err)
	}
	return playlists, nil
}

// Close closes the record store connection. The HTTP client holds no
// persistent resources.
func (r *Repository) Close() error {
	return nil
}

// Ensure Repository implements the interface
var _ repository.Store = (*Repository)(nil)
