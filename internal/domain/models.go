package domain

import (
	"time"
)

// Profile represents a user or artist profile embedded in catalog rows
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	IsArtist    bool   `json:"is_artist"`
}

// Song is a read-only catalog projection with embedded relations.
// The service passes it through without validating or mutating its fields.
type Song struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	ArtistID   string   `json:"artist_id"`
	AlbumID    *string  `json:"album_id,omitempty"`
	CoverURL   string   `json:"cover_url,omitempty"`
	IsExplicit bool     `json:"is_explicit"`
	PlayCount  int64    `json:"play_count"`
	Artist     *Profile `json:"artist,omitempty"`
	Album      *Album   `json:"album,omitempty"`
}

// Album is a read-only catalog projection with an embedded artist
type Album struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	ArtistID string   `json:"artist_id"`
	CoverURL string   `json:"cover_url,omitempty"`
	Artist   *Profile `json:"artist,omitempty"`
}

// Playlist is a read-only dependency of the search presentation
type Playlist struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// SearchHistoryEntry is one persisted search submission
type SearchHistoryEntry struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Query      string    `json:"query"`
	SearchedAt time.Time `json:"searched_at"`
}

// SearchResults is the ephemeral merged result of one search fan-out.
// It is replaced wholesale on each search and never persisted.
type SearchResults struct {
	Songs  []Song  `json:"songs"`
	Albums []Album `json:"albums"`
}

// SearchRequest represents the request to execute a search
type SearchRequest struct {
	UserID string `json:"user_id"`
	Query  string `json:"query"`
}

// SearchResponse represents the response to a search request.
// Results is null when the empty-query guard fired.
type SearchResponse struct {
	Results *SearchResults `json:"results"`
}

// ActiveSearchResponse mirrors the presentation contract: Busy disables
// resubmission, and a nil Results means the history view is shown instead
type ActiveSearchResponse struct {
	Busy    bool           `json:"busy"`
	Results *SearchResults `json:"results"`
}

// ClearHistoryResponse reports how many entries the backend deleted
type ClearHistoryResponse struct {
	Deleted int64 `json:"deleted"`
}
