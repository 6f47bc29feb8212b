package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/fbraun/melodia/internal/domain"
	"github.com/fbraun/melodia/internal/repository"
)

// Repository implements repository.Store using a local SQLite file.
// It serves development and the integration suite; production points at
// the remote record store instead.
type Repository struct {
	db *sql.DB
}

// New creates a new SQLite repository
func New(databasePath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", databasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys and WAL mode for better performance
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	repo := &Repository{db: db}

	if err := repo.runMigrations(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

// InsertSearch appends one history entry for a user
func (r *Repository) InsertSearch(ctx context.Context, userID, query string, searchedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO search_history (id, user_id, query, searched_at) VALUES (?, ?, ?, ?)",
		uuid.NewString(), userID, query, searchedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert search history: %w", err)
	}
	return nil
}

// ListRecentSearches returns up to limit entries, newest first
func (r *Repository) ListRecentSearches(ctx context.Context, userID string, limit int) ([]domain.SearchHistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, query, searched_at
		FROM search_history
		WHERE user_id = ?
		ORDER BY searched_at DESC
		LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list search history: %w", err)
	}
	defer rows.Close()

	var entries []domain.SearchHistoryEntry
	for rows.Next() {
		var e domain.SearchHistoryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Query, &e.SearchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan search history: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteAllSearches removes every history entry for a user
func (r *Repository) DeleteAllSearches(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM search_history WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete search history: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted rows: %w", err)
	}
	return count, nil
}

// SearchSongs matches songs by title or artist display name, embedding
// the artist profile and parent album
func (r *Repository) SearchSongs(ctx context.Context, query string, limit int) ([]domain.Song, error) {
	pattern := "%" + query + "%"
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			s.id, s.title, s.artist_id, s.album_id, s.cover_url, s.is_explicit, s.play_count,
			p.id, p.display_name, p.avatar_url, p.is_artist,
			a.id, a.title, a.artist_id, a.cover_url
		FROM songs s
		JOIN profiles p ON p.id = s.artist_id
		LEFT JOIN albums a ON a.id = s.album_id
		WHERE lower(s.title) LIKE lower(?) OR lower(p.display_name) LIKE lower(?)
		LIMIT ?`,
		pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search songs: %w", err)
	}
	defer rows.Close()

	var songs []domain.Song
	for rows.Next() {
		var (
			song    domain.Song
			artist  domain.Profile
			albumID sql.NullString
			alID    sql.NullString
			alTitle sql.NullString
			alArt   sql.NullString
			alCover sql.NullString
		)
		if err := rows.Scan(
			&song.ID, &song.Title, &song.ArtistID, &albumID, &song.CoverURL, &song.IsExplicit, &song.PlayCount,
			&artist.ID, &artist.DisplayName, &artist.AvatarURL, &artist.IsArtist,
			&alID, &alTitle, &alArt, &alCover,
		); err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		song.Artist = &artist
		if albumID.Valid {
			song.AlbumID = &albumID.String
		}
		if alID.Valid {
			song.Album = &domain.Album{
				ID:       alID.String,
				Title:    alTitle.String,
				ArtistID: alArt.String,
				CoverURL: alCover.String,
			}
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

// SearchAlbums matches albums by title, embedding the artist profile
func (r *Repository) SearchAlbums(ctx context.Context, query string, limit int) ([]domain.Album, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			a.id, a.title, a.artist_id, a.cover_url,
			p.id, p.display_name, p.avatar_url, p.is_artist
		FROM albums a
		JOIN profiles p ON p.id = a.artist_id
		WHERE lower(a.title) LIKE lower(?)
		LIMIT ?`,
		"%"+query+"%", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search albums: %w", err)
	}
	defer rows.Close()

	var albums []domain.Album
	for rows.Next() {
		var (
			album  domain.Album
			artist domain.Profile
		)
		if err := rows.Scan(
			&album.ID, &album.Title, &album.ArtistID, &album.CoverURL,
			&artist.ID, &artist.DisplayName, &artist.AvatarURL, &artist.IsArtist,
		); err != nil {
			return nil, fmt.Errorf("failed to scan album: %w", err)
		}
		album.Artist = &artist
		albums = append(albums, album)
	}
	return albums, rows.Err()
}

// ListPlaylists returns a user's playlists
func (r *Repository) ListPlaylists(ctx context.Context, userID string) ([]domain.Playlist, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, created_at
		FROM playlists
		WHERE user_id = ?
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	defer rows.Close()

	var playlists []domain.Playlist
	for rows.Next() {
		var p domain.Playlist
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

// DB exposes the underlying handle for seeding and advanced operations
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the repository connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ensure Repository implements the interface
var _ repository.Store = (*Repository)(nil)
