package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fbraun/melodia/internal/cache"
	"github.com/fbraun/melodia/internal/domain"
	"github.com/fbraun/melodia/internal/repository"
)

// Default result caps
const (
	DefaultSongLimit    = 20
	DefaultAlbumLimit   = 10
	DefaultHistoryLimit = 10
)

var emptyList = json.RawMessage("[]")

// Config holds limits for the search service
type Config struct {
	SongLimit    int
	AlbumLimit   int
	HistoryLimit int
}

// service implements the Service interface
type service struct {
	log   zerolog.Logger
	store repository.Store
	cache cache.QueryCache
	cfg   Config

	mu       sync.Mutex
	sessions map[string]*session
}

// session tracks per-user search state: the busy flag, the latest
// issued invocation sequence, and the published result set
type session struct {
	busy    bool
	seq     uint64
	results *domain.SearchResults
}

// NewService creates a new search service
func NewService(store repository.Store, queryCache cache.QueryCache, cfg Config, log zerolog.Logger) Service {
	if cfg.SongLimit <= 0 {
		cfg.SongLimit = DefaultSongLimit
	}
	if cfg.AlbumLimit <= 0 {
		cfg.AlbumLimit = DefaultAlbumLimit
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	return &service{
		log:      log.With().Str("component", "search").Logger(),
		store:    store,
		cache:    queryCache,
		cfg:      cfg,
		sessions: make(map[string]*session),
	}
}

// Search runs one search submission end to end
func (s *service) Search(ctx context.Context, userID, rawQuery string) (*domain.SearchResults, error) {
	query := strings.TrimSpace(rawQuery)
	if query == "" {
		// Guard path: clear the active result set, no backend calls
		s.clearActive(userID)
		return nil, nil
	}

	seq := s.begin(userID)
	defer s.finish(userID)

	searchedAt := time.Now()

	var wg sync.WaitGroup

	// History append is best-effort telemetry of search intent: it is
	// issued before the lookups start and must never abort them
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.store.InsertSearch(ctx, userID, query, searchedAt); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("failed to record search history")
		}
	}()

	var (
		songs     []domain.Song
		albums    []domain.Album
		songsErr  error
		albumsErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		songs, songsErr = s.store.SearchSongs(ctx, query, s.cfg.SongLimit)
	}()
	go func() {
		defer wg.Done()
		albums, albumsErr = s.store.SearchAlbums(ctx, query, s.cfg.AlbumLimit)
	}()
	wg.Wait()

	if songsErr != nil {
		return nil, fmt.Errorf("song lookup failed: %w", songsErr)
	}
	if albumsErr != nil {
		return nil, fmt.Errorf("album lookup failed: %w", albumsErr)
	}

	// Caps hold regardless of backend response size
	if len(songs) > s.cfg.SongLimit {
		songs = songs[:s.cfg.SongLimit]
	}
	if len(albums) > s.cfg.AlbumLimit {
		albums = albums[:s.cfg.AlbumLimit]
	}
	if songs == nil {
		songs = []domain.Song{}
	}
	if albums == nil {
		albums = []domain.Album{}
	}

	if err := s.cache.Invalidate(ctx, historyKey(userID)); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("failed to refresh history cache")
	}

	results := &domain.SearchResults{Songs: songs, Albums: albums}
	s.publish(userID, seq, results)
	return results, nil
}

// Active returns the busy flag and published result set for a user
func (s *service) Active(userID string) (bool, *domain.SearchResults) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return false, nil
	}
	return sess.busy, sess.results
}

// History returns the cached recent-search list, newest first
func (s *service) History(ctx context.Context, userID string) (json.RawMessage, error) {
	fetch := func(fctx context.Context) (json.RawMessage, error) {
		entries, err := s.store.ListRecentSearches(fctx, userID, s.cfg.HistoryLimit)
		if err != nil {
			return nil, err
		}
		if entries == nil {
			entries = []domain.SearchHistoryEntry{}
		}
		return json.Marshal(entries)
	}
	return s.cache.Get(ctx, historyKey(userID), fetch, emptyList)
}

// ClearHistory deletes all history for a user. The cached list is
// emptied optimistically even when the backend delete fails; the
// inconsistency window closes on the next invalidation.
func (s *service) ClearHistory(ctx context.Context, userID string) (int64, error) {
	count, deleteErr := s.store.DeleteAllSearches(ctx, userID)

	if err := s.cache.Set(ctx, historyKey(userID), emptyList); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("failed to clear cached history")
	}

	if deleteErr != nil {
		return 0, fmt.Errorf("failed to clear search history: %w", deleteErr)
	}
	return count, nil
}

// Playlists returns the cached playlists for a user
func (s *service) Playlists(ctx context.Context, userID string) (json.RawMessage, error) {
	fetch := func(fctx context.Context) (json.RawMessage, error) {
		playlists, err := s.store.ListPlaylists(fctx, userID)
		if err != nil {
			return nil, err
		}
		if playlists == nil {
			playlists = []domain.Playlist{}
		}
		return json.Marshal(playlists)
	}
	return s.cache.Get(ctx, cache.Key{Kind: cache.KindPlaylists, UserID: userID}, fetch, emptyList)
}

// Close closes the service and its dependencies
func (s *service) Close() error {
	if err := s.cache.Close(); err != nil {
		return fmt.Errorf("failed to close cache: %w", err)
	}
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("failed to close record store: %w", err)
	}
	return nil
}

// begin marks the user busy and returns this invocation's sequence
// number. Concurrent searches for one user are allowed; they share the
// busy flag and race on it.
func (s *service) begin(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(userID)
	sess.busy = true
	sess.seq++
	return sess.seq
}

// finish releases the busy flag. Runs on every path out of Search.
func (s *service) finish(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session(userID).busy = false
}

// publish installs the merged result set unless a newer invocation has
// been issued since this one started
func (s *service) publish(userID string, seq uint64, results *domain.SearchResults) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(userID)
	if seq != sess.seq {
		return
	}
	sess.results = results
}

// clearActive resets the result set to none without touching the
// busy flag
func (s *service) clearActive(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session(userID).results = nil
}

// session returns the state for userID, creating it if needed.
// Callers hold mu.
func (s *service) session(userID string) *session {
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &session{}
		s.sessions[userID] = sess
	}
	return sess
}

func historyKey(userID string) cache.Key {
	return cache.Key{Kind: cache.KindSearchHistory, UserID: userID}
}

// Ensure service implements the interface
var _ Service = (*service)(nil)
