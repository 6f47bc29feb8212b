package integration

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fbraun/melodia/internal/cache"
	"github.com/fbraun/melodia/internal/cache/memory"
	"github.com/fbraun/melodia/internal/repository/sqlite"
	"github.com/fbraun/melodia/internal/search"
	"github.com/fbraun/melodia/internal/transport/client"
	httpTransport "github.com/fbraun/melodia/internal/transport/http"
)

type testStack struct {
	repo   *sqlite.Repository
	cache  *memory.Cache
	client *client.Client
}

func setupStack(t *testing.T) *testStack {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "melodia_integration.db")
	repo, err := sqlite.New(dbPath)
	require.NoError(t, err)

	seedCatalog(t, repo)

	queryCache := memory.New(zerolog.Nop())
	searcher := search.NewService(repo, queryCache, search.Config{}, zerolog.Nop())
	t.Cleanup(func() { searcher.Close() })

	server := httpTransport.NewServer(searcher, "0", zerolog.Nop())
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)

	return &testStack{
		repo:   repo,
		cache:  queryCache,
		client: client.NewClient(ts.URL),
	}
}

func seedCatalog(t *testing.T, repo *sqlite.Repository) {
	t.Helper()
	ctx := context.Background()

	stmts := []struct {
		sql  string
		args []any
	}{
		{"INSERT INTO profiles (id, display_name, is_artist) VALUES (?, ?, 1)", []any{"artist-1", "Nova Ray"}},
		{"INSERT INTO profiles (id, display_name, is_artist) VALUES (?, ?, 1)", []any{"artist-2", "Night Owls"}},
		{"INSERT INTO albums (id, title, artist_id) VALUES (?, ?, ?)", []any{"album-1", "Love Songs", "artist-1"}},
		{"INSERT INTO songs (id, title, artist_id, album_id) VALUES (?, ?, ?, ?)", []any{"song-1", "Love Me Tender", "artist-1", "album-1"}},
		{"INSERT INTO songs (id, title, artist_id, album_id) VALUES (?, ?, ?, ?)", []any{"song-2", "Lovesick Blues", "artist-1", "album-1"}},
		{"INSERT INTO songs (id, title, artist_id) VALUES (?, ?, ?)", []any{"song-3", "Highway", "artist-2"}},
		{"INSERT INTO playlists (id, user_id, name, created_at) VALUES (?, ?, ?, ?)", []any{"pl-1", "user-1", "Roadtrip", time.Now().UTC()}},
	}
	for _, s := range stmts {
		_, err := repo.DB().ExecContext(ctx, s.sql, s.args...)
		require.NoError(t, err)
	}
}

func waitForUpdate(t *testing.T, ch <-chan json.RawMessage) json.RawMessage {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cache update")
		return nil
	}
}

func TestIntegration_SearchWorkflow(t *testing.T) {
	stack := setupStack(t)
	ctx := context.Background()

	// Prime the history view so later invalidations refresh it
	entries, err := stack.client.History(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, entries)

	updates := make(chan json.RawMessage, 4)
	cancel := stack.cache.Subscribe(
		cache.Key{Kind: cache.KindSearchHistory, UserID: "user-1"},
		func(v json.RawMessage) { updates <- v },
	)
	defer cancel()

	// Initial background fill of the empty history
	waitForUpdate(t, updates)

	// Submitting a search returns matching songs and albums
	result, err := stack.client.Search(ctx, "user-1", "love")
	require.NoError(t, err)
	require.NotNil(t, result.Results)
	assert.Len(t, result.Results.Songs, 2)
	assert.Len(t, result.Results.Albums, 1)

	// The published result set survives the request
	active, err := stack.client.ActiveSearch(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, active.Busy)
	require.NotNil(t, active.Results)
	assert.Len(t, active.Results.Songs, 2)

	// The history cache was refreshed with the new entry
	waitForUpdate(t, updates)
	entries, err = stack.client.History(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "love", entries[0].Query)
}

func TestIntegration_EmptyQueryGuard(t *testing.T) {
	stack := setupStack(t)
	ctx := context.Background()

	// A whitespace-only query records nothing and publishes nothing
	result, err := stack.client.Search(ctx, "user-1", "   ")
	require.NoError(t, err)
	assert.Nil(t, result.Results)

	active, err := stack.client.ActiveSearch(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, active.Busy)
	assert.Nil(t, active.Results)

	var count int
	require.NoError(t, stack.repo.DB().QueryRow(
		"SELECT COUNT(*) FROM search_history WHERE user_id = ?", "user-1").Scan(&count))
	assert.Zero(t, count)
}

func TestIntegration_ReplayFromHistory(t *testing.T) {
	stack := setupStack(t)
	ctx := context.Background()

	updates := make(chan json.RawMessage, 4)
	cancel := stack.cache.Subscribe(
		cache.Key{Kind: cache.KindSearchHistory, UserID: "user-1"},
		func(v json.RawMessage) { updates <- v },
	)
	defer cancel()

	// Prime the history view, then wait for the cache to settle after
	// each search so replay sees both entries
	_, err := stack.client.History(ctx, "user-1")
	require.NoError(t, err)
	waitForUpdate(t, updates)

	_, err = stack.client.Search(ctx, "user-1", "highway")
	require.NoError(t, err)
	waitForUpdate(t, updates)

	_, err = stack.client.Search(ctx, "user-1", "love")
	require.NoError(t, err)
	waitForUpdate(t, updates)

	commands := client.NewCommands(stack.client)

	// Position 2 replays the older "highway" search
	require.NoError(t, commands.Replay(ctx, "user-1", 2))

	entries, err := stack.repo.ListRecentSearches(ctx, "user-1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "highway", entries[0].Query)

	active, err := stack.client.ActiveSearch(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, active.Results)
	require.Len(t, active.Results.Songs, 1)
	assert.Equal(t, "Highway", active.Results.Songs[0].Title)
}

func TestIntegration_ClearHistory(t *testing.T) {
	stack := setupStack(t)
	ctx := context.Background()

	for _, q := range []string{"love", "highway", "blues"} {
		_, err := stack.client.Search(ctx, "user-1", q)
		require.NoError(t, err)
	}

	deleted, err := stack.client.ClearHistory(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	// The emptied list is readable immediately, no re-fetch round trip
	entries, err := stack.client.History(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, entries)

	var count int
	require.NoError(t, stack.repo.DB().QueryRow(
		"SELECT COUNT(*) FROM search_history WHERE user_id = ?", "user-1").Scan(&count))
	assert.Zero(t, count)
}

func TestIntegration_Playlists(t *testing.T) {
	stack := setupStack(t)
	ctx := context.Background()

	updates := make(chan json.RawMessage, 2)
	cancel := stack.cache.Subscribe(
		cache.Key{Kind: cache.KindPlaylists, UserID: "user-1"},
		func(v json.RawMessage) { updates <- v },
	)
	defer cancel()

	// First read serves the fallback while the fetch runs
	playlists, err := stack.client.Playlists(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, playlists)

	waitForUpdate(t, updates)

	playlists, err = stack.client.Playlists(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, playlists, 1)
	assert.Equal(t, "Roadtrip", playlists[0].Name)
}

func TestIntegration_UserIsolation(t *testing.T) {
	stack := setupStack(t)
	ctx := context.Background()

	_, err := stack.client.Search(ctx, "user-1", "love")
	require.NoError(t, err)

	// Another user's view is untouched
	active, err := stack.client.ActiveSearch(ctx, "user-2")
	require.NoError(t, err)
	assert.False(t, active.Busy)
	assert.Nil(t, active.Results)

	entries, err := stack.repo.ListRecentSearches(ctx, "user-2", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
