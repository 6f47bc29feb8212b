package postgrest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_SearchSongs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/songs", r.URL.Path)
		assert.Equal(t, "*,artist:profiles(*),album:albums(*)", r.URL.Query().Get("select"))
		w.Write([]byte(`[
			{"id":"s1","title":"Love Me Tender","artist_id":"a1",
			 "artist":{"id":"a1","display_name":"Nova Ray","is_artist":true},
			 "album":{"id":"al1","title":"Love Songs","artist_id":"a1"}}
		]`))
	}))
	defer server.Close()

	repo := New(server.URL, "key")
	songs, err := repo.SearchSongs(context.Background(), "love", 20)
	require.NoError(t, err)
	require.Len(t, songs, 1)
	assert.Equal(t, "Love Me Tender", songs[0].Title)
	require.NotNil(t, songs[0].Artist)
	assert.Equal(t, "Nova Ray", songs[0].Artist.DisplayName)
	require.NotNil(t, songs[0].Album)
	assert.Equal(t, "Love Songs", songs[0].Album.Title)
}

func TestRepository_SearchAlbums(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/albums", r.URL.Path)
		assert.Equal(t, "*,artist:profiles(*)", r.URL.Query().Get("select"))
		assert.Equal(t, "ilike.*love*", r.URL.Query().Get("title"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		w.Write([]byte(`[{"id":"al1","title":"Love Songs","artist_id":"a1"}]`))
	}))
	defer server.Close()

	repo := New(server.URL, "key")
	albums, err := repo.SearchAlbums(context.Background(), "love", 10)
	require.NoError(t, err)
	require.Len(t, albums, 1)
	assert.Equal(t, "Love Songs", albums[0].Title)
}

func TestRepository_History(t *testing.T) {
	searchedAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	t.Run("insert", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/search_history", r.URL.Path)
			w.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		repo := New(server.URL, "key")
		assert.NoError(t, repo.InsertSearch(context.Background(), "user-1", "love", searchedAt))
	})

	t.Run("list recent", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "eq.user-1", q.Get("user_id"))
			assert.Equal(t, "searched_at.desc", q.Get("order"))
			assert.Equal(t, "10", q.Get("limit"))
			w.Write([]byte(`[
				{"id":"h2","user_id":"user-1","query":"rock","searched_at":"2026-08-30T12:01:00Z"},
				{"id":"h1","user_id":"user-1","query":"love","searched_at":"2026-08-30T12:00:00Z"}
			]`))
		}))
		defer server.Close()

		repo := New(server.URL, "key")
		entries, err := repo.ListRecentSearches(context.Background(), "user-1", 10)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "rock", entries[0].Query)
		assert.True(t, entries[0].SearchedAt.After(entries[1].SearchedAt))
	})

	t.Run("delete all", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			w.Write([]byte(`[{"id":"h1"},{"id":"h2"}]`))
		}))
		defer server.Close()

		repo := New(server.URL, "key")
		count, err := repo.DeleteAllSearches(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})
}

func TestRepository_ListPlaylists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/playlists", r.URL.Path)
		assert.Equal(t, "eq.user-1", r.URL.Query().Get("user_id"))
		w.Write([]byte(`[{"id":"pl1","user_id":"user-1","name":"Roadtrip","created_at":"2026-08-01T00:00:00Z"}]`))
	}))
	defer server.Close()

	repo := New(server.URL, "key")
	playlists, err := repo.ListPlaylists(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, playlists, 1)
	assert.Equal(t, "Roadtrip", playlists[0].Name)
}
