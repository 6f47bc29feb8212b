package postgrest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fbraun/melodia/internal/repository"
)

func TestClient_Select(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/songs", r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "*,artist:profiles(*)", q.Get("select"))
		assert.Equal(t, "(title.ilike.*love*,artist.display_name.ilike.*love*)", q.Get("or"))
		assert.Equal(t, "20", q.Get("limit"))
		assert.Equal(t, "test-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"s1"}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	pattern := ContainsPattern("love")
	raw, err := client.Select(context.Background(), "songs", SelectOptions{
		Columns: "*,artist:profiles(*)",
		Filters: []Filter{Or(
			CondIlike("title", pattern),
			CondIlike("artist.display_name", pattern),
		)},
		Limit: 20,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"s1"}]`, string(raw))
}

func TestClient_SelectOrderAndFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "eq.user-1", q.Get("user_id"))
		assert.Equal(t, "searched_at.desc", q.Get("order"))
		assert.Equal(t, "10", q.Get("limit"))
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	_, err := client.Select(context.Background(), "search_history", SelectOptions{
		Filters: []Filter{Eq("user_id", "user-1")},
		Order:   &Order{Column: "searched_at", Descending: true},
		Limit:   10,
	})
	require.NoError(t, err)
}

func TestClient_Insert(t *testing.T) {
	t.Run("successful insert", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/search_history", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "return=minimal", r.Header.Get("Prefer"))

			var record map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&record))
			assert.Equal(t, "love", record["query"])

			w.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		client := NewClient(server.URL, "")
		err := client.Insert(context.Background(), "search_history", map[string]any{"query": "love"})
		assert.NoError(t, err)
	})

	t.Run("rejected insert maps to validation error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"message":"malformed record"}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, "")
		err := client.Insert(context.Background(), "search_history", map[string]any{})
		require.Error(t, err)
		assert.ErrorIs(t, err, repository.ErrValidation)
	})
}

func TestClient_DeleteWhere(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "eq.user-1", r.URL.Query().Get("user_id"))
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		w.Write([]byte(`[{"id":"h1"},{"id":"h2"},{"id":"h3"}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	count, err := client.DeleteWhere(context.Background(), "search_history", Eq("user_id", "user-1"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestClient_TransportErrors(t *testing.T) {
	t.Run("backend failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := NewClient(server.URL, "")
		_, err := client.Select(context.Background(), "songs", SelectOptions{})
		require.Error(t, err)
		assert.ErrorIs(t, err, repository.ErrTransport)
	})

	t.Run("unreachable backend", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1", "")
		_, err := client.Select(context.Background(), "songs", SelectOptions{})
		require.Error(t, err)
		assert.ErrorIs(t, err, repository.ErrTransport)
	})
}
