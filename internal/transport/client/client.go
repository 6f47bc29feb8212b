package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fbraun/melodia/internal/domain"
)

// Client represents an HTTP client for the search API
type Client struct {
	serverURL  string
	httpClient *http.Client
}

// NewClient creates a new search API client
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: serverURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Search submits a search for a user
func (c *Client) Search(ctx context.Context, userID, query string) (*domain.SearchResponse, error) {
	reqBody := domain.SearchRequest{UserID: userID, Query: query}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/api/search", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var result domain.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}

// ActiveSearch retrieves the in-progress flag and published results
func (c *Client) ActiveSearch(ctx context.Context, userID string) (*domain.ActiveSearchResponse, error) {
	var result domain.ActiveSearchResponse
	if err := c.getJSON(ctx, "/api/search/active", userID, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// History retrieves the recent-search list for a user
func (c *Client) History(ctx context.Context, userID string) ([]domain.SearchHistoryEntry, error) {
	var entries []domain.SearchHistoryEntry
	if err := c.getJSON(ctx, "/api/history", userID, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ClearHistory deletes all history for a user
func (c *Client) ClearHistory(ctx context.Context, userID string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.endpoint("/api/history", userID), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var result domain.ClearHistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Deleted, nil
}

// Playlists retrieves the playlists for a user
func (c *Client) Playlists(ctx context.Context, userID string) ([]domain.Playlist, error) {
	var playlists []domain.Playlist
	if err := c.getJSON(ctx, "/api/playlists", userID, &playlists); err != nil {
		return nil, err
	}
	return playlists, nil
}

func (c *Client) getJSON(ctx context.Context, path, userID string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, userID), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func (c *Client) endpoint(path, userID string) string {
	return c.serverURL + path + "?user_id=" + url.QueryEscape(userID)
}
