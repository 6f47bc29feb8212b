package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/fbraun/melodia/internal/domain"
)

// Commands provides command-line operations for the client
type Commands struct {
	client *Client
}

// NewCommands creates a new Commands instance
func NewCommands(client *Client) *Commands {
	return &Commands{
		client: client,
	}
}

// Search submits a search and displays the merged results
func (c *Commands) Search(ctx context.Context, userID, query string) error {
	result, err := c.client.Search(ctx, userID, query)
	if err != nil {
		return err
	}

	if result.Results == nil {
		fmt.Println("Empty query, nothing searched")
		return nil
	}

	printResults(result.Results)
	return nil
}

// History displays the recent searches for a user, newest first
func (c *Commands) History(ctx context.Context, userID string) error {
	entries, err := c.client.History(ctx, userID)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No recent searches")
		return nil
	}

	fmt.Printf("%-40s %s\n", "Query", "Searched At")
	fmt.Println(strings.Repeat("-", 60))
	for _, entry := range entries {
		query := entry.Query
		if len(query) > 40 {
			query = query[:37] + "..."
		}
		fmt.Printf("%-40s %s\n", query, entry.SearchedAt.Format("2006-01-02 15:04:05"))
	}

	return nil
}

// Replay re-runs a recent search by its position in the history list,
// 1 being the most recent
func (c *Commands) Replay(ctx context.Context, userID string, position int) error {
	entries, err := c.client.History(ctx, userID)
	if err != nil {
		return err
	}

	if position < 1 || position > len(entries) {
		return fmt.Errorf("no history entry at position %d (have %d)", position, len(entries))
	}

	entry := entries[position-1]
	fmt.Printf("Replaying search: %s\n", entry.Query)
	return c.Search(ctx, userID, entry.Query)
}

// ClearHistory deletes all recent searches for a user
func (c *Commands) ClearHistory(ctx context.Context, userID string) error {
	deleted, err := c.client.ClearHistory(ctx, userID)
	if err != nil {
		return err
	}

	fmt.Printf("Cleared %d search history entries\n", deleted)
	return nil
}

// Playlists displays the playlists for a user
func (c *Commands) Playlists(ctx context.Context, userID string) error {
	playlists, err := c.client.Playlists(ctx, userID)
	if err != nil {
		return err
	}

	if len(playlists) == 0 {
		fmt.Println("No playlists")
		return nil
	}

	fmt.Printf("%-40s %s\n", "Name", "Created At")
	fmt.Println(strings.Repeat("-", 60))
	for _, playlist := range playlists {
		fmt.Printf("%-40s %s\n", playlist.Name, playlist.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	return nil
}

func printResults(results *domain.SearchResults) {
	fmt.Printf("Songs (%d):\n", len(results.Songs))
	for _, song := range results.Songs {
		artist := song.ArtistID
		if song.Artist != nil {
			artist = song.Artist.DisplayName
		}
		fmt.Printf("  %-40s %s\n", truncate(song.Title, 40), artist)
	}

	fmt.Printf("Albums (%d):\n", len(results.Albums))
	for _, album := range results.Albums {
		artist := album.ArtistID
		if album.Artist != nil {
			artist = album.Artist.DisplayName
		}
		fmt.Printf("  %-40s %s\n", truncate(album.Title, 40), artist)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
