package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fbraun/melodia/internal/cache"
	"github.com/fbraun/melodia/internal/cache/memory"
	redisCache "github.com/fbraun/melodia/internal/cache/redis"
	"github.com/fbraun/melodia/internal/config"
	"github.com/fbraun/melodia/internal/repository"
	"github.com/fbraun/melodia/internal/repository/postgrest"
	"github.com/fbraun/melodia/internal/repository/sqlite"
	"github.com/fbraun/melodia/internal/search"
	"github.com/fbraun/melodia/internal/transport/client"
	httpTransport "github.com/fbraun/melodia/internal/transport/http"
)

var rootCmd = &cobra.Command{
	Use:   "melodia",
	Short: "Music search service",
	Long:  "A music search backend with query caching, search history and a pluggable record store (PostgREST or SQLite)",
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the search server",
	RunE:  runServer,
}

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Client commands for interacting with the server",
}

var searchCmd = &cobra.Command{
	Use:   "search [QUERY]",
	Short: "Search songs and albums",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent searches, newest first",
	RunE:  runHistory,
}

var replayCmd = &cobra.Command{
	Use:   "replay [POSITION]",
	Short: "Re-run a recent search by its position in the history list",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

var clearHistoryCmd = &cobra.Command{
	Use:   "clear-history",
	Short: "Delete all recent searches",
	RunE:  runClearHistory,
}

var playlistsCmd = &cobra.Command{
	Use:   "playlists",
	Short: "List playlists",
	RunE:  runPlaylists,
}

func init() {
	// Server command flags; unset flags fall back to the environment
	serverCmd.Flags().StringP("port", "p", "", "Server port")
	serverCmd.Flags().String("store-backend", "", "Record store backend (postgrest or sqlite)")
	serverCmd.Flags().String("postgrest-url", "", "PostgREST base URL")
	serverCmd.Flags().String("postgrest-key", "", "PostgREST API key")
	serverCmd.Flags().String("db-path", "", "SQLite database file path")
	serverCmd.Flags().String("cache-backend", "", "Query cache backend (memory or redis)")
	serverCmd.Flags().String("redis-addr", "", "Redis address for the redis cache backend")
	serverCmd.Flags().String("log-level", "", "Log level (trace, debug, info, warn, error)")
	serverCmd.Flags().Bool("log-pretty", false, "Human-readable console log output")

	// Client command flags
	clientCmd.PersistentFlags().StringP("server-url", "u", "http://localhost:8080", "Server URL")
	clientCmd.PersistentFlags().String("user", "", "User identifier")
	clientCmd.MarkPersistentFlagRequired("user")

	clientCmd.AddCommand(searchCmd, historyCmd, replayCmd, clearHistoryCmd, playlistsCmd)
	rootCmd.AddCommand(serverCmd, clientCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	applyFlags(cmd, cfg)

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}

	log.Info().
		Str("port", cfg.Server.Port).
		Str("store", cfg.Store.Backend).
		Str("cache", cfg.Cache.Backend).
		Msg("starting melodia server")

	store, err := newStore(cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to initialize record store: %w", err)
	}

	queryCache, err := newCache(cfg.Cache, log)
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to initialize query cache: %w", err)
	}

	searcher := search.NewService(store, queryCache, cfg.Search, log)
	defer func() {
		if err := searcher.Close(); err != nil {
			log.Error().Err(err).Msg("error closing search service")
		}
	}()

	server := httpTransport.NewServer(searcher, cfg.Server.Port, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("shutting down gracefully")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("error during server shutdown")
		}
	}

	log.Info().Msg("server stopped")
	return nil
}

// applyFlags overrides environment configuration with any flags the
// operator set explicitly
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if v, _ := cmd.Flags().GetString("port"); v != "" {
		cfg.Server.Port = v
	}
	if v, _ := cmd.Flags().GetString("store-backend"); v != "" {
		cfg.Store.Backend = v
	}
	if v, _ := cmd.Flags().GetString("postgrest-url"); v != "" {
		cfg.Store.PostgrestURL = v
	}
	if v, _ := cmd.Flags().GetString("postgrest-key"); v != "" {
		cfg.Store.PostgrestKey = v
	}
	if v, _ := cmd.Flags().GetString("db-path"); v != "" {
		cfg.Store.SQLitePath = v
	}
	if v, _ := cmd.Flags().GetString("cache-backend"); v != "" {
		cfg.Cache.Backend = v
	}
	if v, _ := cmd.Flags().GetString("redis-addr"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Logging.Level = v
	}
	if cmd.Flags().Changed("log-pretty") {
		cfg.Logging.Pretty, _ = cmd.Flags().GetBool("log-pretty")
	}
}

func newLogger(cfg config.LoggingConfig) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var log zerolog.Logger
	if cfg.Pretty {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(level).With().Timestamp().Logger(), nil
}

func newStore(cfg config.StoreConfig) (repository.Store, error) {
	switch cfg.Backend {
	case config.StorePostgrest:
		return postgrest.New(cfg.PostgrestURL, cfg.PostgrestKey), nil
	case config.StoreSQLite:
		return sqlite.New(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Backend)
	}
}

func newCache(cfg cache.Config, log zerolog.Logger) (cache.QueryCache, error) {
	switch cfg.Backend {
	case cache.BackendMemory:
		return memory.New(log), nil
	case cache.BackendRedis:
		return redisCache.New(redisCache.Config{Addr: cfg.RedisAddr}, log)
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Backend)
	}
}

func newCommands(cmd *cobra.Command) (*client.Commands, string) {
	serverURL, _ := cmd.Flags().GetString("server-url")
	userID, _ := cmd.Flags().GetString("user")
	return client.NewCommands(client.NewClient(serverURL)), userID
}

func runSearch(cmd *cobra.Command, args []string) error {
	commands, userID := newCommands(cmd)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return commands.Search(ctx, userID, args[0])
}

func runHistory(cmd *cobra.Command, args []string) error {
	commands, userID := newCommands(cmd)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return commands.History(ctx, userID)
}

func runReplay(cmd *cobra.Command, args []string) error {
	position, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("position must be a number: %w", err)
	}

	commands, userID := newCommands(cmd)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return commands.Replay(ctx, userID, position)
}

func runClearHistory(cmd *cobra.Command, args []string) error {
	commands, userID := newCommands(cmd)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return commands.ClearHistory(ctx, userID)
}

func runPlaylists(cmd *cobra.Command, args []string) error {
	commands, userID := newCommands(cmd)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return commands.Playlists(ctx, userID)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
