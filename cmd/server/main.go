// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/airwavefm/airwave/internal/api/httpapi"
	"github.com/airwavefm/airwave/internal/app/autoplay"
	"github.com/airwavefm/airwave/internal/app/catalog"
	"github.com/airwavefm/airwave/internal/app/identity"
	"github.com/airwavefm/airwave/internal/app/notify"
	"github.com/airwavefm/airwave/internal/app/player"
	"github.com/airwavefm/airwave/internal/app/session"
	"github.com/airwavefm/airwave/internal/infra/config"
	"github.com/airwavefm/airwave/internal/infra/library"
	"github.com/airwavefm/airwave/internal/infra/logger"
	"github.com/airwavefm/airwave/internal/infra/queuestore"
)

var (
	app        = kingpin.New("airwave-server", "airwave playback server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{Output: "stdout", Level: "info"}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
		loggerConfig.File = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}
	// Command-line flags win over the config file for logging.
	if !*verbose && *logfile == "" {
		if err := logger.Init(logger.Config{Output: cfg.Log.Output, Level: cfg.Log.Level, File: cfg.Log.File}); err != nil {
			zlog.Fatal().Msgf("Failed to reinitialize logger: %v", err)
		}
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	// Queue store backend
	var store player.Store
	switch cfg.Storage.Backend {
	case "redis":
		redisStore, err := queuestore.NewRedis(ctx, queuestore.RedisConfig{
			Addr:      cfg.Storage.Redis.Addr,
			Password:  cfg.Storage.Redis.Password,
			DB:        cfg.Storage.Redis.DB,
			KeyPrefix: cfg.Storage.Redis.KeyPrefix,
		})
		if err != nil {
			return fmt.Errorf("failed to connect queue store: %w", err)
		}
		defer redisStore.Close()
		store = redisStore
		zlog.Info().Msgf("Queue store: redis addr=%s", cfg.Storage.Redis.Addr)
	case "memory":
		store = queuestore.NewMemory()
		zlog.Warn().Msg("Queue store: in-memory (queues do not survive restarts)")
	}

	// Catalog provider
	cat, err := catalog.NewFromConfig(cfg.Catalog)
	if err != nil {
		return fmt.Errorf("failed to create catalog provider: %w", err)
	}

	// Playlist library
	lib, err := library.Open(cfg.Library.Path)
	if err != nil {
		return fmt.Errorf("failed to open playlist library: %w", err)
	}
	defer lib.Close()
	zlog.Info().Msgf("Playlist library: %s", cfg.Library.Path)

	// Event fan-out with a history logger attached
	events := notify.NewHub()
	defer events.Close()
	historyID, historyCh := events.Subscribe(cfg.Player.EventBuffer)
	defer events.Unsubscribe(historyID)
	go logHistory(historyCh)

	// Session manager
	sessions := session.NewManager(session.Config{
		Store:          store,
		Catalog:        cat,
		Events:         events,
		EventBuffer:    cfg.Player.EventBuffer,
		PersistTimeout: cfg.PersistTimeout(),
	})
	defer sessions.Close()

	// Autoplay continuation
	autoplayWorker := autoplay.New(autoplay.Config{
		Sessions: sessions,
		Source:   cat,
		Events:   events,
	})
	autoplayWorker.Start()
	defer autoplayWorker.Stop()

	resolver := identity.NewResolver(cfg.Auth.JWTSecret, cfg.TokenTTL())
	api := httpapi.New(sessions, cat, lib, resolver)

	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h2c.NewHandler(api.Handler(), &http2.Server{}),
	}

	serverErrCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	// Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")
	return nil
}

// logHistory records playback events until the subscription closes.
func logHistory(ch <-chan notify.Notification) {
	for n := range ch {
		if n.Event.Type == player.EventTrackStarted && n.Event.Track != nil {
			zlog.Info().Msgf("history: track started: namespace=%s track=%s name=%q",
				n.Namespace, n.Event.Track.ID, n.Event.Track.Name)
			continue
		}
		zlog.Debug().Msgf("history: %s: namespace=%s queue_len=%d",
			n.Event.Type, n.Namespace, n.Event.QueueLen)
	}
}
