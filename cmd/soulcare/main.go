package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"soulcare/internal/auth"
	"soulcare/internal/chat"
	"soulcare/internal/config"
	"soulcare/internal/genai"
	"soulcare/internal/history"
	"soulcare/internal/metrics"
	"soulcare/internal/server"
	"soulcare/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setupLogger(cfg.Log.Level)
	log.Info().
		Bool("remote_store", cfg.Remote.Enabled()).
		Str("model", cfg.Gen.Model).
		Str("local_db", cfg.Local.Path).
		Msg("starting soulcare")

	if cfg.Gen.APIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is empty, generation calls will return the apology reply")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	local, err := storage.OpenLocal(ctx, cfg.Local.Path)
	if err != nil {
		// The local store is the durability backstop; without it nothing
		// guarantees the transcript survives a remote outage.
		log.Fatal().Err(err).Msg("failed to open local store")
	}
	defer local.Close()

	// Remote availability is decided here, once, and threaded in as an
	// explicit capability: a nil remote means disabled for the process
	// lifetime.
	var remote *storage.RemoteStore
	if cfg.Remote.Enabled() {
		remote, err = storage.OpenRemote(ctx, cfg.Remote.URL, cfg.Remote.Key, cfg.Remote.AutoMigrate, "migrations", log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open remote store")
		}
		defer remote.Close()
	} else {
		log.Warn().Msg("remote store not configured, running on local store only")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect redis")
	}
	defer rdb.Close()

	m := metrics.Global()

	var remoteConvs history.RemoteConversations
	var cfgReader auth.ConfigReader
	if remote != nil {
		remoteConvs = remote
		cfgReader = remote
	}

	repo := history.NewRepository(remoteConvs, local, log.Logger, m)
	verifier := auth.NewVerifier(cfgReader, log.Logger, m)
	sessions := auth.NewSessionStore(rdb, cfg.Session.TTL)
	limiter := auth.NewRateLimiter(rdb, cfg.Rate.PerHour)
	gen := genai.New(genai.Config{
		APIKey:  cfg.Gen.APIKey,
		Model:   cfg.Gen.Model,
		Logger:  log.Logger,
		Metrics: m,
	})
	turns := chat.NewService(repo, gen, log.Logger)

	srv := server.New(server.Config{
		Verifier:      verifier,
		Sessions:      sessions,
		Limiter:       limiter,
		Conversations: repo,
		Turns:         turns,
		Logger:        log.Logger,
		HealthPath:    cfg.HealthPath,
		MetricsPath:   cfg.MetricsPath,
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("runtime error")
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to stop http server")
	}

	log.Info().Msg("stopped")
}

func setupLogger(level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(parseLogLevel(level))
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
