package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/csvkit/internal/config"
	"github.com/JonMunkholm/csvkit/internal/core"
	"github.com/JonMunkholm/csvkit/internal/decode"
	"github.com/JonMunkholm/csvkit/internal/logging"
	"github.com/JonMunkholm/csvkit/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"max_file_size", cfg.Convert.MaxFileSize.String(),
		"convert_max_concurrent", cfg.Convert.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"history_database", cfg.Database.Enabled(),
	)

	ctx := context.Background()

	history, closeHistory, err := openHistory(ctx, cfg)
	if err != nil {
		slog.Error("failed to open history store", "error", err)
		os.Exit(1)
	}
	defer closeHistory()

	service := core.NewService(core.Options{
		MaxConcurrent:   cfg.Convert.MaxConcurrent,
		MaxWait:         cfg.Convert.MaxWaitTime,
		Timeout:         cfg.Convert.Timeout,
		DefaultEncoding: cfg.Convert.DefaultEncoding,
		OutputDelimiter: cfg.Convert.Delimiter(),
		Formats:         core.NewFormatRegistry(core.BuiltinFormats(decode.XLSX{}, decode.PDF{})...),
		History:         history,
	})

	formats := service.Formats()
	keys := make([]string, len(formats))
	for i, f := range formats {
		keys[i] = f.Key
	}
	slog.Info("formats registered", "count", len(formats), "formats", strings.Join(keys, ","))

	// Background jobs and the rate limiter cleanup stop with jobCtx.
	jobCtx, cancelJobs := context.WithCancel(ctx)
	defer cancelJobs()

	go service.StartRetentionScheduler(jobCtx, core.RetentionConfig{
		MaxAge:        cfg.History.MaxAge,
		CheckInterval: cfg.History.CheckInterval,
	})

	server := web.NewServer(jobCtx, service, cfg)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for conversions to complete", "active", status.Active)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown did not complete in time", "error", err)
			return
		}
		slog.Info("all conversions completed")
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
}

// openHistory connects the Postgres history store when a database is
// configured and falls back to memory otherwise.
func openHistory(ctx context.Context, cfg *config.Config) (core.HistoryStore, func(), error) {
	if !cfg.Database.Enabled() {
		slog.Info("no database configured, keeping history in memory", "capacity", cfg.History.Capacity)
		return core.NewMemoryHistory(cfg.History.Capacity), func() {}, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	store := core.NewPostgresHistory(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool.Close, nil
}
