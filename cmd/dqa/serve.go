package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/carlhabs/data-quality-analyzer/internal/config"
	"github.com/carlhabs/data-quality-analyzer/internal/history"
	"github.com/carlhabs/data-quality-analyzer/internal/logging"
	"github.com/carlhabs/data-quality-analyzer/internal/web"
)

// serveCommand starts the HTTP API server. Returns the process exit code.
func serveCommand(args []string) int {
	fs := flag.NewFlagSet("dqa serve", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return 2
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"history", cfg.HistoryEnabled(),
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	if err := serve(cfg); err != nil {
		slog.Error("server failed", "error", err)
		return 2
	}
	return 0
}

func serve(cfg *config.Config) error {
	ctx := context.Background()

	var store *history.Store
	if cfg.HistoryEnabled() {
		poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
		if err != nil {
			return err
		}
		poolConfig.MaxConns = int32(cfg.Database.MaxConns)
		poolConfig.MinConns = int32(cfg.Database.MinConns)
		poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			return err
		}

		store = history.New(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		slog.Info("run history enabled")
	}

	requestsPerMinute := 0
	if cfg.Rate.Enabled {
		requestsPerMinute = cfg.Rate.RequestsPerMinute
	}
	server := web.NewServer(web.Config{
		Store:             store,
		MaxUploadBytes:    cfg.Upload.MaxFileSize,
		RequestsPerMinute: requestsPerMinute,
	})

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Server.Addr())
		errCh <- server.Start(cfg.Server.Addr())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}
