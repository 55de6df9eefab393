package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/happyloop/internal/aicheck"
	"github.com/dukerupert/happyloop/internal/config"
	"github.com/dukerupert/happyloop/internal/database"
	"github.com/dukerupert/happyloop/internal/evidence"
	"github.com/dukerupert/happyloop/internal/logging"
	"github.com/dukerupert/happyloop/internal/server"
)

const cleanupInterval = time.Hour

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "happyloop: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.LogLevel)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	files := evidence.New(cfg.S3, logger)
	if !files.Enabled() {
		logger.Warn("evidence storage disabled, set HAPPYLOOP_S3_BUCKET and credentials to enable uploads")
	}
	checker, err := aicheck.New(ctx, cfg.Gemini, logger)
	if err != nil {
		return err
	}
	if !checker.Enabled() {
		logger.Info("ai validation disabled, set GEMINI_API_KEY to enable")
	}

	srv := server.New(db, cfg, files, checker, logger)

	go srv.RateLimiter().Run(ctx, cleanupInterval)
	go cleanupSessions(ctx, srv, logger)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("happyloop running", "url", cfg.BaseURL, "db", cfg.DBPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func cleanupSessions(ctx context.Context, srv *server.Server, logger *slog.Logger) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := srv.SessionStore().DeleteExpired()
			if err != nil {
				logger.Error("delete expired sessions", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("expired sessions removed", "count", n)
			}
		}
	}
}
