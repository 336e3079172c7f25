// Package main is the entrypoint for the PitchLens API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kiranshivaraju/pitchlens/internal/ai"
	"github.com/kiranshivaraju/pitchlens/internal/api"
	"github.com/kiranshivaraju/pitchlens/internal/api/handler"
	mw "github.com/kiranshivaraju/pitchlens/internal/api/middleware"
	"github.com/kiranshivaraju/pitchlens/internal/cache"
	"github.com/kiranshivaraju/pitchlens/internal/config"
	"github.com/kiranshivaraju/pitchlens/internal/jobs"
	"github.com/kiranshivaraju/pitchlens/internal/metrics"
	"github.com/kiranshivaraju/pitchlens/internal/queue"
	"github.com/kiranshivaraju/pitchlens/internal/store"
	"github.com/kiranshivaraju/pitchlens/internal/uploads"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func run() error {
	// 1. Load config; fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(newLogger(os.Stdout, cfg.Server.LogLevel))
	slog.Info("config loaded", "env", cfg.Server.Env, "upload_backend", cfg.Uploads.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 3. Optional job history
	var history store.Store
	if cfg.Database.Enabled() {
		pg, err := store.Open(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("open job history: %w", err)
		}
		defer pg.Close()
		history = pg
		slog.Info("job history enabled")
	}

	// 4. Upload storage and prompt
	docs, err := uploads.NewStorage(ctx, cfg.Uploads)
	if err != nil {
		return fmt.Errorf("create upload storage: %w", err)
	}
	prompt, err := ai.PromptTemplate(cfg.AI)
	if err != nil {
		return fmt.Errorf("load prompt template: %w", err)
	}

	// 5. Job submission
	m := metrics.New()
	tracker := jobs.NewTracker(redisCache, history, cfg.Redis.ResultTTL)
	producer := queue.NewRedisQueue(redisCache.Client(), "")
	submitter := jobs.NewSubmitter(docs, tracker, producer, prompt)

	// 6. Build router with dependencies
	services := map[string]handler.Pinger{"redis": redisCache}
	if history != nil {
		services["postgres"] = history
	}

	router := api.NewRouter(api.Dependencies{
		Auth:        mw.NewAuth(cfg.APIKeyHashes),
		RateLimit:   mw.NewRateLimit(redisCache, cfg.RateLimit),
		Metrics:     m,
		CORSOrigins: cfg.CORS,

		HealthHandler:  handler.NewHealthHandler(services),
		AnalyzeHandler: handler.NewAnalyzeHandler(submitter, cfg.Uploads.MaxBytes, m),
		StatusHandler:  handler.NewStatusHandler(tracker),
	})

	// 7. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
