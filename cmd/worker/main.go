// Package main is the entrypoint for the PitchLens analysis worker.
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
	"github.com/kiranshivaraju/pitchlens/internal/cache"
	"github.com/kiranshivaraju/pitchlens/internal/config"
	"github.com/kiranshivaraju/pitchlens/internal/extract"
	"github.com/kiranshivaraju/pitchlens/internal/jobs"
	"github.com/kiranshivaraju/pitchlens/internal/metrics"
	"github.com/kiranshivaraju/pitchlens/internal/queue"
	"github.com/kiranshivaraju/pitchlens/internal/store"
	"github.com/kiranshivaraju/pitchlens/internal/uploads"
	"github.com/kiranshivaraju/pitchlens/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	if err := run(); err != nil {
		slog.Error("worker failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, level slog.Level, workerID string) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("worker_id", workerID)
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(newLogger(os.Stdout, cfg.Server.LogLevel, cfg.Worker.ID))
	slog.Info("config loaded", "ai_provider", cfg.AI.Provider, "concurrency", cfg.Worker.Concurrency)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

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

	docs, err := uploads.NewStorage(ctx, cfg.Uploads)
	if err != nil {
		return fmt.Errorf("create upload storage: %w", err)
	}

	analyst, err := ai.NewAnalyst(ctx, cfg.AI)
	if err != nil {
		return fmt.Errorf("create AI provider: %w", err)
	}
	slog.Info("AI provider initialized", "provider", analyst.Name())

	var scraper extract.Scraper = extract.NewWebScraper(cfg.Scrape.Timeout, cfg.Scrape.MaxBytes)
	if cfg.Scrape.CacheTTL > 0 {
		scraper = extract.NewCachedScraper(scraper, redisCache, cfg.Scrape.CacheTTL)
	}

	m := metrics.New()
	runner := jobs.NewRunner(jobs.RunnerDeps{
		Documents:        docs,
		Extractor:        extract.PDFExtractor{},
		Scraper:          scraper,
		Analyst:          analyst,
		Tracker:          jobs.NewTracker(redisCache, history, cfg.Redis.ResultTTL),
		Metrics:          m,
		InferenceTimeout: cfg.AI.InferenceTimeout,
	})
	consumer := queue.NewRedisQueue(redisCache.Client(), cfg.Worker.ID)
	pool := worker.NewPool(consumer, runner, cfg.Worker)

	metricsSrv := m.NewServer(cfg.Worker.MetricsPort)
	go func() {
		slog.Info("metrics listening", "addr", metricsSrv.Addr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "error", err)
		}
	}()

	// Start returns after running jobs drain, bounded by WORKER_DRAIN_TIMEOUT.
	if err := pool.Start(ctx); err != nil {
		return fmt.Errorf("worker pool: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("metrics shutdown: %w", err)
	}

	slog.Info("worker stopped gracefully")
	return nil
}
