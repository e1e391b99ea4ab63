package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/VaidehiLodhi/alibi-legal-assist/internal/config"
	"github.com/VaidehiLodhi/alibi-legal-assist/internal/logging"
	"github.com/VaidehiLodhi/alibi-legal-assist/internal/metrics"
	"github.com/VaidehiLodhi/alibi-legal-assist/internal/persistence/postgres"
	"github.com/VaidehiLodhi/alibi-legal-assist/internal/repository"
	"github.com/VaidehiLodhi/alibi-legal-assist/internal/worker"
	"github.com/VaidehiLodhi/alibi-legal-assist/internal/worker/executors"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.Component(logging.NewLogger(cfg.Env), "worker")
	metrics.Init()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set; chat replies will fail")
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db connect failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := postgres.EnsureSchema(ctx, pool, logger); err != nil {
			logger.Error("schema bootstrap failed", "error", err)
			os.Exit(1)
		}
	}

	w := worker.New(worker.Deps{
		Queue:       repository.NewMessageRepository(pool, logger),
		Responder:   executors.NewGeminiExecutor(cfg.GeminiEndpoint, cfg.GeminiAPIKey, nil),
		Logger:      logger,
		MaxAttempts: cfg.WorkerMaxAttempts,
	})

	logger.Info("worker started", "poll_interval", cfg.WorkerPollInterval.String())
	w.Run(ctx, cfg.WorkerPollInterval)
	logger.Info("worker stopped")
}
