// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VaidehiLodhi/alibi-legal-assist/internal/automation"
	"github.com/VaidehiLodhi/alibi-legal-assist/internal/config"
	"github.com/VaidehiLodhi/alibi-legal-assist/internal/logging"
	"github.com/VaidehiLodhi/alibi-legal-assist/internal/persistence/postgres"
	"github.com/VaidehiLodhi/alibi-legal-assist/internal/relay"
	"github.com/VaidehiLodhi/alibi-legal-assist/internal/reports"
	"github.com/VaidehiLodhi/alibi-legal-assist/internal/repository"
	httptransport "github.com/VaidehiLodhi/alibi-legal-assist/internal/transport/http"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	logger := logging.NewLogger(cfg.Env)

	deps := httptransport.Deps{
		WorkflowSecret:     cfg.WorkflowEventsSecret,
		KeepAliveInterval:  cfg.KeepAliveInterval,
		SubscriberBuffer:   cfg.SubscriberBuffer,
		IngestMaxBodyBytes: cfg.IngestMaxBodyBytes,
		Logger:             logger,
		Version:            Version,
		Commit:             Commit,
		BuildDate:          BuildDate,
	}

	if cfg.WorkflowEventsSecret == "" {
		logger.Warn("WORKFLOW_EVENTS_SECRET not set; workflow event ingestion is open")
	}

	registry := relay.NewRegistry(relay.WithMaxSubscribers(cfg.MaxSubscribers))
	deps.Registry = registry
	deps.Publisher = relay.NewPublisher(registry, logging.Component(logger, "relay"))

	webhooks := automation.New(automation.Options{
		UploadURL:     cfg.N8NWebhookURL,
		ContactURL:    cfg.N8NContactWebhookURL,
		Timeout:       cfg.WebhookTimeout,
		RetryAttempts: cfg.WebhookRetryAttempts,
		Logger:        logging.Component(logger, "automation"),
	})
	if cfg.N8NWebhookURL == "" {
		logger.Warn("N8N_WEBHOOK_URL not set; pdf uploads will be rejected")
	}

	reportsDeps := reports.Deps{
		Analyzer: webhooks,
		Notifier: webhooks,
		Logger:   logging.Component(logger, "reports"),
	}

	if cfg.DatabaseURL != "" {
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

		reportsDeps.Contacts = repository.NewContactRepository(pool, logger)
		deps.Messages = repository.NewMessageRepository(pool, logger)
		deps.HealthChecker = postgres.NewSchemaHealthChecker(pool)
	} else {
		logger.Warn("DATABASE_URL not set; contact storage and chat messages disabled")
	}

	deps.Reports = reports.NewService(reportsDeps)

	streamDone := make(chan struct{})
	deps.StreamDone = streamDone

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httptransport.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}
	srv.RegisterOnShutdown(func() { close(streamDone) })

	go func() {
		logger.Info("api listening",
			"addr", cfg.HTTPAddr,
			"version", Version,
			"commit", Commit,
			"build_date", BuildDate,
		)

		if err := srv.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server", "subscribers", registry.Len())

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
}
