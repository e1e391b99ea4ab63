// SPDX-License-Identifier: Apache-2.0

package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/VaidehiLodhi/alibi-legal-assist/internal/metrics"
	"github.com/VaidehiLodhi/alibi-legal-assist/internal/relay"
	"github.com/VaidehiLodhi/alibi-legal-assist/internal/transport/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	pathWorkflowEvents       = "/api/workflow-events"
	pathWorkflowEventsStream = "/api/workflow-events/stream"
)

type Deps struct {
	// Registry is required; Publisher is built from it when nil.
	Registry  *relay.Registry
	Publisher EventPublisher

	WorkflowSecret     string
	KeepAliveInterval  time.Duration
	SubscriberBuffer   int
	IngestMaxBodyBytes int64
	// StreamDone is closed on server shutdown to end open streams.
	StreamDone <-chan struct{}

	Reports       ReportsService
	Messages      MessageStore
	HealthChecker HealthChecker

	Logger    *slog.Logger
	Version   string
	Commit    string
	BuildDate string
}

func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Registry == nil {
		panic("httptransport.NewRouter requires a relay registry")
	}
	metrics.Init()
	version := valueOrDefault(deps.Version, "dev")
	commit := valueOrDefault(deps.Commit, "none")
	buildDate := valueOrDefault(deps.BuildDate, "unknown")

	publisher := deps.Publisher
	if publisher == nil {
		publisher = relay.NewPublisher(deps.Registry, logger)
	}

	keepAlive := deps.KeepAliveInterval
	if keepAlive <= 0 {
		keepAlive = defaultKeepAliveInterval
	}

	streamDone := deps.StreamDone
	if streamDone == nil {
		streamDone = make(chan struct{})
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware())
	r.Use(requestLoggingMiddleware(logger))
	r.Use(chimw.Recoverer)

	// ---------------- HEALTH ----------------

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("health check hit")
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.Check(r.Context()); err != nil {
				logger.Warn("health check failed", "error", err)
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// ---------------- METRICS ----------------

	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// ---------------- VERSION ----------------

	r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version":    version,
			"commit":     commit,
			"build_date": buildDate,
		})
	})

	// ---------------- WORKFLOW EVENTS ----------------

	eventsLogger := logger.With("component", "workflow_events")

	r.Options(pathWorkflowEvents, workflowEventsPreflight)

	r.With(middleware.WorkflowSecret(deps.WorkflowSecret, eventsLogger)).
		Method(http.MethodPost, pathWorkflowEvents, &ingestHandler{
			publisher:    publisher,
			schema:       mustCompileWorkflowEventSchema(),
			maxBodyBytes: deps.IngestMaxBodyBytes,
			logger:       eventsLogger,
			now:          time.Now,
		})

	r.Method(http.MethodGet, pathWorkflowEventsStream, &streamHandler{
		registry:  deps.Registry,
		keepAlive: keepAlive,
		buffer:    deps.SubscriberBuffer,
		done:      streamDone,
		logger:    eventsLogger,
	})

	// ---------------- REPORTS ----------------

	if deps.Reports != nil {
		r.Route("/api/reports", func(rr chi.Router) {
			rr.Post("/upload", uploadPDFHandler(deps.Reports, logger))
			rr.Post("/contact", saveContactHandler(deps.Reports, logger))
		})
	}

	// ---------------- CHAT MESSAGES ----------------

	if deps.Messages != nil {
		r.Route("/api/projects/{projectId}/messages", func(rr chi.Router) {
			rr.Post("/", createMessageHandler(deps.Messages, logger))
			rr.Get("/", listMessagesHandler(deps.Messages, logger))
		})
	}

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func valueOrDefault(value, defaultValue string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return defaultValue
	}
	return trimmed
}
