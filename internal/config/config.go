// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"

type Config struct {
	HTTPAddr    string
	Env         string
	DatabaseURL string
	AutoMigrate bool

	// WorkflowEventsSecret gates ingestion when non-empty. Empty means open
	// ingestion.
	WorkflowEventsSecret string

	KeepAliveInterval  time.Duration
	SubscriberBuffer   int
	MaxSubscribers     int
	IngestMaxBodyBytes int64

	N8NWebhookURL        string
	N8NContactWebhookURL string
	WebhookTimeout       time.Duration
	WebhookRetryAttempts int

	GeminiAPIKey   string
	GeminiEndpoint string

	WorkerPollInterval time.Duration
	WorkerMaxAttempts  int
}

func Load() Config {
	return Config{
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		Env:         getenv("ENV", "dev"),
		DatabaseURL: getenv("DATABASE_URL", ""),
		AutoMigrate: getenvBool("AUTO_MIGRATE", true),

		WorkflowEventsSecret: getenv("WORKFLOW_EVENTS_SECRET", ""),

		KeepAliveInterval:  getenvDuration("SSE_KEEPALIVE_INTERVAL", 15*time.Second),
		SubscriberBuffer:   getenvInt("SSE_SUBSCRIBER_BUFFER", 64),
		MaxSubscribers:     getenvInt("SSE_MAX_SUBSCRIBERS", 0),
		IngestMaxBodyBytes: int64(getenvInt("INGEST_MAX_BODY_BYTES", 0)),

		N8NWebhookURL:        getenv("N8N_WEBHOOK_URL", ""),
		N8NContactWebhookURL: getenv("N8N_CONTACT_WEBHOOK_URL", ""),
		WebhookTimeout:       getenvDuration("WEBHOOK_TIMEOUT", 30*time.Second),
		WebhookRetryAttempts: getenvInt("WEBHOOK_RETRY_ATTEMPTS", 1),

		GeminiAPIKey:   getenv("GEMINI_API_KEY", ""),
		GeminiEndpoint: getenv("GEMINI_ENDPOINT", defaultGeminiEndpoint),

		WorkerPollInterval: getenvDuration("WORKER_POLL_INTERVAL", 800*time.Millisecond),
		WorkerMaxAttempts:  getenvInt("WORKER_MAX_ATTEMPTS", 3),
	}
}

func getenv(key, defaultValue string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v != "" {
		return v
	}
	return defaultValue
}

func getenvBool(key string, defaultValue bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}

func getenvInt(key string, defaultValue int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return defaultValue
	}
	return n
}

// getenvDuration accepts Go durations ("15s") or a bare number of seconds.
func getenvDuration(key string, defaultValue time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return defaultValue
		}
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
