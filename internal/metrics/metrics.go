// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"sync"
	"time"

	"github.com/VaidehiLodhi/alibi-legal-assist/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DeliveryOK     = "ok"
	DeliveryFailed = "failed"

	IngestAccepted     = "accepted"
	IngestInvalid      = "invalid"
	IngestForbidden    = "forbidden"
	IngestServerError  = "server_error"
	WebhookOK          = "ok"
	WebhookFailed      = "failed"
	WebhookTargetPDF   = "pdf"
	WebhookTargetEmail = "contact"
)

var (
	initOnce sync.Once

	relaySubscribersGauge      prometheus.Gauge
	relayEventsPublishedTotal  prometheus.Counter
	relayDeliveriesTotal       *prometheus.CounterVec
	ingestRequestsTotal        *prometheus.CounterVec
	webhookCallsTotal          *prometheus.CounterVec
	webhookCallDurationMetric  *prometheus.HistogramVec
	chatMessagesProcessedTotal *prometheus.CounterVec
)

// Init registers metrics on the default Prometheus registry exactly once.
func Init() {
	initOnce.Do(func() {
		relaySubscribersGauge = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "relay_subscribers",
				Help: "Number of currently connected stream subscribers.",
			},
		)

		relayEventsPublishedTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "relay_events_published_total",
				Help: "Total number of workflow events broadcast by the relay.",
			},
		)

		relayDeliveriesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_deliveries_total",
				Help: "Per-subscriber frame deliveries by result.",
			},
			[]string{"result"},
		)

		ingestRequestsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_requests_total",
				Help: "Workflow event submissions by outcome.",
			},
			[]string{"outcome"},
		)

		webhookCallsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_calls_total",
				Help: "Outbound automation webhook calls by target and outcome.",
			},
			[]string{"target", "outcome"},
		)

		webhookCallDurationMetric = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webhook_call_duration_seconds",
				Help:    "Duration of outbound automation webhook calls in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"target"},
		)

		chatMessagesProcessedTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_messages_processed_total",
				Help: "Chat messages processed by the worker by final status.",
			},
			[]string{"status"},
		)

		prometheus.MustRegister(
			relaySubscribersGauge,
			relayEventsPublishedTotal,
			relayDeliveriesTotal,
			ingestRequestsTotal,
			webhookCallsTotal,
			webhookCallDurationMetric,
			chatMessagesProcessedTotal,
		)

		// Ensure counter vectors are visible at /metrics before first increment.
		for _, result := range []string{DeliveryOK, DeliveryFailed} {
			relayDeliveriesTotal.WithLabelValues(result)
		}
		for _, outcome := range []string{IngestAccepted, IngestInvalid, IngestForbidden, IngestServerError} {
			ingestRequestsTotal.WithLabelValues(outcome)
		}
		for _, status := range []domain.MessageStatus{
			domain.MessagePending,
			domain.MessageDone,
			domain.MessageFailed,
		} {
			chatMessagesProcessedTotal.WithLabelValues(string(status))
		}
	})
}

func SetSubscribers(n int) {
	Init()
	relaySubscribersGauge.Set(float64(n))
}

func IncEventsPublished() {
	Init()
	relayEventsPublishedTotal.Inc()
}

func AddDeliveries(ok, failed int) {
	Init()
	relayDeliveriesTotal.WithLabelValues(DeliveryOK).Add(float64(ok))
	relayDeliveriesTotal.WithLabelValues(DeliveryFailed).Add(float64(failed))
}

func IncIngest(outcome string) {
	Init()
	ingestRequestsTotal.WithLabelValues(outcome).Inc()
}

func ObserveWebhookCall(target, outcome string, d time.Duration) {
	Init()
	webhookCallsTotal.WithLabelValues(target, outcome).Inc()
	webhookCallDurationMetric.WithLabelValues(target).Observe(d.Seconds())
}

func IncChatMessage(status string) {
	Init()
	chatMessagesProcessedTotal.WithLabelValues(status).Inc()
}
