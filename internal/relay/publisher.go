// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/VaidehiLodhi/alibi-legal-assist/internal/metrics"
)

// Delivery is the outcome of offering one frame to one sink.
type Delivery struct {
	Subscriber SubscriberID
	Err        error
}

// Report lists one Delivery per subscriber registered when Publish ran.
type Report struct {
	Deliveries []Delivery
}

func (r Report) Delivered() int {
	n := 0
	for _, d := range r.Deliveries {
		if d.Err == nil {
			n++
		}
	}
	return n
}

func (r Report) Failed() int {
	return len(r.Deliveries) - r.Delivered()
}

// Publisher broadcasts events to every sink in a Registry.
type Publisher struct {
	registry *Registry
	logger   *slog.Logger

	// mu serializes Publish so each sink sees frames in call order.
	mu sync.Mutex
}

func NewPublisher(registry *Registry, logger *slog.Logger) *Publisher {
	if registry == nil {
		panic("relay.NewPublisher requires a registry")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Publisher{
		registry: registry,
		logger:   logger,
	}
}

// safeSend turns a panicking sink into a failed delivery so the sweep
// reaches every other subscriber.
func safeSend(sink Sink, frame []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("relay: sink panicked: %v", r)
		}
	}()
	return sink.Send(frame)
}

// Publish encodes event once and offers the frame to every registered sink.
// Sink failures are recorded in the report and never returned; the only
// errors are a done context or an unencodable event, and in both cases no
// sink has been written to.
func (p *Publisher) Publish(ctx context.Context, event any) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	frame, err := EncodeEvent(event)
	if err != nil {
		return Report{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var report Report
	p.registry.sweep(func(id SubscriberID, sink Sink) {
		report.Deliveries = append(report.Deliveries, Delivery{
			Subscriber: id,
			Err:        safeSend(sink, frame),
		})
	})

	delivered := report.Delivered()
	failed := len(report.Deliveries) - delivered

	metrics.IncEventsPublished()
	metrics.AddDeliveries(delivered, failed)

	for _, d := range report.Deliveries {
		if d.Err != nil {
			p.logger.Debug("frame not delivered",
				"subscriber_id", d.Subscriber,
				"error", d.Err,
			)
		}
	}

	return report, nil
}
