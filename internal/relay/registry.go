// SPDX-License-Identifier: Apache-2.0

// Package relay fans workflow events out to live stream connections.
//
// A Registry holds the sinks of currently open connections. A Publisher
// encodes an event once and offers the frame to every registered sink.
// Delivery is best-effort per sink: a failed sink is reported and skipped,
// and its own connection is responsible for unregistering it.
package relay

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/VaidehiLodhi/alibi-legal-assist/internal/metrics"
)

var (
	ErrNilSink      = errors.New("relay: nil sink")
	ErrRegistryFull = errors.New("relay: subscriber limit reached")
)

// SubscriberID is process-unique and strictly increasing in registration order.
type SubscriberID uint64

// Sink accepts encoded frames for one subscriber. Send must not block and
// must not retain or modify frame: the same slice is shared by every sink.
// A panic in Send is recovered by the Publisher and reported as that
// subscriber's delivery error.
type Sink interface {
	Send(frame []byte) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(frame []byte) error

func (f SinkFunc) Send(frame []byte) error { return f(frame) }

type RegistryOption func(*Registry)

// WithMaxSubscribers caps concurrent subscribers. n <= 0 means unbounded.
func WithMaxSubscribers(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.max = n
		}
	}
}

// Registry is the set of live subscribers. Mutations and broadcast sweeps
// are serialized by mu.
type Registry struct {
	mu   sync.RWMutex
	subs map[SubscriberID]Sink
	seq  atomic.Uint64
	max  int
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		subs: make(map[SubscriberID]Sink, 16),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register stores sink under a fresh id. It only fails for a nil sink or
// when a subscriber cap is configured and reached.
func (r *Registry) Register(sink Sink) (SubscriberID, error) {
	if sink == nil {
		return 0, ErrNilSink
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.max > 0 && len(r.subs) >= r.max {
		return 0, ErrRegistryFull
	}

	id := SubscriberID(r.seq.Add(1))
	r.subs[id] = sink
	metrics.SetSubscribers(len(r.subs))
	return id, nil
}

// Unregister removes id. Unknown or already removed ids are a no-op; the
// return value reports whether anything was removed.
func (r *Registry) Unregister(id SubscriberID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subs[id]; !ok {
		return false
	}
	delete(r.subs, id)
	metrics.SetSubscribers(len(r.subs))
	return true
}

// Len returns the current number of subscribers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// sweep calls fn for every sink registered at the time of the call while
// holding the read lock, so no registration changes mid-sweep.
func (r *Registry) sweep(fn func(id SubscriberID, sink Sink)) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, sink := range r.subs {
		fn(id, sink)
	}
}
