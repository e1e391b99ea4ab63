// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"errors"
	"sync"
)

const DefaultSinkBuffer = 64

var (
	ErrSinkClosed = errors.New("relay: sink closed")
	ErrSinkFull   = errors.New("relay: sink buffer full")
)

// ChannelSink buffers frames for a connection goroutine to drain. Send
// never blocks: a full buffer drops the frame and reports ErrSinkFull.
type ChannelSink struct {
	mu     sync.Mutex
	ch     chan []byte
	closed bool
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = DefaultSinkBuffer
	}
	return &ChannelSink{ch: make(chan []byte, buffer)}
}

func (s *ChannelSink) Send(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSinkClosed
	}
	select {
	case s.ch <- frame:
		return nil
	default:
		return ErrSinkFull
	}
}

// Frames is closed once Close has been called and the buffer drained.
func (s *ChannelSink) Frames() <-chan []byte {
	return s.ch
}

// Close is safe to call more than once.
func (s *ChannelSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Subscription is one registered ChannelSink. Close unregisters it and
// closes the sink exactly once, whichever caller gets there first.
type Subscription struct {
	ID       SubscriberID
	sink     *ChannelSink
	registry *Registry
	once     sync.Once
}

// Subscribe registers a new buffered channel sink.
func (r *Registry) Subscribe(buffer int) (*Subscription, error) {
	sink := NewChannelSink(buffer)
	id, err := r.Register(sink)
	if err != nil {
		return nil, err
	}
	return &Subscription{
		ID:       id,
		sink:     sink,
		registry: r,
	}, nil
}

func (s *Subscription) Frames() <-chan []byte {
	return s.sink.Frames()
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.registry.Unregister(s.ID)
		s.sink.Close()
	})
}
