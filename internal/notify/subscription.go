package notify

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/llehouerou/spotbridge/internal/bridge"
	"github.com/llehouerou/spotbridge/internal/engine"
)

const defaultBufferSize = 16

// Subscription provides an event channel for a subscriber.
type Subscription struct {
	Events <-chan engine.Event
	Done   <-chan struct{}

	eventsCh chan engine.Event
	doneCh   chan struct{}
	dropped  atomic.Uint64
}

func newSubscription(size int) *Subscription {
	s := &Subscription{
		eventsCh: make(chan engine.Event, size),
		doneCh:   make(chan struct{}),
	}
	s.Events = s.eventsCh
	s.Done = s.doneCh
	return s
}

// Dropped returns how many events were discarded because the buffer was full.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// send delivers ev without blocking.
func (s *Subscription) send(ev engine.Event) {
	select {
	case s.eventsCh <- ev:
	default:
		s.dropped.Add(1)
	}
}

// Hub is a sink that fans events out to channel subscribers. Slow
// subscribers lose events instead of stalling the bridge.
type Hub struct {
	size int

	mu     sync.Mutex
	subs   []*Subscription
	closed bool
}

var _ bridge.Sink = (*Hub)(nil)

// NewHub creates a hub. A size of 0 selects the default buffer.
func NewHub(size int) *Hub {
	if size <= 0 {
		size = defaultBufferSize
	}
	return &Hub{size: size}
}

// Subscribe registers a new subscriber. Subscribing to a closed hub returns
// a subscription whose Done is already closed.
func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := newSubscription(h.size)
	if h.closed {
		close(s.doneCh)
		return s
	}
	h.subs = append(h.subs, s)
	return s
}

// Unsubscribe removes s and closes its Done channel.
func (h *Hub) Unsubscribe(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, sub := range h.subs {
		if sub == s {
			h.subs = append(h.subs[:i], h.subs[i+1:]...)
			close(s.doneCh)
			return
		}
	}
}

func (h *Hub) Publish(_ context.Context, ev engine.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.subs {
		s.send(ev)
	}
	return nil
}

// Close signals every subscriber. It is safe to call more than once.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, s := range h.subs {
		close(s.doneCh)
	}
	h.subs = nil
}
