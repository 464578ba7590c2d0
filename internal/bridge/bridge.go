// Package bridge drains a player's event source and republishes every event,
// in order, to a notification sink.
//
// Lifecycle:
//
//	Running ──Stop()──> StopRequested ──loop exit──> Stopped
//	   │                                               ^
//	   └──────────── engine failure ───────────────────┘
//
// Stop cancels a pending pull. An event that was already pulled is always
// handed to the sink before the loop exits. Once Done is closed no further
// sink call happens.
package bridge

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/llehouerou/spotbridge/internal/engine"
	"github.com/llehouerou/spotbridge/internal/logging"
)

// State is the bridge lifecycle state.
type State int32

const (
	Running State = iota
	StopRequested
	Stopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case StopRequested:
		return "StopRequested"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Source is the pull side: the engine player.
type Source interface {
	NextEvent(ctx context.Context) (engine.Event, error)
}

// Sink receives every event. It is called from the bridge goroutine only and
// must not block indefinitely.
type Sink interface {
	Publish(ctx context.Context, ev engine.Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev engine.Event) error

func (f SinkFunc) Publish(ctx context.Context, ev engine.Event) error {
	return f(ctx, ev)
}

// FailureFunc is invoked once from the bridge goroutine when the source fails
// terminally. It must not block.
type FailureFunc func(err error)

const defaultPublishTimeout = 5 * time.Second

// Bridge is one drain loop. Bridges are never reused across players.
type Bridge struct {
	source         Source
	sink           Sink
	logger         logging.KVLogger
	onFailure      FailureFunc
	publishTimeout time.Duration

	state     atomic.Int32
	cancel    context.CancelFunc
	done      chan struct{}
	delivered atomic.Uint64
	failed    atomic.Bool

	// Owned by the loop goroutine.
	lastRequestID uint64
	lastTrack     engine.TrackRef
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the bridge logger.
func WithLogger(l logging.KVLogger) Option {
	return func(b *Bridge) { b.logger = l }
}

// WithFailureFunc registers the terminal failure callback.
func WithFailureFunc(fn FailureFunc) Option {
	return func(b *Bridge) { b.onFailure = fn }
}

// WithPublishTimeout bounds each sink call.
func WithPublishTimeout(d time.Duration) Option {
	return func(b *Bridge) { b.publishTimeout = d }
}

// Start launches a bridge in its own goroutine.
func Start(source Source, sink Sink, opts ...Option) *Bridge {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bridge{
		source:         source,
		sink:           sink,
		logger:         logging.Noop(),
		publishTimeout: defaultPublishTimeout,
		cancel:         cancel,
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.state.Store(int32(Running))
	go b.run(ctx)
	return b
}

// State returns the current lifecycle state.
func (b *Bridge) State() State {
	return State(b.state.Load())
}

// Delivered returns the number of events handed to the sink.
func (b *Bridge) Delivered() uint64 {
	return b.delivered.Load()
}

// Failed reports whether the bridge stopped because the source failed.
func (b *Bridge) Failed() bool {
	return b.failed.Load()
}

// Done is closed when the bridge reaches Stopped.
func (b *Bridge) Done() <-chan struct{} {
	return b.done
}

// Stop requests the bridge to exit. It does not wait.
func (b *Bridge) Stop() {
	b.state.CompareAndSwap(int32(Running), int32(StopRequested))
	b.cancel()
}

// Wait blocks until Stopped or ctx is done.
func (b *Bridge) Wait(ctx context.Context) error {
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StopAndWait requests a stop and blocks until Stopped. The bound is the
// slowest of the in-flight sink call and the source's cancellation.
func (b *Bridge) StopAndWait() {
	b.Stop()
	<-b.done
}

func (b *Bridge) run(ctx context.Context) {
	defer func() {
		b.state.Store(int32(Stopped))
		b.cancel()
		close(b.done)
	}()

	for ctx.Err() == nil {
		ev, err := b.source.NextEvent(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.fail(err)
			return
		}
		if ev == nil {
			continue
		}
		b.remember(ev)
		b.publish(ctx, ev)
	}
}

func (b *Bridge) remember(ev engine.Event) {
	te, ok := ev.(engine.TrackEvent)
	if !ok {
		return
	}
	b.lastRequestID, b.lastTrack = te.Track()
}

// publish hands ev to the sink. Cancellation of the loop does not abort an
// in-flight delivery.
func (b *Bridge) publish(ctx context.Context, ev engine.Event) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.publishTimeout)
	defer cancel()

	b.delivered.Add(1)
	if err := b.sink.Publish(pctx, ev); err != nil {
		b.logger.Warn("sink publish failed", "type", ev.Type(), "err", err)
	}
}

func (b *Bridge) fail(err error) {
	b.failed.Store(true)
	if !errors.Is(err, engine.ErrEngineClosed) {
		err = errors.Join(engine.ErrEngineClosed, err)
	}
	b.logger.Error("event source failed", "err", err, "last_track", b.lastTrack)

	if b.lastTrack != "" {
		b.publish(context.Background(), engine.Unavailable{
			PlayRequestID: b.lastRequestID,
			TrackID:       b.lastTrack,
		})
	}
	if b.onFailure != nil {
		b.onFailure(err)
	}
}
