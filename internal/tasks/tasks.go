// Package tasks runs fire-and-forget background work and lets shutdown wait
// for it.
package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/llehouerou/spotbridge/internal/logging"
)

// DoneFunc observes a finished task.
type DoneFunc func(name string, elapsed time.Duration, err error)

// Tracker runs named background tasks. Task errors are logged and never
// returned to whoever scheduled the task.
type Tracker struct {
	logger logging.KVLogger
	onDone DoneFunc

	mu      sync.Mutex
	group   *errgroup.Group
	pending int
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger used for task failures.
func WithLogger(l logging.KVLogger) Option {
	return func(t *Tracker) { t.logger = l }
}

// WithDoneFunc registers a callback run after each task.
func WithDoneFunc(fn DoneFunc) Option {
	return func(t *Tracker) { t.onDone = fn }
}

// New creates a Tracker.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		logger: logging.Noop(),
		group:  new(errgroup.Group),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Go schedules fn. It returns immediately. The task joins the group under
// t.mu so a concurrent Wait either sees it or leaves it to the next group.
func (t *Tracker) Go(name string, fn func(ctx context.Context) error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending++

	t.group.Go(func() error {
		start := time.Now()
		err := run(fn)

		t.mu.Lock()
		t.pending--
		t.mu.Unlock()

		if err != nil {
			t.logger.Warn("background task failed", "task", name, "err", err)
		} else {
			t.logger.Debug("background task done", "task", name, "elapsed", time.Since(start))
		}
		if t.onDone != nil {
			t.onDone(name, time.Since(start), err)
		}
		return nil
	})
}

// Pending returns the number of tasks still running.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// Wait blocks until every task scheduled before the call finished or ctx is
// done. Tasks scheduled during Wait are tracked by the next Wait.
func (t *Tracker) Wait(ctx context.Context) error {
	t.mu.Lock()
	g := t.group
	t.group = new(errgroup.Group)
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for background tasks: %w", ctx.Err())
	}
}

// run executes fn with a context detached from any caller, converting
// panics into errors.
func run(fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(context.Background())
}
