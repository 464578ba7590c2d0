// Package player owns the single engine player bound to a session generation.
package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/llehouerou/spotbridge/internal/bridge"
	"github.com/llehouerou/spotbridge/internal/engine"
	"github.com/llehouerou/spotbridge/internal/logging"
	"github.com/llehouerou/spotbridge/internal/session"
)

var (
	ErrAlreadyInitialized = errors.New("player already initialized")
	ErrNotInitialized     = errors.New("player not initialized")
	ErrEngineUnavailable  = errors.New("engine unavailable")
	// ErrGenerationMismatch means the session was swapped under a live player.
	ErrGenerationMismatch = errors.New("player bound to a superseded session generation")
)

// Sessions is the view of the session manager the controller needs.
type Sessions interface {
	Current() *session.Session
	CurrentGeneration() uint64
}

// Controller owns at most one player. Init and Deinit are serialized;
// transport commands only take a read lock to find the player.
type Controller struct {
	sessions Sessions
	sink     bridge.Sink
	tasks    session.Scheduler
	logger   logging.KVLogger

	bridgeOpts []bridge.Option
	onFailure  func(generation uint64, err error)

	lifeMu sync.Mutex

	mu      sync.RWMutex
	current *handle
}

type handle struct {
	generation uint64
	sessionID  string
	engine     engine.Player
	bridge     *bridge.Bridge
	createdAt  time.Time
	cause      atomic.Pointer[error]
}

func (h *handle) unavailable() error {
	if p := h.cause.Load(); p != nil {
		return fmt.Errorf("%w: %w", ErrEngineUnavailable, *p)
	}
	return nil
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(l logging.KVLogger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithBridgeOptions adds options to every bridge the controller starts.
func WithBridgeOptions(opts ...bridge.Option) Option {
	return func(c *Controller) { c.bridgeOpts = append(c.bridgeOpts, opts...) }
}

// WithFailureFunc is called from the bridge goroutine when a player's engine
// fails. It must not block.
func WithFailureFunc(fn func(generation uint64, err error)) Option {
	return func(c *Controller) { c.onFailure = fn }
}

// NewController creates a controller publishing player events to sink.
func NewController(sessions Sessions, sink bridge.Sink, tasks session.Scheduler, opts ...Option) *Controller {
	c := &Controller{
		sessions: sessions,
		sink:     sink,
		tasks:    tasks,
		logger:   logging.Noop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Init creates a player on the current session and starts its bridge.
func (c *Controller) Init(ctx context.Context) error {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	c.mu.RLock()
	exists := c.current != nil
	c.mu.RUnlock()
	if exists {
		c.logger.Warn("player init called multiple times")
		return ErrAlreadyInitialized
	}

	s := c.sessions.Current()
	if s == nil {
		return session.ErrNoSession
	}
	conn, err := s.Conn()
	if err != nil {
		return err
	}
	gen := s.Generation()
	if cur := c.sessions.CurrentGeneration(); gen != cur {
		return c.mismatch(gen, cur)
	}

	ep, err := conn.NewPlayer(ctx)
	if err != nil {
		return fmt.Errorf("create player: %w", err)
	}

	h := &handle{generation: gen, sessionID: s.ID(), engine: ep, createdAt: time.Now()}
	log := c.logger.With("generation", gen)
	opts := append([]bridge.Option{
		bridge.WithLogger(log),
		bridge.WithFailureFunc(func(err error) { c.markUnavailable(h, err) }),
	}, c.bridgeOpts...)
	h.bridge = bridge.Start(ep, c.sink, opts...)

	c.mu.Lock()
	c.current = h
	c.mu.Unlock()

	log.Info("player initialized", "session", h.sessionID)
	return nil
}

// Deinit stops the bridge, waits for it to reach Stopped, and schedules the
// engine player close. It is a no-op without a player.
func (c *Controller) Deinit(_ context.Context) {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	c.mu.Lock()
	h := c.current
	c.current = nil
	c.mu.Unlock()
	if h == nil {
		return
	}

	h.bridge.StopAndWait()

	gen := h.generation
	c.tasks.Go(fmt.Sprintf("close player %d", gen), func(ctx context.Context) error {
		if err := h.engine.Close(ctx); err != nil {
			return fmt.Errorf("close player %d: %w", gen, err)
		}
		return nil
	})
	c.logger.Info("player deinitialized",
		"generation", gen,
		"delivered", h.bridge.Delivered(),
		"failed", h.bridge.Failed(),
	)
}

func (c *Controller) markUnavailable(h *handle, err error) {
	h.cause.Store(&err)
	c.logger.Error("player marked unavailable", "generation", h.generation, "err", err)
	if c.onFailure != nil {
		c.onFailure(h.generation, err)
	}
}

// bound returns the player if it may receive a command.
func (c *Controller) bound() (*handle, error) {
	c.mu.RLock()
	h := c.current
	c.mu.RUnlock()
	if h == nil {
		return nil, ErrNotInitialized
	}
	if cur := c.sessions.CurrentGeneration(); h.generation != cur {
		return nil, c.mismatch(h.generation, cur)
	}
	if err := h.unavailable(); err != nil {
		return nil, err
	}
	return h, nil
}

func (c *Controller) mismatch(bound, current uint64) error {
	c.logger.Error("refusing command on stale player binding", "bound", bound, "current", current)
	assertInvariant("player bound to generation %d, current is %d", bound, current)
	return fmt.Errorf("%w: bound %d, current %d", ErrGenerationMismatch, bound, current)
}

// Load starts track on the player. Unlike the other transport commands it
// fails when no player exists.
func (c *Controller) Load(ctx context.Context, track engine.TrackRef, startPlaying, shuffle bool) error {
	h, err := c.bound()
	if err != nil {
		if errors.Is(err, ErrNotInitialized) {
			c.logger.Warn("load without player", "track", track)
		}
		return err
	}
	return h.engine.Load(ctx, track, startPlaying, shuffle)
}

// Play resumes playback. Without a player it is a logged no-op.
func (c *Controller) Play(ctx context.Context) error {
	return c.forward(ctx, "play", func(p engine.Player) error { return p.Play(ctx) })
}

// Pause pauses playback. Without a player it is a logged no-op.
func (c *Controller) Pause(ctx context.Context) error {
	return c.forward(ctx, "pause", func(p engine.Player) error { return p.Pause(ctx) })
}

// Stop stops playback. Without a player it is a logged no-op.
func (c *Controller) Stop(ctx context.Context) error {
	return c.forward(ctx, "stop", func(p engine.Player) error { return p.Stop(ctx) })
}

// Seek moves to position. Without a player it is a logged no-op.
func (c *Controller) Seek(ctx context.Context, position time.Duration) error {
	return c.forward(ctx, "seek", func(p engine.Player) error { return p.Seek(ctx, position) })
}

// Preload prepares the next track. Without a player it is a logged no-op.
func (c *Controller) Preload(ctx context.Context, track engine.TrackRef) error {
	return c.forward(ctx, "preload", func(p engine.Player) error { return p.Preload(ctx, track) })
}

func (c *Controller) forward(_ context.Context, cmd string, fn func(engine.Player) error) error {
	h, err := c.bound()
	if errors.Is(err, ErrNotInitialized) {
		c.logger.Debug("command ignored without player", "cmd", cmd)
		return nil
	}
	if err != nil {
		return err
	}
	if err := fn(h.engine); err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	return nil
}

// Snapshot is a read-only view of the controller.
type Snapshot struct {
	Status     Status
	Generation uint64
	SessionID  string
	Since      time.Time
	Bridge     bridge.State
	Delivered  uint64
}

// Snapshot returns the current player state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	h := c.current
	c.mu.RUnlock()
	if h == nil {
		return Snapshot{Status: Absent}
	}
	st := Active
	if h.unavailable() != nil {
		st = Unavailable
	}
	return Snapshot{
		Status:     st,
		Generation: h.generation,
		SessionID:  h.sessionID,
		Since:      h.createdAt,
		Bridge:     h.bridge.State(),
		Delivered:  h.bridge.Delivered(),
	}
}

// Exists reports whether a player is present, usable or not.
func (c *Controller) Exists() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current != nil
}
