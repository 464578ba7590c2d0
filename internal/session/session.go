// Package session owns the single current engine connection and its
// generation counter.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/llehouerou/spotbridge/internal/credentials"
	"github.com/llehouerou/spotbridge/internal/engine"
	"github.com/llehouerou/spotbridge/internal/identity"
	"github.com/llehouerou/spotbridge/internal/logging"
)

var (
	// ErrNoSession is returned when no session is current.
	ErrNoSession = errors.New("no session active")
	// ErrSuperseded is returned by a session that has been replaced.
	ErrSuperseded = errors.New("session superseded")
)

// Session is one generation of engine connection.
type Session struct {
	generation uint64
	identity   identity.Identity
	conn       engine.Session
	superseded atomic.Bool
}

func (s *Session) Generation() uint64          { return s.generation }
func (s *Session) Identity() identity.Identity { return s.identity }
func (s *Session) Authenticated() bool         { return s.identity.Authenticated() }
func (s *Session) Superseded() bool            { return s.superseded.Load() }

// ID returns the engine connection id.
func (s *Session) ID() string { return s.conn.ID() }

// Conn returns the engine connection, refusing once superseded.
func (s *Session) Conn() (engine.Session, error) {
	if s.superseded.Load() {
		return nil, fmt.Errorf("generation %d: %w", s.generation, ErrSuperseded)
	}
	return s.conn, nil
}

// Scheduler runs background work. *tasks.Tracker implements it.
type Scheduler interface {
	Go(name string, fn func(ctx context.Context) error)
}

// Manager owns the current Session. Replace calls are serialized.
type Manager struct {
	engine engine.Engine
	cache  engine.CacheConfig
	tasks  Scheduler
	logger logging.KVLogger

	replaceMu sync.Mutex

	mu         sync.RWMutex
	current    *Session
	generation uint64
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager logger.
func WithLogger(l logging.KVLogger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithCache sets the cache configuration passed to every Connect.
func WithCache(c engine.CacheConfig) Option {
	return func(m *Manager) { m.cache = c }
}

// NewManager creates a Manager with no current session.
func NewManager(eng engine.Engine, tasks Scheduler, opts ...Option) *Manager {
	m := &Manager{engine: eng, tasks: tasks, logger: logging.Noop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ReplaceOption adjusts a single Replace call.
type ReplaceOption func(*engine.CacheConfig)

// WithClient overrides the device descriptor for one connection.
func WithClient(c identity.ClientDescriptor) ReplaceOption {
	return func(cfg *engine.CacheConfig) {
		if c.DeviceName != "" {
			cfg.DeviceName = c.DeviceName
		}
		if c.DeviceType != "" {
			cfg.DeviceType = c.DeviceType
		}
		if c.Locale != "" {
			cfg.Locale = c.Locale
		}
	}
}

// Replace connects id and installs it as the current session with the next
// generation. The previous session is closed in the background. On failure
// the previous session stays current.
func (m *Manager) Replace(ctx context.Context, id identity.Identity, opts ...ReplaceOption) (*Session, error) {
	m.replaceMu.Lock()
	defer m.replaceMu.Unlock()

	cache := m.cache
	for _, opt := range opts {
		opt(&cache)
	}

	conn, err := m.engine.Connect(ctx, id.Credentials, cache)
	if err != nil {
		m.logger.Warn("session connect failed", "user", id.Username(), "err", err)
		return nil, &credentials.AuthError{Method: "connect", Err: err}
	}

	m.mu.Lock()
	old := m.current
	m.generation++
	s := &Session{generation: m.generation, identity: id, conn: conn}
	m.current = s
	m.mu.Unlock()

	m.logger.Info("session installed",
		"generation", s.generation,
		"id", conn.ID(),
		"authenticated", s.Authenticated(),
	)
	m.retire(old)
	return s, nil
}

// DestroyAndReplaceWithAnonymous swaps to an unauthenticated session.
func (m *Manager) DestroyAndReplaceWithAnonymous(ctx context.Context) (*Session, error) {
	return m.Replace(ctx, identity.Anonymous())
}

// CurrentGeneration returns the generation of the current session, 0 when
// none was ever installed.
func (m *Manager) CurrentGeneration() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

// Current returns the current session or nil.
func (m *Manager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Close supersedes the current session and closes it in the background.
// The generation counter is kept so stale bindings still mismatch.
func (m *Manager) Close() {
	m.replaceMu.Lock()
	defer m.replaceMu.Unlock()

	m.mu.Lock()
	old := m.current
	m.current = nil
	m.mu.Unlock()

	m.retire(old)
}

func (m *Manager) retire(old *Session) {
	if old == nil {
		return
	}
	old.superseded.Store(true)
	gen := old.generation
	m.tasks.Go(fmt.Sprintf("close session %d", gen), func(ctx context.Context) error {
		if err := old.conn.Close(ctx); err != nil {
			return fmt.Errorf("close session %d: %w", gen, err)
		}
		m.logger.Debug("session closed", "generation", gen)
		return nil
	})
}
