// Package lifecycle serializes login, logout, player init and shutdown
// against the session manager and player controller.
//
// Session swaps always run in this order:
//
//  1. capture whether a player exists
//  2. deinit it (its bridge is Stopped before the swap)
//  3. replace the session
//  4. init a fresh player on the new generation if one existed
//
// Only one swap runs at a time. A second login, logout or player init issued
// while a swap is in flight fails with ErrLoginInProgress.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/llehouerou/spotbridge/internal/bridge"
	"github.com/llehouerou/spotbridge/internal/credentials"
	"github.com/llehouerou/spotbridge/internal/engine"
	"github.com/llehouerou/spotbridge/internal/identity"
	"github.com/llehouerou/spotbridge/internal/logging"
	"github.com/llehouerou/spotbridge/internal/metrics"
	"github.com/llehouerou/spotbridge/internal/notify"
	"github.com/llehouerou/spotbridge/internal/player"
	"github.com/llehouerou/spotbridge/internal/session"
	"github.com/llehouerou/spotbridge/internal/tasks"
)

var (
	ErrLoginInProgress = errors.New("login in progress")
	ErrNoLyrics        = errors.New("no lyrics available")
	ErrShutdown        = errors.New("coordinator is shut down")
)

// Preferences stores playback settings. *state.Manager implements it.
type Preferences interface {
	Shuffle() (bool, error)
	SetShuffle(shuffle bool) error
	SetLastTrack(track string) error
}

// Coordinator is the entry point for every lifecycle and transport command.
type Coordinator struct {
	gateway  *credentials.Gateway
	sessions *session.Manager
	players  *player.Controller
	tasks    *tasks.Tracker

	logger  logging.KVLogger
	metrics *metrics.Metrics
	prefs   Preferences

	mu       sync.Mutex
	swapping atomic.Bool
	closed   bool

	saveMu sync.Mutex
	saves  map[identity.PersistenceKey]*pendingSave
}

// pendingSave is a credential save still running in the background.
type pendingSave struct {
	cancel context.CancelFunc
	done   chan struct{}
}

type options struct {
	logger         logging.KVLogger
	metrics        *metrics.Metrics
	prefs          Preferences
	cache          engine.CacheConfig
	publishTimeout time.Duration
}

// Option configures a Coordinator.
type Option func(*options)

// WithLogger sets the logger shared by every component.
func WithLogger(l logging.KVLogger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records lifecycle and event metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithPreferences enables the stored shuffle preference and last track.
func WithPreferences(p Preferences) Option {
	return func(o *options) { o.prefs = p }
}

// WithCache sets the cache and device configuration used to connect.
func WithCache(c engine.CacheConfig) Option {
	return func(o *options) { o.cache = c }
}

// WithPublishTimeout bounds each sink call made by the event bridge.
func WithPublishTimeout(d time.Duration) Option {
	return func(o *options) { o.publishTimeout = d }
}

// New wires a coordinator around eng. Player events go to sink.
func New(eng engine.Engine, store credentials.Store, sink bridge.Sink, opts ...Option) *Coordinator {
	o := options{logger: logging.Noop()}
	for _, opt := range opts {
		opt(&o)
	}

	taskOpts := []tasks.Option{tasks.WithLogger(o.logger.With("component", "tasks"))}
	playerOpts := []player.Option{player.WithLogger(o.logger.With("component", "player"))}
	if o.metrics != nil {
		m := o.metrics
		taskOpts = append(taskOpts, tasks.WithDoneFunc(m.ObserveTask))
		playerOpts = append(playerOpts, player.WithFailureFunc(func(uint64, error) {
			m.EngineFailures.Inc()
			m.PlayerActive.Set(0)
		}))
		sink = notify.Fanout{sink, m}
	}
	if o.publishTimeout > 0 {
		playerOpts = append(playerOpts, player.WithBridgeOptions(bridge.WithPublishTimeout(o.publishTimeout)))
	}

	tr := tasks.New(taskOpts...)
	sessions := session.NewManager(eng, tr,
		session.WithLogger(o.logger.With("component", "session")),
		session.WithCache(o.cache),
	)
	return &Coordinator{
		gateway:  credentials.NewGateway(eng, store, credentials.WithLogger(o.logger.With("component", "credentials"))),
		sessions: sessions,
		players:  player.NewController(sessions, sink, tr, playerOpts...),
		tasks:    tr,
		logger:   o.logger.With("component", "lifecycle"),
		metrics:  o.metrics,
		prefs:    o.prefs,
		saves:    make(map[identity.PersistenceKey]*pendingSave),
	}
}

// Start opens the first session: stored credentials under key when they
// exist, an anonymous session otherwise.
func (c *Coordinator) Start(ctx context.Context, key identity.PersistenceKey) (*session.Session, error) {
	if key.Persist() {
		s, err := c.Login(ctx, identity.LoginOptions{Key: key, Method: identity.MethodStored{}})
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, credentials.ErrAuth) {
			return nil, err
		}
		c.logger.Info("no usable stored credentials, starting anonymous", "key", key, "err", err)
	}
	return c.exclusive(ctx, "start", func(ctx context.Context) (*session.Session, error) {
		return c.swap(ctx, c.sessions.DestroyAndReplaceWithAnonymous)
	})
}

// Login authenticates opts and swaps to the resulting session. An
// authentication failure leaves the session and player untouched.
func (c *Coordinator) Login(ctx context.Context, opts identity.LoginOptions) (*session.Session, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return c.exclusive(ctx, "login", func(ctx context.Context) (*session.Session, error) {
		id, err := c.gateway.CreateIdentity(ctx, opts.Key, opts.Method)
		if err != nil {
			return nil, err
		}
		s, err := c.swap(ctx, func(ctx context.Context) (*session.Session, error) {
			return c.sessions.Replace(ctx, id, session.WithClient(opts.Client))
		})
		if s != nil {
			c.persist(s)
		}
		return s, err
	})
}

// Logout deletes the persisted credentials of the current session, then
// swaps to an anonymous session. A credential save still pending for the key
// is cancelled and awaited first so the delete is the last write. Credentials
// are deleted even when the swap fails.
func (c *Coordinator) Logout(ctx context.Context) (*session.Session, error) {
	return c.exclusive(ctx, "logout", func(ctx context.Context) (*session.Session, error) {
		if cur := c.sessions.Current(); cur != nil {
			key := cur.Identity().Key
			c.cancelSave(ctx, key)
			c.gateway.DestroyIdentity(ctx, key)
		}
		return c.swap(ctx, c.sessions.DestroyAndReplaceWithAnonymous)
	})
}

// exclusive runs fn as the only in-flight swap.
func (c *Coordinator) exclusive(
	ctx context.Context,
	op string,
	fn func(ctx context.Context) (*session.Session, error),
) (*session.Session, error) {
	if !c.swapping.CompareAndSwap(false, true) {
		return nil, ErrLoginInProgress
	}
	defer c.swapping.Store(false)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrShutdown
	}

	start := time.Now()
	s, err := fn(ctx)
	c.observe(op, start, err)
	if err != nil {
		c.logger.Warn(op+" failed", "err", err, "generation", c.sessions.CurrentGeneration())
	}
	return s, err
}

// swap runs the ordered session swap. Callers hold c.mu.
func (c *Coordinator) swap(
	ctx context.Context,
	replace func(ctx context.Context) (*session.Session, error),
) (*session.Session, error) {
	hadPlayer := c.players.Exists()
	if hadPlayer {
		c.players.Deinit(ctx)
	}

	s, err := replace(ctx)
	if err != nil {
		if hadPlayer {
			// The previous session is still current.
			if ierr := c.players.Init(ctx); ierr != nil {
				c.logger.Error("player restore failed", "err", ierr)
			}
		}
		c.syncPlayerGauge()
		return nil, err
	}

	if c.metrics != nil {
		c.metrics.Generation.Set(float64(s.Generation()))
	}
	if hadPlayer {
		if err := c.players.Init(ctx); err != nil {
			c.syncPlayerGauge()
			return s, fmt.Errorf("reinit player: %w", err)
		}
	}
	c.syncPlayerGauge()
	c.logger.Info("session swapped",
		"generation", s.Generation(),
		"authenticated", s.Authenticated(),
		"player", hadPlayer,
	)
	return s, nil
}

// persist stores reusable credentials of s in the background. Saves for the
// same key run in scheduling order. Callers hold c.mu.
func (c *Coordinator) persist(s *session.Session) {
	id := s.Identity()
	if !id.Key.Persist() {
		return
	}
	conn, err := s.Conn()
	if err != nil {
		return
	}
	creds, ok := conn.StoredCredentials()
	if !ok {
		creds = id.Credentials
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &pendingSave{cancel: cancel, done: make(chan struct{})}
	c.saveMu.Lock()
	prev := c.saves[id.Key]
	c.saves[id.Key] = p
	c.saveMu.Unlock()

	c.tasks.Go("persist credentials", func(context.Context) error {
		defer c.finishSave(id.Key, p)
		if prev != nil {
			<-prev.done
		}
		if ctx.Err() != nil {
			c.logger.Debug("credential save cancelled", "key", id.Key, "generation", s.Generation())
			return nil
		}
		return c.gateway.Persist(ctx, id, creds)
	})
}

func (c *Coordinator) finishSave(key identity.PersistenceKey, p *pendingSave) {
	p.cancel()
	close(p.done)
	c.saveMu.Lock()
	if c.saves[key] == p {
		delete(c.saves, key)
	}
	c.saveMu.Unlock()
}

// cancelSave cancels the pending save for key and waits for it until ctx is
// done. Callers hold c.mu, so no new save for key can be scheduled meanwhile.
func (c *Coordinator) cancelSave(ctx context.Context, key identity.PersistenceKey) {
	c.saveMu.Lock()
	p := c.saves[key]
	c.saveMu.Unlock()
	if p == nil {
		return
	}
	p.cancel()
	select {
	case <-p.done:
	case <-ctx.Done():
		c.logger.Warn("credential save still running at logout", "key", key, "err", ctx.Err())
	}
}

// InitPlayer creates a player on the current session.
func (c *Coordinator) InitPlayer(ctx context.Context) error {
	if c.swapping.Load() {
		return ErrLoginInProgress
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrShutdown
	}

	start := time.Now()
	err := c.players.Init(ctx)
	c.observe("init", start, err)
	c.syncPlayerGauge()
	return err
}

// DeinitPlayer tears the player down. It waits for an in-flight swap and
// always succeeds.
func (c *Coordinator) DeinitPlayer(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	c.players.Deinit(ctx)
	c.observe("deinit", start, nil)
	c.syncPlayerGauge()
}

// Shutdown deinits the player, closes the session and waits for background
// closes until ctx is done.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		c.players.Deinit(ctx)
		c.sessions.Close()
		c.syncPlayerGauge()
	}
	c.mu.Unlock()

	if err := c.tasks.Wait(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	c.logger.Info("shutdown complete")
	return nil
}

func (c *Coordinator) observe(op string, start time.Time, err error) {
	if c.metrics != nil {
		c.metrics.ObserveLifecycle(op, time.Since(start), err)
	}
}

func (c *Coordinator) syncPlayerGauge() {
	if c.metrics == nil {
		return
	}
	if c.players.Snapshot().Status == player.Active {
		c.metrics.PlayerActive.Set(1)
	} else {
		c.metrics.PlayerActive.Set(0)
	}
}
