// Package sim is an in-process engine that plays silence. Every track lasts
// a fixed duration and emits the events a real player would.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/llehouerou/spotbridge/internal/engine"
)

// DefaultTrackDuration is the length of every simulated track.
const DefaultTrackDuration = 30 * time.Second

// preloadLead is how long before the end TimeToPreloadNextTrack fires.
const preloadLead = 5 * time.Second

var errEmptySecret = errors.New("empty secret")

// Engine implements engine.Engine.
type Engine struct {
	duration time.Duration
	lyrics   []engine.LyricsLine
}

// Option configures an Engine.
type Option func(*Engine)

// WithTrackDuration sets the length of every track.
func WithTrackDuration(d time.Duration) Option {
	return func(e *Engine) { e.duration = d }
}

// WithLyrics sets the lines returned for every track.
func WithLyrics(lines []engine.LyricsLine) Option {
	return func(e *Engine) { e.lyrics = lines }
}

// New creates a simulated engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		duration: DefaultTrackDuration,
		lyrics: []engine.LyricsLine{
			{Start: 0, Words: "(instrumental)"},
			{Start: 10 * time.Second, Words: "la la la"},
			{Start: 20 * time.Second, Words: "(fade out)"},
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Authenticate accepts any non-empty secret.
func (e *Engine) Authenticate(ctx context.Context, req engine.AuthRequest) (engine.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return engine.Credentials{}, err
	}
	if req.Secret == "" {
		return engine.Credentials{}, fmt.Errorf("%s login: %w", req.Type, errEmptySecret)
	}
	username := req.Username
	if username == "" {
		username = "listener"
	}
	return engine.Credentials{Username: username, AuthType: req.Type, Data: []byte(req.Secret)}, nil
}

// Connect opens a session. Anonymous credentials are accepted.
func (e *Engine) Connect(ctx context.Context, creds engine.Credentials, cache engine.CacheConfig) (engine.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !creds.Anonymous() && len(creds.Data) == 0 {
		return nil, fmt.Errorf("connect %s: %w", creds.Username, errEmptySecret)
	}
	return &Session{
		id:       uuid.NewString(),
		creds:    creds,
		device:   cache.DeviceName,
		duration: e.duration,
		lyrics:   e.lyrics,
	}, nil
}

// Session implements engine.Session.
type Session struct {
	id       string
	creds    engine.Credentials
	device   string
	duration time.Duration
	lyrics   []engine.LyricsLine

	mu      sync.Mutex
	closed  bool
	players []*Player
}

func (s *Session) ID() string       { return s.id }
func (s *Session) Username() string { return s.creds.Username }

// StoredCredentials returns a reusable token for authenticated sessions.
func (s *Session) StoredCredentials() (engine.Credentials, bool) {
	if s.creds.Anonymous() {
		return engine.Credentials{}, false
	}
	return engine.Credentials{
		Username: s.creds.Username,
		AuthType: engine.AuthStored,
		Data:     []byte("sim:" + s.id),
	}, true
}

// NewPlayer creates a player whose first event is SessionConnected.
func (s *Session) NewPlayer(_ context.Context) (engine.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, engine.ErrEngineClosed
	}
	p := newPlayer(s.duration)
	p.emit(engine.SessionConnected{ConnectionID: s.id, UserName: s.creds.Username})
	if s.device != "" {
		p.emit(engine.SessionClientChanged{ClientID: s.id, ClientName: s.device})
	}
	s.players = append(s.players, p)
	return p, nil
}

func (s *Session) Lyrics(ctx context.Context, _ engine.TrackRef) ([]engine.LyricsLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, engine.ErrEngineClosed
	}
	return append([]engine.LyricsLine(nil), s.lyrics...), nil
}

// Close closes every player of the session.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	players := s.players
	s.players = nil
	s.mu.Unlock()

	for _, p := range players {
		_ = p.Close(ctx)
	}
	return nil
}

var (
	_ engine.Engine  = (*Engine)(nil)
	_ engine.Session = (*Session)(nil)
)
