package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	_ Engine  = (*MockEngine)(nil)
	_ Session = (*MockSession)(nil)
	_ Player  = (*MockPlayer)(nil)
)

// MockEngine is a test double for Engine.
type MockEngine struct {
	mu          sync.Mutex
	authErr     error
	connectErr  error
	connectGate chan struct{}
	connects    []Credentials
	sessions    []*MockSession
}

// NewMockEngine creates a mock engine that accepts any non-empty secret.
func NewMockEngine() *MockEngine {
	return &MockEngine{}
}

func (e *MockEngine) Authenticate(_ context.Context, req AuthRequest) (Credentials, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.authErr != nil {
		return Credentials{}, e.authErr
	}
	if req.Secret == "" {
		return Credentials{}, errors.New("empty secret")
	}
	username := req.Username
	if username == "" {
		username = "user"
	}
	return Credentials{Username: username, AuthType: req.Type, Data: []byte(req.Secret)}, nil
}

func (e *MockEngine) Connect(ctx context.Context, creds Credentials, _ CacheConfig) (Session, error) {
	e.mu.Lock()
	gate := e.connectGate
	e.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.connects = append(e.connects, creds)
	if e.connectErr != nil {
		return nil, e.connectErr
	}
	s := NewMockSession(fmt.Sprintf("session-%d", len(e.sessions)+1), creds.Username)
	e.sessions = append(e.sessions, s)
	return s, nil
}

// Test helpers

// SetAuthErr makes subsequent Authenticate calls fail.
func (e *MockEngine) SetAuthErr(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.authErr = err
}

// SetConnectErr makes subsequent Connect calls fail.
func (e *MockEngine) SetConnectErr(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.connectErr = err
}

// BlockConnect holds every Connect call until the returned release func runs.
func (e *MockEngine) BlockConnect() (release func()) {
	gate := make(chan struct{})
	e.mu.Lock()
	e.connectGate = gate
	e.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(gate)
			e.mu.Lock()
			e.connectGate = nil
			e.mu.Unlock()
		})
	}
}

// Connects returns the credentials of every Connect call.
func (e *MockEngine) Connects() []Credentials {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Credentials, len(e.connects))
	copy(out, e.connects)
	return out
}

// Sessions returns every session created so far.
func (e *MockEngine) Sessions() []*MockSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*MockSession, len(e.sessions))
	copy(out, e.sessions)
	return out
}

// LastSession returns the most recent session, or nil.
func (e *MockEngine) LastSession() *MockSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.sessions) == 0 {
		return nil
	}
	return e.sessions[len(e.sessions)-1]
}

// MockSession is a test double for Session.
type MockSession struct {
	mu           sync.Mutex
	id           string
	username     string
	closeCalls   int
	closed       chan struct{}
	players      []*MockPlayer
	newPlayerErr error
	lyrics       map[TrackRef][]LyricsLine
}

// NewMockSession creates a session. An empty username is anonymous.
func NewMockSession(id, username string) *MockSession {
	return &MockSession{
		id:       id,
		username: username,
		closed:   make(chan struct{}),
		lyrics:   make(map[TrackRef][]LyricsLine),
	}
}

func (s *MockSession) ID() string       { return s.id }
func (s *MockSession) Username() string { return s.username }

func (s *MockSession) StoredCredentials() (Credentials, bool) {
	if s.username == "" {
		return Credentials{}, false
	}
	return Credentials{
		Username: s.username,
		AuthType: AuthStored,
		Data:     []byte("stored:" + s.username),
	}, true
}

func (s *MockSession) NewPlayer(_ context.Context) (Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isClosed() {
		return nil, ErrEngineClosed
	}
	if s.newPlayerErr != nil {
		return nil, s.newPlayerErr
	}
	p := NewMockPlayer()
	s.players = append(s.players, p)
	return p, nil
}

func (s *MockSession) Lyrics(_ context.Context, track TrackRef) ([]LyricsLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isClosed() {
		return nil, ErrEngineClosed
	}
	return s.lyrics[track], nil
}

func (s *MockSession) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCalls++
	if !s.isClosed() {
		close(s.closed)
	}
	return nil
}

func (s *MockSession) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// Test helpers

// Done is closed once the session is closed.
func (s *MockSession) Done() <-chan struct{} { return s.closed }

// Closed reports whether Close was called.
func (s *MockSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isClosed()
}

// CloseCalls returns how many times Close was called.
func (s *MockSession) CloseCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCalls
}

// Players returns every player created on this session.
func (s *MockSession) Players() []*MockPlayer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*MockPlayer, len(s.players))
	copy(out, s.players)
	return out
}

// LastPlayer returns the most recent player, or nil.
func (s *MockSession) LastPlayer() *MockPlayer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.players) == 0 {
		return nil
	}
	return s.players[len(s.players)-1]
}

// SetNewPlayerErr makes NewPlayer fail.
func (s *MockSession) SetNewPlayerErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.newPlayerErr = err
}

// SetLyrics sets the lines returned for track.
func (s *MockSession) SetLyrics(track TrackRef, lines []LyricsLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lyrics[track] = lines
}

const mockEventBuffer = 64

// MockPlayer is a test double for Player. Events queued with Emit are
// returned by NextEvent in order.
type MockPlayer struct {
	mu         sync.Mutex
	calls      []string
	cmdErr     error
	closeCalls int
	events     chan Event
	failed     chan struct{}
	failOnce   sync.Once
	closed     chan struct{}
	pulls      chan struct{}
}

// NewMockPlayer creates a mock player.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{
		events: make(chan Event, mockEventBuffer),
		failed: make(chan struct{}),
		closed: make(chan struct{}),
		pulls:  make(chan struct{}, mockEventBuffer),
	}
}

func (p *MockPlayer) Load(_ context.Context, track TrackRef, startPlaying, shuffle bool) error {
	return p.record(fmt.Sprintf("load:%s:%t:%t", track, startPlaying, shuffle))
}

func (p *MockPlayer) Preload(_ context.Context, track TrackRef) error {
	return p.record("preload:" + string(track))
}

func (p *MockPlayer) Play(_ context.Context) error  { return p.record("play") }
func (p *MockPlayer) Pause(_ context.Context) error { return p.record("pause") }
func (p *MockPlayer) Stop(_ context.Context) error  { return p.record("stop") }

func (p *MockPlayer) Seek(_ context.Context, position time.Duration) error {
	return p.record("seek:" + position.String())
}

func (p *MockPlayer) NextEvent(ctx context.Context) (Event, error) {
	select {
	case p.pulls <- struct{}{}:
	default:
	}
	select {
	case ev := <-p.events:
		return ev, nil
	default:
	}
	select {
	case ev := <-p.events:
		return ev, nil
	case <-p.failed:
		return nil, fmt.Errorf("event source: %w", ErrEngineClosed)
	case <-p.closed:
		return nil, ErrEngineClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *MockPlayer) Close(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeCalls++
	select {
	case <-p.closed:
	default:
		close(p.closed)
	}
	return nil
}

func (p *MockPlayer) record(call string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	select {
	case <-p.closed:
		return ErrEngineClosed
	default:
	}
	p.calls = append(p.calls, call)
	return p.cmdErr
}

// Test helpers

// Emit queues an event for NextEvent.
func (p *MockPlayer) Emit(events ...Event) {
	for _, ev := range events {
		p.events <- ev
	}
}

// Fail terminates the event source once queued events are drained.
func (p *MockPlayer) Fail() {
	p.failOnce.Do(func() { close(p.failed) })
}

// Pulls signals each time NextEvent is entered.
func (p *MockPlayer) Pulls() <-chan struct{} { return p.pulls }

// Done is closed once the player is closed.
func (p *MockPlayer) Done() <-chan struct{} { return p.closed }

// SetCommandErr makes every transport command return err.
func (p *MockPlayer) SetCommandErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cmdErr = err
}

// Calls returns the recorded transport commands.
func (p *MockPlayer) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.calls))
	copy(out, p.calls)
	return out
}

// CloseCalls returns how many times Close was called.
func (p *MockPlayer) CloseCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeCalls
}
