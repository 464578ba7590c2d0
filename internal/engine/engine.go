// Package engine defines the contract of the streaming engine the coordinator
// drives. The engine itself (decoding, network transport, audio output) lives
// behind these interfaces.
package engine

import (
	"context"
	"errors"
	"time"
)

// ErrEngineClosed is returned by a Session or Player whose engine handle has
// been closed or whose connection dropped.
var ErrEngineClosed = errors.New("engine closed")

// AuthType identifies how a credential blob was obtained.
type AuthType string

const (
	AuthPassword AuthType = "password"
	AuthToken    AuthType = "token"
	AuthOAuth    AuthType = "oauth"
	AuthStored   AuthType = "stored"
)

// Credentials is the opaque credential handle handed to Connect.
// The zero value connects anonymously.
type Credentials struct {
	Username string   `json:"username"`
	AuthType AuthType `json:"auth_type"`
	Data     []byte   `json:"data"`
}

// Anonymous reports whether c carries no credential at all.
func (c Credentials) Anonymous() bool {
	return c.Username == "" && len(c.Data) == 0
}

// AuthRequest is a raw login attempt exchanged for Credentials.
type AuthRequest struct {
	Type     AuthType
	Username string
	Secret   string
	// RedirectURI is only set for AuthOAuth.
	RedirectURI string
}

// CacheConfig tells the engine where it may keep audio and metadata caches.
type CacheConfig struct {
	Dir        string
	AudioDir   string
	SizeLimit  int64
	DeviceName string
	DeviceType string
	Locale     string
}

// Authenticator exchanges raw login material for reusable Credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, req AuthRequest) (Credentials, error)
}

// Engine establishes sessions.
type Engine interface {
	Authenticator
	// Connect blocks on network I/O until the session is established.
	Connect(ctx context.Context, creds Credentials, cache CacheConfig) (Session, error)
}

// Session is one engine connection.
type Session interface {
	ID() string
	Username() string
	// StoredCredentials returns reusable credentials the engine obtained while
	// connecting, if any.
	StoredCredentials() (Credentials, bool)
	NewPlayer(ctx context.Context) (Player, error)
	Lyrics(ctx context.Context, track TrackRef) ([]LyricsLine, error)
	// Close is idempotent and safe to call from any goroutine.
	Close(ctx context.Context) error
}

// Player is one engine playback instance.
type Player interface {
	Load(ctx context.Context, track TrackRef, startPlaying, shuffle bool) error
	Preload(ctx context.Context, track TrackRef) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Seek(ctx context.Context, position time.Duration) error
	Stop(ctx context.Context) error
	// NextEvent blocks until the engine emits an event or ctx is done.
	// A closed or failed engine returns an error wrapping ErrEngineClosed.
	NextEvent(ctx context.Context) (Event, error)
	Close(ctx context.Context) error
}

// LyricsLine is one timed line of lyrics.
type LyricsLine struct {
	Start time.Duration `json:"start_ms"`
	Words string        `json:"words"`
}
