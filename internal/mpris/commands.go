package mpris

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/llehouerou/spotbridge/internal/engine"
)

const commandTimeout = 5 * time.Second

// Controls is the playback surface driven by media keys.
// *lifecycle.Coordinator implements it.
type Controls interface {
	Load(ctx context.Context, track string, startPlaying bool, shuffle *bool) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	Seek(ctx context.Context, position time.Duration) error
}

// commands maps MPRIS methods onto Controls using the tracked state.
type commands struct {
	controls Controls
	tracker  *Tracker

	mu      sync.Mutex
	shuffle *bool
}

func newCommands(controls Controls, tracker *Tracker) *commands {
	return &commands{controls: controls, tracker: tracker}
}

func (c *commands) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}

func (c *commands) Play() error {
	ctx, cancel := c.context()
	defer cancel()
	return c.controls.Play(ctx)
}

func (c *commands) Pause() error {
	ctx, cancel := c.context()
	defer cancel()
	return c.controls.Pause(ctx)
}

func (c *commands) PlayPause() error {
	if c.tracker.State() == StatePlaying {
		return c.Pause()
	}
	return c.Play()
}

func (c *commands) Stop() error {
	ctx, cancel := c.context()
	defer cancel()
	return c.controls.Stop(ctx)
}

// SeekBy moves the position by offset, clamped at the track start.
func (c *commands) SeekBy(offset time.Duration) error {
	target := max(c.tracker.Position()+offset, 0)
	ctx, cancel := c.context()
	defer cancel()
	return c.controls.Seek(ctx, target)
}

// SetPosition seeks to position when trackID names the current track.
func (c *commands) SetPosition(trackID string, position time.Duration) error {
	track, ok := c.tracker.Track()
	if !ok || formatTrackID(track.ID) != trackID || position < 0 {
		return nil
	}
	if track.Duration > 0 && position > track.Duration {
		return nil
	}
	ctx, cancel := c.context()
	defer cancel()
	return c.controls.Seek(ctx, position)
}

// OpenURI loads and starts uri with the shuffle mode last set over MPRIS.
func (c *commands) OpenURI(uri string) error {
	c.mu.Lock()
	shuffle := c.shuffle
	c.mu.Unlock()

	ctx, cancel := c.context()
	defer cancel()
	return c.controls.Load(ctx, uri, true, shuffle)
}

// SetShuffle applies to the next OpenURI.
func (c *commands) SetShuffle(shuffle bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shuffle = &shuffle
}

// Shuffle reports the pending MPRIS shuffle mode, falling back to the
// player's.
func (c *commands) Shuffle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shuffle != nil {
		return *c.shuffle
	}
	return c.tracker.Shuffle()
}

func formatTrackID(id engine.TrackRef) string {
	h := fnv.New64a()
	h.Write([]byte(id))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
