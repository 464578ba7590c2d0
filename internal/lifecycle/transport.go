package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/llehouerou/spotbridge/internal/engine"
	"github.com/llehouerou/spotbridge/internal/player"
	"github.com/llehouerou/spotbridge/internal/session"
)

// Transport commands go straight to the player controller. They never wait
// for an in-flight swap: during a swap there is no player, so Load fails
// with player.ErrNotInitialized and the others are no-ops.

// Load parses track and starts it. A nil shuffle uses the stored preference;
// an explicit value is stored.
func (c *Coordinator) Load(ctx context.Context, track string, startPlaying bool, shuffle *bool) error {
	ref, err := engine.ParseTrackRef(track)
	if err != nil {
		return err
	}

	sh := c.shuffle(shuffle)
	if err := c.players.Load(ctx, ref, startPlaying, sh); err != nil {
		return err
	}
	if c.prefs != nil {
		if err := c.prefs.SetLastTrack(string(ref)); err != nil {
			c.logger.Warn("saving last track failed", "err", err)
		}
	}
	return nil
}

func (c *Coordinator) shuffle(explicit *bool) bool {
	if explicit != nil {
		if c.prefs != nil {
			if err := c.prefs.SetShuffle(*explicit); err != nil {
				c.logger.Warn("saving shuffle preference failed", "err", err)
			}
		}
		return *explicit
	}
	if c.prefs == nil {
		return false
	}
	sh, err := c.prefs.Shuffle()
	if err != nil {
		c.logger.Warn("reading shuffle preference failed", "err", err)
		return false
	}
	return sh
}

func (c *Coordinator) Play(ctx context.Context) error  { return c.players.Play(ctx) }
func (c *Coordinator) Pause(ctx context.Context) error { return c.players.Pause(ctx) }
func (c *Coordinator) Stop(ctx context.Context) error  { return c.players.Stop(ctx) }

func (c *Coordinator) Seek(ctx context.Context, position time.Duration) error {
	if position < 0 {
		position = 0
	}
	return c.players.Seek(ctx, position)
}

// Preload prepares track as the next one.
func (c *Coordinator) Preload(ctx context.Context, track string) error {
	ref, err := engine.ParseTrackRef(track)
	if err != nil {
		return err
	}
	return c.players.Preload(ctx, ref)
}

// Lyrics fetches timed lyrics for track through the current session.
func (c *Coordinator) Lyrics(ctx context.Context, track string) ([]engine.LyricsLine, error) {
	ref, err := engine.ParseTrackRef(track)
	if err != nil {
		return nil, err
	}
	s := c.sessions.Current()
	if s == nil {
		return nil, session.ErrNoSession
	}
	conn, err := s.Conn()
	if err != nil {
		return nil, err
	}
	lines, err := conn.Lyrics(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("lyrics for %s: %w", ref, err)
	}
	if len(lines) == 0 {
		return nil, ErrNoLyrics
	}
	return lines, nil
}

// Status is a read-only snapshot of the coordinator.
type Status struct {
	Generation    uint64
	SessionID     string
	Username      string
	Authenticated bool
	Player        player.Snapshot
	PendingTasks  int
	Swapping      bool
}

// Status returns the current state without taking the lifecycle lock.
func (c *Coordinator) Status() Status {
	st := Status{
		Generation:   c.sessions.CurrentGeneration(),
		Player:       c.players.Snapshot(),
		PendingTasks: c.tasks.Pending(),
		Swapping:     c.swapping.Load(),
	}
	if s := c.sessions.Current(); s != nil {
		st.SessionID = s.ID()
		st.Username = s.Identity().Username()
		st.Authenticated = s.Authenticated()
	}
	return st
}
