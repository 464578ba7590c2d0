package mpris

import (
	"context"
	"sync"
	"time"

	"github.com/llehouerou/spotbridge/internal/engine"
)

// State is the playback status reported to media controllers.
type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
)

func (s State) String() string {
	switch s {
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Stopped"
	}
}

// Track is the metadata known about the current track.
type Track struct {
	ID       engine.TrackRef
	Title    string
	Artists  []string
	Album    string
	Duration time.Duration
}

// Repeat mirrors the last RepeatChanged event.
type Repeat struct {
	Context bool
	Track   bool
}

// Tracker follows player events to answer MPRIS property reads. It is a
// bridge sink and never fails.
type Tracker struct {
	mu       sync.RWMutex
	state    State
	track    *Track
	position time.Duration
	at       time.Time
	shuffle  bool
	repeat   Repeat
	volume   uint16
	now      func() time.Time
}

// NewTracker returns a tracker in the stopped state at full volume.
func NewTracker() *Tracker {
	return &Tracker{volume: 0xFFFF, now: time.Now}
}

func (t *Tracker) Publish(_ context.Context, ev engine.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e := ev.(type) {
	case engine.Playing:
		t.setTrack(e.TrackID)
		t.state = StatePlaying
		t.setPosition(e.Position)
	case engine.Paused:
		t.setTrack(e.TrackID)
		t.state = StatePaused
		t.setPosition(e.Position)
	case engine.Loading:
		t.setTrack(e.TrackID)
		t.setPosition(e.Position)
	case engine.Seeked:
		t.setPosition(e.Position)
	case engine.PositionCorrection:
		t.setPosition(e.Position)
	case engine.Stopped, engine.EndOfTrack, engine.Unavailable:
		t.state = StateStopped
		t.setPosition(0)
	case engine.TrackChanged:
		t.track = &Track{
			ID:       e.TrackID,
			Title:    e.Title,
			Artists:  append([]string(nil), e.Artists...),
			Album:    e.Album,
			Duration: e.Duration,
		}
	case engine.ShuffleChanged:
		t.shuffle = e.Shuffle
	case engine.RepeatChanged:
		t.repeat = Repeat{Context: e.Context, Track: e.Track}
	case engine.VolumeChanged:
		t.volume = e.Volume
	}
	return nil
}

// setTrack keeps known metadata when id is the current track.
func (t *Tracker) setTrack(id engine.TrackRef) {
	if id == "" || (t.track != nil && t.track.ID == id) {
		return
	}
	t.track = &Track{ID: id}
}

func (t *Tracker) setPosition(p time.Duration) {
	t.position = p
	t.at = t.now()
}

func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Position extrapolates the last reported position while playing.
func (t *Tracker) Position() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p := t.position
	if t.state == StatePlaying {
		p += t.now().Sub(t.at)
	}
	if t.track != nil && t.track.Duration > 0 && p > t.track.Duration {
		p = t.track.Duration
	}
	return p
}

// Track returns the current track, if any.
func (t *Tracker) Track() (Track, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.track == nil {
		return Track{}, false
	}
	return *t.track, true
}

func (t *Tracker) Shuffle() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.shuffle
}

func (t *Tracker) Repeat() Repeat {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.repeat
}

// Volume returns the volume in [0, 1].
func (t *Tracker) Volume() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return float64(t.volume) / 0xFFFF
}
