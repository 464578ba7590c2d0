package mpris

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/spotbridge/internal/engine"
)

const trackA engine.TrackRef = "6rqhFgbbKwnb9MLmUQDhG6"

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker() (*Tracker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	tr := NewTracker()
	tr.now = clock.now
	return tr, clock
}

func publish(t *testing.T, tr *Tracker, events ...engine.Event) {
	t.Helper()
	for _, ev := range events {
		require.NoError(t, tr.Publish(context.Background(), ev))
	}
}

func TestTracker_StateTransitions(t *testing.T) {
	tr, _ := newTestTracker()
	assert.Equal(t, StateStopped, tr.State())
	_, ok := tr.Track()
	assert.False(t, ok)

	publish(t, tr, engine.Loading{TrackID: trackA})
	assert.Equal(t, StateStopped, tr.State())

	publish(t, tr, engine.Playing{TrackID: trackA, Position: time.Second})
	assert.Equal(t, StatePlaying, tr.State())

	publish(t, tr, engine.Paused{TrackID: trackA, Position: 2 * time.Second})
	assert.Equal(t, StatePaused, tr.State())
	assert.Equal(t, 2*time.Second, tr.Position())

	publish(t, tr, engine.EndOfTrack{TrackID: trackA})
	assert.Equal(t, StateStopped, tr.State())
	assert.Zero(t, tr.Position())

	publish(t, tr, engine.Playing{TrackID: trackA}, engine.Unavailable{TrackID: trackA})
	assert.Equal(t, StateStopped, tr.State())
}

func TestTracker_PositionExtrapolatesWhilePlaying(t *testing.T) {
	tr, clock := newTestTracker()
	publish(t, tr,
		engine.TrackChanged{TrackID: trackA, Duration: 10 * time.Second},
		engine.Playing{TrackID: trackA, Position: time.Second},
	)

	clock.advance(3 * time.Second)
	assert.Equal(t, 4*time.Second, tr.Position())

	publish(t, tr, engine.Seeked{TrackID: trackA, Position: 8 * time.Second})
	clock.advance(5 * time.Second)
	assert.Equal(t, 10*time.Second, tr.Position(), "clamped to the track duration")

	publish(t, tr, engine.Paused{TrackID: trackA, Position: 9 * time.Second})
	clock.advance(time.Minute)
	assert.Equal(t, 9*time.Second, tr.Position())
}

func TestTracker_Metadata(t *testing.T) {
	tr, _ := newTestTracker()
	artists := []string{"A", "B"}
	publish(t, tr, engine.TrackChanged{
		TrackID:  trackA,
		Duration: 3 * time.Minute,
		Title:    "Song",
		Artists:  artists,
		Album:    "LP",
	})
	artists[0] = "mutated"

	track, ok := tr.Track()
	require.True(t, ok)
	assert.Equal(t, Track{ID: trackA, Title: "Song", Artists: []string{"A", "B"}, Album: "LP", Duration: 3 * time.Minute}, track)

	// Playing the same track keeps its metadata; a new track resets it.
	publish(t, tr, engine.Playing{TrackID: trackA})
	track, _ = tr.Track()
	assert.Equal(t, "Song", track.Title)

	publish(t, tr, engine.Playing{TrackID: "4uLU6hMCjMI75M1A2tKUQC"})
	track, _ = tr.Track()
	assert.Equal(t, engine.TrackRef("4uLU6hMCjMI75M1A2tKUQC"), track.ID)
	assert.Empty(t, track.Title)
}

func TestTracker_Settings(t *testing.T) {
	tr, _ := newTestTracker()
	assert.InDelta(t, 1.0, tr.Volume(), 1e-9)

	publish(t, tr,
		engine.VolumeChanged{Volume: 0x7FFF},
		engine.ShuffleChanged{Shuffle: true},
		engine.RepeatChanged{Track: true},
	)
	assert.InDelta(t, 0.5, tr.Volume(), 0.001)
	assert.True(t, tr.Shuffle())
	assert.Equal(t, Repeat{Track: true}, tr.Repeat())
}

type fakeControls struct {
	mu    sync.Mutex
	calls []string
	seeks []time.Duration
	loads []string
	shuf  []*bool
	err   error
}

func (f *fakeControls) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeControls) Load(_ context.Context, track string, _ bool, shuffle *bool) error {
	f.mu.Lock()
	f.loads = append(f.loads, track)
	f.shuf = append(f.shuf, shuffle)
	f.mu.Unlock()
	return f.record("load")
}

func (f *fakeControls) Play(context.Context) error  { return f.record("play") }
func (f *fakeControls) Pause(context.Context) error { return f.record("pause") }
func (f *fakeControls) Stop(context.Context) error  { return f.record("stop") }

func (f *fakeControls) Seek(_ context.Context, p time.Duration) error {
	f.mu.Lock()
	f.seeks = append(f.seeks, p)
	f.mu.Unlock()
	return f.record("seek")
}

func TestCommands_PlayPauseFollowsState(t *testing.T) {
	tr, _ := newTestTracker()
	fc := &fakeControls{}
	cmd := newCommands(fc, tr)

	require.NoError(t, cmd.PlayPause())
	publish(t, tr, engine.Playing{TrackID: trackA})
	require.NoError(t, cmd.PlayPause())
	require.NoError(t, cmd.Stop())

	assert.Equal(t, []string{"play", "pause", "stop"}, fc.calls)
}

func TestCommands_Seek(t *testing.T) {
	tr, _ := newTestTracker()
	fc := &fakeControls{}
	cmd := newCommands(fc, tr)
	publish(t, tr,
		engine.TrackChanged{TrackID: trackA, Duration: time.Minute},
		engine.Paused{TrackID: trackA, Position: 10 * time.Second},
	)

	require.NoError(t, cmd.SeekBy(5*time.Second))
	require.NoError(t, cmd.SeekBy(-time.Minute))

	require.NoError(t, cmd.SetPosition(formatTrackID(trackA), 30*time.Second))
	require.NoError(t, cmd.SetPosition("/org/mpris/MediaPlayer2/Track/other", 20*time.Second))
	require.NoError(t, cmd.SetPosition(formatTrackID(trackA), 2*time.Minute))

	assert.Equal(t, []time.Duration{15 * time.Second, 0, 30 * time.Second}, fc.seeks)
}

func TestCommands_OpenURIUsesShuffle(t *testing.T) {
	tr, _ := newTestTracker()
	fc := &fakeControls{}
	cmd := newCommands(fc, tr)

	require.NoError(t, cmd.OpenURI(trackA.URI()))
	publish(t, tr, engine.ShuffleChanged{Shuffle: true})
	assert.True(t, cmd.Shuffle())

	cmd.SetShuffle(false)
	assert.False(t, cmd.Shuffle())
	require.NoError(t, cmd.OpenURI(trackA.URI()))

	require.Len(t, fc.shuf, 2)
	assert.Nil(t, fc.shuf[0])
	require.NotNil(t, fc.shuf[1])
	assert.False(t, *fc.shuf[1])
	assert.Equal(t, []string{trackA.URI(), trackA.URI()}, fc.loads)
}

func TestCommands_PropagatesErrors(t *testing.T) {
	tr, _ := newTestTracker()
	boom := errors.New("boom")
	cmd := newCommands(&fakeControls{err: boom}, tr)
	require.ErrorIs(t, cmd.Play(), boom)
	require.ErrorIs(t, cmd.OpenURI("x"), boom)
}

func TestFormatTrackID(t *testing.T) {
	a := formatTrackID(trackA)
	assert.Equal(t, a, formatTrackID(trackA))
	assert.NotEqual(t, a, formatTrackID("4uLU6hMCjMI75M1A2tKUQC"))
	assert.Contains(t, a, "/org/mpris/MediaPlayer2/Track/")
}
