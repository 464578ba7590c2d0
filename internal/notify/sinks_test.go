package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/spotbridge/internal/bridge"
	"github.com/llehouerou/spotbridge/internal/engine"
)

func TestFanout_DeliversToAllAndJoinsErrors(t *testing.T) {
	var a, b []engine.Event
	boom := errors.New("boom")
	f := Fanout{
		bridge.SinkFunc(func(_ context.Context, ev engine.Event) error {
			a = append(a, ev)
			return boom
		}),
		bridge.SinkFunc(func(_ context.Context, ev engine.Event) error {
			b = append(b, ev)
			return nil
		}),
	}

	err := f.Publish(t.Context(), engine.Paused{})
	require.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "sink 0")
	assert.Len(t, a, 1)
	assert.Len(t, b, 1)

	assert.NoError(t, Fanout(nil).Publish(t.Context(), engine.Paused{}))
}

func TestHub_SubscribeReceivesEvents(t *testing.T) {
	h := NewHub(0)
	sub := h.Subscribe()

	if err := h.Publish(t.Context(), engine.Playing{TrackID: "a"}); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}

	select {
	case ev := <-sub.Events:
		if ev.Type() != engine.TypePlaying {
			t.Errorf("Type() = %v, want Playing", ev.Type())
		}
	default:
		t.Fatal("expected event on subscription")
	}
}

func TestHub_DropsWhenBufferFull(t *testing.T) {
	h := NewHub(2)
	sub := h.Subscribe()

	for range 5 {
		_ = h.Publish(t.Context(), engine.Paused{})
	}

	if got := len(sub.Events); got != 2 {
		t.Errorf("buffered = %d, want 2", got)
	}
	if got := sub.Dropped(); got != 3 {
		t.Errorf("Dropped() = %d, want 3", got)
	}
}

func TestHub_UnsubscribeAndClose(t *testing.T) {
	h := NewHub(0)
	a := h.Subscribe()
	b := h.Subscribe()

	h.Unsubscribe(a)
	select {
	case <-a.Done:
	default:
		t.Fatal("unsubscribed Done should be closed")
	}

	_ = h.Publish(t.Context(), engine.Paused{})
	if len(a.Events) != 0 {
		t.Error("unsubscribed subscription received an event")
	}
	if len(b.Events) != 1 {
		t.Error("remaining subscription missed the event")
	}

	h.Close()
	h.Close()
	select {
	case <-b.Done:
	default:
		t.Fatal("Done should be closed after hub Close")
	}

	late := h.Subscribe()
	select {
	case <-late.Done:
	default:
		t.Fatal("subscription on closed hub should be done")
	}
}

func TestJSONLines(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONLines(&buf, true)
	j.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	require.NoError(t, j.Publish(t.Context(), engine.Seeked{PlayRequestID: 1, TrackID: "abc", Position: time.Second}))
	require.NoError(t, j.Publish(t.Context(), engine.Unavailable{PlayRequestID: 1, TrackID: "abc"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "Seeked", first["type"])
	assert.InDelta(t, 1000, first["position"], 0)
	assert.Equal(t, "2026-01-02T03:04:05Z", first["ts"])

	var failed map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &failed))
	assert.Equal(t, TypePlaybackFailed, failed["type"])
	assert.Equal(t, "Unavailable", failed["reason"])
	assert.Equal(t, "spotify:track:abc", failed["track_uri"])
}

type mockNotifier struct {
	sent   []Notification
	nextID uint32
	err    error
}

func (m *mockNotifier) Notify(_ context.Context, n Notification) (uint32, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.sent = append(m.sent, n)
	if n.ReplacesID != 0 {
		return n.ReplacesID, nil
	}
	m.nextID++
	return m.nextID, nil
}

func (m *mockNotifier) Close(context.Context, uint32) error { return nil }

func TestDesktopSink(t *testing.T) {
	n := &mockNotifier{}
	d := NewDesktopSink(n, 3*time.Second)
	ctx := t.Context()

	require.NoError(t, d.Publish(ctx, engine.Playing{}))
	assert.Empty(t, n.sent, "non track events are ignored")

	require.NoError(t, d.Publish(ctx, engine.TrackChanged{
		TrackID:  "abc",
		Title:    "Song",
		Artists:  []string{"A", "B"},
		Album:    "LP",
		Duration: 225 * time.Second,
	}))
	require.NoError(t, d.Publish(ctx, engine.Unavailable{TrackID: "abc"}))

	require.Len(t, n.sent, 2)
	assert.Equal(t, "Song", n.sent[0].Title)
	assert.Equal(t, "A, B - LP - 3:45", n.sent[0].Body)
	assert.Equal(t, int32(3000), n.sent[0].Timeout)
	assert.Equal(t, uint32(0), n.sent[0].ReplacesID)

	assert.Equal(t, UrgencyLow, n.sent[0].Urgency)
	assert.Equal(t, CategoryTrack, n.sent[0].Category)
	assert.True(t, n.sent[0].Transient)

	assert.Equal(t, "Playback failed", n.sent[1].Title)
	assert.Equal(t, UrgencyCritical, n.sent[1].Urgency)
	assert.Equal(t, CategoryFailure, n.sent[1].Category)
	assert.False(t, n.sent[1].Transient)
	assert.Equal(t, int32(-1), n.sent[1].Timeout)
	assert.Equal(t, uint32(0), n.sent[1].ReplacesID, "a failure must not replace the track notification")
}

func TestDesktopSink_ReplacesPerClass(t *testing.T) {
	n := &mockNotifier{}
	d := NewDesktopSink(n, 0)
	ctx := t.Context()

	require.NoError(t, d.Publish(ctx, engine.TrackChanged{TrackID: "a"}))
	require.NoError(t, d.Publish(ctx, engine.Unavailable{TrackID: "a"}))
	require.NoError(t, d.Publish(ctx, engine.TrackChanged{TrackID: "b"}))
	require.NoError(t, d.Publish(ctx, engine.Unavailable{TrackID: "b"}))

	require.Len(t, n.sent, 4)
	assert.Equal(t, uint32(0), n.sent[0].ReplacesID)
	assert.Equal(t, uint32(0), n.sent[1].ReplacesID)
	assert.Equal(t, uint32(1), n.sent[2].ReplacesID, "track replaces track")
	assert.Equal(t, uint32(2), n.sent[3].ReplacesID, "failure replaces failure")
}

func TestDesktopSink_Error(t *testing.T) {
	n := &mockNotifier{err: errors.New("no bus")}
	d := NewDesktopSink(n, 0)
	require.Error(t, d.Publish(t.Context(), engine.TrackChanged{TrackID: "abc"}))
	assert.Equal(t, int32(-1), d.expire())
}
