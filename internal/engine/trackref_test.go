package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTrackRef(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    TrackRef
		wantErr bool
	}{
		{"bare id", "6rqhFgbbKwnb9MLmUQDhG6", "6rqhFgbbKwnb9MLmUQDhG6", false},
		{"uri", "spotify:track:6rqhFgbbKwnb9MLmUQDhG6", "6rqhFgbbKwnb9MLmUQDhG6", false},
		{"surrounding spaces", "  6rqhFgbbKwnb9MLmUQDhG6 ", "6rqhFgbbKwnb9MLmUQDhG6", false},
		{"empty", "", "", true},
		{"too short", "6rqhFgbb", "", true},
		{"album uri", "spotify:album:6rqhFgbbKwnb9MLmUQDhG6", "", true},
		{"non base62", "6rqhFgbbKwnb9MLmUQDh-6", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTrackRef(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTrack)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTrackRef_URI(t *testing.T) {
	assert.Equal(t, "spotify:track:6rqhFgbbKwnb9MLmUQDhG6", TrackRef("6rqhFgbbKwnb9MLmUQDhG6").URI())
	assert.Empty(t, TrackRef("").URI())
}

func TestEventTypes_CoversEveryVariant(t *testing.T) {
	variants := []Event{
		Playing{}, Paused{}, Stopped{}, Loading{}, Preloading{},
		TimeToPreloadNextTrack{}, EndOfTrack{}, Unavailable{}, VolumeChanged{},
		PositionCorrection{}, Seeked{}, TrackChanged{}, SessionConnected{},
		SessionDisconnected{}, SessionClientChanged{}, ShuffleChanged{},
		RepeatChanged{}, AutoPlayChanged{}, FilterExplicitContentChanged{},
		PlayRequestIDChanged{},
	}

	types := EventTypes()
	require.Len(t, types, len(variants))
	for i, v := range variants {
		assert.Equal(t, types[i], v.Type())
	}

	types[0] = "mutated"
	assert.Equal(t, TypePlaying, EventTypes()[0], "EventTypes must return a copy")
}

func TestMockPlayer_DrainsQueuedEventsBeforeFailure(t *testing.T) {
	p := NewMockPlayer()
	p.Emit(Playing{TrackID: "a"}, Paused{TrackID: "a"})
	p.Fail()

	ev, err := p.NextEvent(t.Context())
	require.NoError(t, err)
	assert.Equal(t, TypePlaying, ev.Type())

	ev, err = p.NextEvent(t.Context())
	require.NoError(t, err)
	assert.Equal(t, TypePaused, ev.Type())

	_, err = p.NextEvent(t.Context())
	require.ErrorIs(t, err, ErrEngineClosed)
}
