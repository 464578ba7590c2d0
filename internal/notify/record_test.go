package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/llehouerou/spotbridge/internal/engine"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		ev   engine.Event
		want Record
	}{
		{
			"playing",
			engine.Playing{PlayRequestID: 4, TrackID: "abc", Position: 1500 * time.Millisecond},
			Record{
				"type":            "Playing",
				"play_request_id": uint64(4),
				"track_id":        "abc",
				"track_uri":       "spotify:track:abc",
				"position":        int64(1500),
			},
		},
		{
			"preloading",
			engine.Preloading{TrackID: "abc"},
			Record{"type": "Preloading", "track_id": "abc", "track_uri": "spotify:track:abc"},
		},
		{
			"track changed",
			engine.TrackChanged{TrackID: "abc", Duration: 3 * time.Minute, Title: "Song"},
			Record{
				"type":      "TrackChanged",
				"track_id":  "abc",
				"track_uri": "spotify:track:abc",
				"duration":  int64(180000),
				"title":     "Song",
			},
		},
		{
			"volume",
			engine.VolumeChanged{Volume: 65535},
			Record{"type": "VolumeChanged", "volume": uint16(65535)},
		},
		{
			"client changed",
			engine.SessionClientChanged{ClientID: "id", ClientName: "n", ClientBrandName: "b", ClientModelName: "m"},
			Record{
				"type":              "SessionClientChanged",
				"client_id":         "id",
				"client_name":       "n",
				"client_brand_name": "b",
				"client_model_name": "m",
			},
		},
		{
			"repeat",
			engine.RepeatChanged{Context: true},
			Record{"type": "RepeatChanged", "context": true, "track": false},
		},
		{
			"request id",
			engine.PlayRequestIDChanged{PlayRequestID: 9},
			Record{"type": "PlayRequestIdChanged", "play_request_id": uint64(9)},
		},
		{
			"session connected",
			engine.SessionConnected{ConnectionID: "c", UserName: "u"},
			Record{"type": "SessionConnected", "connection_id": "c", "user_name": "u"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Encode(tt.ev))
		})
	}
}

func TestEncode_EveryTypeHasTypeField(t *testing.T) {
	for _, typ := range engine.EventTypes() {
		assert.NotEmpty(t, typ)
	}
	assert.Equal(t, "Stopped", Encode(engine.Stopped{})["type"])
}

func TestFailure(t *testing.T) {
	got := Failure(engine.Unavailable{PlayRequestID: 2, TrackID: "abc"})
	assert.Equal(t, Record{
		"type":            TypePlaybackFailed,
		"reason":          "Unavailable",
		"play_request_id": uint64(2),
		"track_id":        "abc",
		"track_uri":       "spotify:track:abc",
	}, got)
}
