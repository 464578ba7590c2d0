package notify

import (
	"time"

	"github.com/llehouerou/spotbridge/internal/engine"
)

// Record is the flat key/value form of an event handed to UI layers.
type Record map[string]any

// TypePlaybackFailed is the record type reported alongside Unavailable.
const TypePlaybackFailed = "playback_failed"

// Encode flattens ev. Positions and durations are milliseconds.
func Encode(ev engine.Event) Record {
	r := Record{"type": string(ev.Type())}
	switch e := ev.(type) {
	case engine.Playing:
		r.track(e.PlayRequestID, e.TrackID).position(e.Position)
	case engine.Paused:
		r.track(e.PlayRequestID, e.TrackID).position(e.Position)
	case engine.Stopped:
		r.track(e.PlayRequestID, e.TrackID)
	case engine.Loading:
		r.track(e.PlayRequestID, e.TrackID).position(e.Position)
	case engine.Preloading:
		r.trackID(e.TrackID)
	case engine.TimeToPreloadNextTrack:
		r.track(e.PlayRequestID, e.TrackID)
	case engine.EndOfTrack:
		r.track(e.PlayRequestID, e.TrackID)
	case engine.Unavailable:
		r.track(e.PlayRequestID, e.TrackID)
	case engine.VolumeChanged:
		r["volume"] = e.Volume
	case engine.PositionCorrection:
		r.track(e.PlayRequestID, e.TrackID).position(e.Position)
	case engine.Seeked:
		r.track(e.PlayRequestID, e.TrackID).position(e.Position)
	case engine.TrackChanged:
		r.trackID(e.TrackID)
		r["duration"] = e.Duration.Milliseconds()
		if e.Title != "" {
			r["title"] = e.Title
		}
		if len(e.Artists) > 0 {
			r["artists"] = e.Artists
		}
		if e.Album != "" {
			r["album"] = e.Album
		}
	case engine.SessionConnected:
		r["connection_id"] = e.ConnectionID
		r["user_name"] = e.UserName
	case engine.SessionDisconnected:
		r["connection_id"] = e.ConnectionID
		r["user_name"] = e.UserName
	case engine.SessionClientChanged:
		r["client_id"] = e.ClientID
		r["client_name"] = e.ClientName
		r["client_brand_name"] = e.ClientBrandName
		r["client_model_name"] = e.ClientModelName
	case engine.ShuffleChanged:
		r["shuffle"] = e.Shuffle
	case engine.RepeatChanged:
		r["context"] = e.Context
		r["track"] = e.Track
	case engine.AutoPlayChanged:
		r["auto_play"] = e.AutoPlay
	case engine.FilterExplicitContentChanged:
		r["filter"] = e.Filter
	case engine.PlayRequestIDChanged:
		r["play_request_id"] = e.PlayRequestID
	}
	return r
}

// Failure returns the playback_failed record for an Unavailable event.
func Failure(e engine.Unavailable) Record {
	r := Record{"type": TypePlaybackFailed, "reason": string(engine.TypeUnavailable)}
	return r.track(e.PlayRequestID, e.TrackID)
}

func (r Record) track(requestID uint64, id engine.TrackRef) Record {
	r["play_request_id"] = requestID
	return r.trackID(id)
}

func (r Record) trackID(id engine.TrackRef) Record {
	r["track_id"] = string(id)
	r["track_uri"] = id.URI()
	return r
}

func (r Record) position(d time.Duration) Record {
	r["position"] = d.Milliseconds()
	return r
}
