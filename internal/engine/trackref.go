package engine

import (
	"errors"
	"strings"
)

// ErrInvalidTrack is returned for a track reference that is neither a track
// URI nor a base62 track id.
var ErrInvalidTrack = errors.New("invalid track id")

const (
	trackURIPrefix = "spotify:track:"
	base62IDLength = 22
)

// TrackRef is a base62 track identifier.
type TrackRef string

// ParseTrackRef accepts "spotify:track:<id>" or a bare 22 character base62 id.
func ParseTrackRef(s string) (TrackRef, error) {
	id := strings.TrimPrefix(strings.TrimSpace(s), trackURIPrefix)
	if len(id) != base62IDLength {
		return "", ErrInvalidTrack
	}
	for _, r := range id {
		if !isBase62(r) {
			return "", ErrInvalidTrack
		}
	}
	return TrackRef(id), nil
}

// URI returns the track URI form.
func (t TrackRef) URI() string {
	if t == "" {
		return ""
	}
	return trackURIPrefix + string(t)
}

func isBase62(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
