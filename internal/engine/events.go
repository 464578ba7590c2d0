package engine

import "time"

// EventType names a playback event variant. Values are stable and are used
// as the "type" field of published records.
type EventType string

const (
	TypePlaying                      EventType = "Playing"
	TypePaused                       EventType = "Paused"
	TypeStopped                      EventType = "Stopped"
	TypeLoading                      EventType = "Loading"
	TypePreloading                   EventType = "Preloading"
	TypeTimeToPreloadNextTrack       EventType = "TimeToPreloadNextTrack"
	TypeEndOfTrack                   EventType = "EndOfTrack"
	TypeUnavailable                  EventType = "Unavailable"
	TypeVolumeChanged                EventType = "VolumeChanged"
	TypePositionCorrection           EventType = "PositionCorrection"
	TypeSeeked                       EventType = "Seeked"
	TypeTrackChanged                 EventType = "TrackChanged"
	TypeSessionConnected             EventType = "SessionConnected"
	TypeSessionDisconnected          EventType = "SessionDisconnected"
	TypeSessionClientChanged         EventType = "SessionClientChanged"
	TypeShuffleChanged               EventType = "ShuffleChanged"
	TypeRepeatChanged                EventType = "RepeatChanged"
	TypeAutoPlayChanged              EventType = "AutoPlayChanged"
	TypeFilterExplicitContentChanged EventType = "FilterExplicitContentChanged"
	TypePlayRequestIDChanged         EventType = "PlayRequestIdChanged"
)

var eventTypes = []EventType{
	TypePlaying,
	TypePaused,
	TypeStopped,
	TypeLoading,
	TypePreloading,
	TypeTimeToPreloadNextTrack,
	TypeEndOfTrack,
	TypeUnavailable,
	TypeVolumeChanged,
	TypePositionCorrection,
	TypeSeeked,
	TypeTrackChanged,
	TypeSessionConnected,
	TypeSessionDisconnected,
	TypeSessionClientChanged,
	TypeShuffleChanged,
	TypeRepeatChanged,
	TypeAutoPlayChanged,
	TypeFilterExplicitContentChanged,
	TypePlayRequestIDChanged,
}

// EventTypes returns every event type in declaration order.
func EventTypes() []EventType {
	out := make([]EventType, len(eventTypes))
	copy(out, eventTypes)
	return out
}

// Event is a playback event emitted by the engine. Events are immutable
// values; each variant carries only the fields relevant to it.
type Event interface {
	Type() EventType
}

// TrackEvent is implemented by variants that refer to a playing track.
type TrackEvent interface {
	Event
	Track() (requestID uint64, track TrackRef)
}

type Playing struct {
	PlayRequestID uint64
	TrackID       TrackRef
	Position      time.Duration
}

type Paused struct {
	PlayRequestID uint64
	TrackID       TrackRef
	Position      time.Duration
}

type Stopped struct {
	PlayRequestID uint64
	TrackID       TrackRef
}

type Loading struct {
	PlayRequestID uint64
	TrackID       TrackRef
	Position      time.Duration
}

type Preloading struct {
	TrackID TrackRef
}

type TimeToPreloadNextTrack struct {
	PlayRequestID uint64
	TrackID       TrackRef
}

type EndOfTrack struct {
	PlayRequestID uint64
	TrackID       TrackRef
}

// Unavailable reports that a track cannot be played.
type Unavailable struct {
	PlayRequestID uint64
	TrackID       TrackRef
}

type VolumeChanged struct {
	Volume uint16
}

type PositionCorrection struct {
	PlayRequestID uint64
	TrackID       TrackRef
	Position      time.Duration
}

type Seeked struct {
	PlayRequestID uint64
	TrackID       TrackRef
	Position      time.Duration
}

// TrackChanged carries metadata for a newly loaded track. Title, Artists and
// Album are optional and only filled by engines that resolve metadata.
type TrackChanged struct {
	TrackID  TrackRef
	Duration time.Duration
	Title    string
	Artists  []string
	Album    string
}

type SessionConnected struct {
	ConnectionID string
	UserName     string
}

type SessionDisconnected struct {
	ConnectionID string
	UserName     string
}

type SessionClientChanged struct {
	ClientID        string
	ClientName      string
	ClientBrandName string
	ClientModelName string
}

type ShuffleChanged struct {
	Shuffle bool
}

type RepeatChanged struct {
	Context bool
	Track   bool
}

type AutoPlayChanged struct {
	AutoPlay bool
}

type FilterExplicitContentChanged struct {
	Filter bool
}

type PlayRequestIDChanged struct {
	PlayRequestID uint64
}

func (Playing) Type() EventType                      { return TypePlaying }
func (Paused) Type() EventType                       { return TypePaused }
func (Stopped) Type() EventType                      { return TypeStopped }
func (Loading) Type() EventType                      { return TypeLoading }
func (Preloading) Type() EventType                   { return TypePreloading }
func (TimeToPreloadNextTrack) Type() EventType       { return TypeTimeToPreloadNextTrack }
func (EndOfTrack) Type() EventType                   { return TypeEndOfTrack }
func (Unavailable) Type() EventType                  { return TypeUnavailable }
func (VolumeChanged) Type() EventType                { return TypeVolumeChanged }
func (PositionCorrection) Type() EventType           { return TypePositionCorrection }
func (Seeked) Type() EventType                       { return TypeSeeked }
func (TrackChanged) Type() EventType                 { return TypeTrackChanged }
func (SessionConnected) Type() EventType             { return TypeSessionConnected }
func (SessionDisconnected) Type() EventType          { return TypeSessionDisconnected }
func (SessionClientChanged) Type() EventType         { return TypeSessionClientChanged }
func (ShuffleChanged) Type() EventType               { return TypeShuffleChanged }
func (RepeatChanged) Type() EventType                { return TypeRepeatChanged }
func (AutoPlayChanged) Type() EventType              { return TypeAutoPlayChanged }
func (FilterExplicitContentChanged) Type() EventType { return TypeFilterExplicitContentChanged }
func (PlayRequestIDChanged) Type() EventType         { return TypePlayRequestIDChanged }

func (e Playing) Track() (uint64, TrackRef)                { return e.PlayRequestID, e.TrackID }
func (e Paused) Track() (uint64, TrackRef)                 { return e.PlayRequestID, e.TrackID }
func (e Stopped) Track() (uint64, TrackRef)                { return e.PlayRequestID, e.TrackID }
func (e Loading) Track() (uint64, TrackRef)                { return e.PlayRequestID, e.TrackID }
func (e TimeToPreloadNextTrack) Track() (uint64, TrackRef) { return e.PlayRequestID, e.TrackID }
func (e EndOfTrack) Track() (uint64, TrackRef)             { return e.PlayRequestID, e.TrackID }
func (e Unavailable) Track() (uint64, TrackRef)            { return e.PlayRequestID, e.TrackID }
func (e PositionCorrection) Track() (uint64, TrackRef)     { return e.PlayRequestID, e.TrackID }
func (e Seeked) Track() (uint64, TrackRef)                 { return e.PlayRequestID, e.TrackID }
