//go:build linux

package mpris

import (
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/spotbridge/internal/logging"
)

// Adapter exposes the player to MPRIS over D-Bus.
type Adapter struct {
	server *server.Server
}

// New starts an MPRIS server forwarding commands to controls and answering
// property reads from tracker.
func New(controls Controls, tracker *Tracker, logger logging.KVLogger) (*Adapter, error) {
	a := &Adapter{
		server: server.NewServer("spotbridge", &rootAdapter{}, &playerAdapter{
			cmd:     newCommands(controls, tracker),
			tracker: tracker,
		}),
	}

	go func() {
		if err := a.server.Listen(); err != nil {
			logger.Warn("mpris server stopped", "err", err)
		}
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil // Not supported
}

func (r *rootAdapter) Quit() error {
	return nil // Not supported
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return "Spotbridge", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"spotify"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter and optional interfaces.
type playerAdapter struct {
	cmd     *commands
	tracker *Tracker
}

func (p *playerAdapter) Next() error {
	return nil // No queue
}

func (p *playerAdapter) Previous() error {
	return nil // No queue
}

func (p *playerAdapter) Pause() error {
	return p.cmd.Pause()
}

func (p *playerAdapter) PlayPause() error {
	return p.cmd.PlayPause()
}

func (p *playerAdapter) Stop() error {
	return p.cmd.Stop()
}

func (p *playerAdapter) Play() error {
	return p.cmd.Play()
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	return p.cmd.SeekBy(time.Duration(offset) * time.Microsecond)
}

func (p *playerAdapter) SetPosition(trackID string, position types.Microseconds) error {
	return p.cmd.SetPosition(trackID, time.Duration(position)*time.Microsecond)
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(uri string) error {
	return p.cmd.OpenURI(uri)
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch p.tracker.State() {
	case StatePlaying:
		return types.PlaybackStatusPlaying, nil
	case StatePaused:
		return types.PlaybackStatusPaused, nil
	case StateStopped:
		return types.PlaybackStatusStopped, nil
	}
	return types.PlaybackStatusStopped, nil
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	track, ok := p.tracker.Track()
	if !ok {
		return types.Metadata{}, nil
	}

	meta := types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(track.ID)),
		Length:  types.Microseconds(track.Duration.Microseconds()),
		Title:   track.Title,
		Artist:  track.Artists,
		Album:   track.Album,
	}
	if meta.Title == "" {
		meta.Title = track.ID.URI()
	}
	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return p.tracker.Volume(), nil
}

func (p *playerAdapter) SetVolume(_ float64) error {
	return nil // Volume is owned by the engine
}

func (p *playerAdapter) Position() (int64, error) {
	return p.tracker.Position().Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	_, ok := p.tracker.Track()
	return ok, nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

// LoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) LoopStatus() (types.LoopStatus, error) {
	r := p.tracker.Repeat()
	switch {
	case r.Track:
		return types.LoopStatusTrack, nil
	case r.Context:
		return types.LoopStatusPlaylist, nil
	}
	return types.LoopStatusNone, nil
}

// SetLoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) SetLoopStatus(_ types.LoopStatus) error {
	return nil // Repeat is controlled by the connected client
}

// Shuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle.
func (p *playerAdapter) Shuffle() (bool, error) {
	return p.cmd.Shuffle(), nil
}

// SetShuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle.
func (p *playerAdapter) SetShuffle(shuffle bool) error {
	p.cmd.SetShuffle(shuffle)
	return nil
}
