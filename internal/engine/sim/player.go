package sim

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/llehouerou/spotbridge/internal/engine"
)

// Player implements engine.Player with a timer per track.
type Player struct {
	duration time.Duration

	mu        sync.Mutex
	queue     []engine.Event
	ready     chan struct{}
	closed    chan struct{}
	isClosed  bool
	requestID uint64
	track     engine.TrackRef
	playing   bool
	position  time.Duration
	since     time.Time
	shuffle   bool
	timers    []*time.Timer
}

func newPlayer(duration time.Duration) *Player {
	return &Player{
		duration: duration,
		ready:    make(chan struct{}, 1),
		closed:   make(chan struct{}),
	}
}

// emit queues ev. Callers may hold p.mu.
func (p *Player) emit(ev engine.Event) {
	p.queue = append(p.queue, ev)
	select {
	case p.ready <- struct{}{}:
	default:
	}
}

func (p *Player) NextEvent(ctx context.Context) (engine.Event, error) {
	for {
		p.mu.Lock()
		if len(p.queue) > 0 {
			ev := p.queue[0]
			p.queue = p.queue[1:]
			p.mu.Unlock()
			return ev, nil
		}
		closed := p.isClosed
		p.mu.Unlock()
		if closed {
			return nil, engine.ErrEngineClosed
		}

		select {
		case <-p.ready:
		case <-p.closed:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (p *Player) Load(_ context.Context, track engine.TrackRef, startPlaying, shuffle bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isClosed {
		return engine.ErrEngineClosed
	}

	p.stopTimers()
	p.requestID++
	p.track = track
	p.playing = false
	p.position = 0

	p.emit(engine.PlayRequestIDChanged{PlayRequestID: p.requestID})
	p.emit(engine.Loading{PlayRequestID: p.requestID, TrackID: track})
	p.emit(engine.TrackChanged{
		TrackID:  track,
		Duration: p.duration,
		Title:    "Track " + shortID(track),
		Artists:  []string{"Simulated Artist"},
		Album:    "Simulated Album",
	})
	if shuffle != p.shuffle {
		p.shuffle = shuffle
		p.emit(engine.ShuffleChanged{Shuffle: shuffle})
	}
	if startPlaying {
		p.resume()
	} else {
		p.emit(engine.Paused{PlayRequestID: p.requestID, TrackID: track})
	}
	return nil
}

func (p *Player) Preload(_ context.Context, track engine.TrackRef) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isClosed {
		return engine.ErrEngineClosed
	}
	p.emit(engine.Preloading{TrackID: track})
	return nil
}

func (p *Player) Play(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isClosed {
		return engine.ErrEngineClosed
	}
	if p.track == "" || p.playing {
		return nil
	}
	p.resume()
	return nil
}

func (p *Player) Pause(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isClosed {
		return engine.ErrEngineClosed
	}
	if !p.playing {
		return nil
	}
	p.position = p.current()
	p.playing = false
	p.stopTimers()
	p.emit(engine.Paused{PlayRequestID: p.requestID, TrackID: p.track, Position: p.position})
	return nil
}

func (p *Player) Seek(_ context.Context, position time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isClosed {
		return engine.ErrEngineClosed
	}
	if p.track == "" {
		return nil
	}
	p.position = min(max(position, 0), p.duration)
	p.since = time.Now()
	p.emit(engine.Seeked{PlayRequestID: p.requestID, TrackID: p.track, Position: p.position})
	if p.playing {
		p.stopTimers()
		p.schedule()
	}
	return nil
}

func (p *Player) Stop(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isClosed {
		return engine.ErrEngineClosed
	}
	if p.track == "" {
		return nil
	}
	p.stopTimers()
	p.emit(engine.Stopped{PlayRequestID: p.requestID, TrackID: p.track})
	p.track = ""
	p.playing = false
	p.position = 0
	return nil
}

// Close is idempotent.
func (p *Player) Close(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isClosed {
		return nil
	}
	p.isClosed = true
	p.stopTimers()
	close(p.closed)
	return nil
}

// resume starts playing from p.position. Callers hold p.mu.
func (p *Player) resume() {
	p.playing = true
	p.since = time.Now()
	p.emit(engine.Playing{PlayRequestID: p.requestID, TrackID: p.track, Position: p.position})
	p.schedule()
}

func (p *Player) current() time.Duration {
	if !p.playing {
		return p.position
	}
	return min(p.position+time.Since(p.since), p.duration)
}

// schedule arms the preload and end-of-track timers. Callers hold p.mu.
func (p *Player) schedule() {
	remaining := p.duration - p.position
	req, track := p.requestID, p.track

	if remaining > preloadLead {
		p.timers = append(p.timers, time.AfterFunc(remaining-preloadLead, func() {
			p.fire(req, func() {
				p.emit(engine.TimeToPreloadNextTrack{PlayRequestID: req, TrackID: track})
			})
		}))
	}
	p.timers = append(p.timers, time.AfterFunc(remaining, func() {
		p.fire(req, func() {
			p.playing = false
			p.position = p.duration
			p.emit(engine.EndOfTrack{PlayRequestID: req, TrackID: track})
		})
	}))
}

// fire runs fn unless the play request changed since the timer was armed.
func (p *Player) fire(req uint64, fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isClosed || p.requestID != req || p.track == "" {
		return
	}
	fn()
}

func (p *Player) stopTimers() {
	for _, t := range p.timers {
		t.Stop()
	}
	p.timers = nil
}

func shortID(id engine.TrackRef) string {
	s := string(id)
	if len(s) > 6 {
		s = s[:6]
	}
	return strings.ToUpper(s)
}

var _ engine.Player = (*Player)(nil)
