package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/llehouerou/spotbridge/internal/bridge"
	"github.com/llehouerou/spotbridge/internal/engine"
)

// DesktopSink shows a desktop notification on track changes and playback
// failures. Each class replaces its own previous notification, so a failure
// never hides behind the next track. Track notifications are low urgency and
// transient; failures are critical, stay in the history and use the server
// expiry.
type DesktopSink struct {
	notifier Notifier
	timeout  time.Duration

	mu   sync.Mutex
	last map[string]uint32 // category -> notification id
}

var _ bridge.Sink = (*DesktopSink)(nil)

// NewDesktopSink creates a sink. A zero timeout uses the server default.
func NewDesktopSink(n Notifier, timeout time.Duration) *DesktopSink {
	return &DesktopSink{notifier: n, timeout: timeout, last: make(map[string]uint32)}
}

func (d *DesktopSink) Publish(ctx context.Context, ev engine.Event) error {
	var n Notification
	switch e := ev.(type) {
	case engine.TrackChanged:
		n = Notification{
			Title:     trackTitle(e),
			Body:      trackBody(e),
			Timeout:   d.expire(),
			Urgency:   UrgencyLow,
			Category:  CategoryTrack,
			Transient: true,
		}
	case engine.Unavailable:
		n = Notification{
			Title:    "Playback failed",
			Body:     fmt.Sprintf("%s is unavailable", e.TrackID.URI()),
			Timeout:  -1,
			Urgency:  UrgencyCritical,
			Category: CategoryFailure,
		}
	default:
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	n.ReplacesID = d.last[n.Category]
	id, err := d.notifier.Notify(ctx, n)
	if err != nil {
		return err
	}
	d.last[n.Category] = id
	return nil
}

func (d *DesktopSink) expire() int32 {
	if d.timeout <= 0 {
		return -1
	}
	return int32(d.timeout.Milliseconds())
}

func trackTitle(e engine.TrackChanged) string {
	if e.Title != "" {
		return e.Title
	}
	return e.TrackID.URI()
}

func trackBody(e engine.TrackChanged) string {
	var parts []string
	if len(e.Artists) > 0 {
		parts = append(parts, strings.Join(e.Artists, ", "))
	}
	if e.Album != "" {
		parts = append(parts, e.Album)
	}
	if e.Duration > 0 {
		parts = append(parts, formatDuration(e.Duration))
	}
	return strings.Join(parts, " - ")
}

func formatDuration(d time.Duration) string {
	s := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
