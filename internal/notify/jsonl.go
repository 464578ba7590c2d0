package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/llehouerou/spotbridge/internal/bridge"
	"github.com/llehouerou/spotbridge/internal/engine"
)

// JSONLines writes one JSON record per event. Unavailable events are
// followed by a playback_failed record.
type JSONLines struct {
	mu        sync.Mutex
	enc       *json.Encoder
	timestamp bool
	now       func() time.Time
}

var _ bridge.Sink = (*JSONLines)(nil)

// NewJSONLines creates a sink writing to w. With timestamp set, each record
// gets an RFC 3339 "ts" field.
func NewJSONLines(w io.Writer, timestamp bool) *JSONLines {
	return &JSONLines{enc: json.NewEncoder(w), timestamp: timestamp, now: time.Now}
}

func (j *JSONLines) Publish(_ context.Context, ev engine.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.write(Encode(ev)); err != nil {
		return err
	}
	if u, ok := ev.(engine.Unavailable); ok {
		return j.write(Failure(u))
	}
	return nil
}

func (j *JSONLines) write(r Record) error {
	if j.timestamp {
		r["ts"] = j.now().UTC().Format(time.RFC3339Nano)
	}
	if err := j.enc.Encode(r); err != nil {
		return fmt.Errorf("write %v record: %w", r["type"], err)
	}
	return nil
}
