package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/llehouerou/spotbridge/internal/bridge"
	"github.com/llehouerou/spotbridge/internal/engine"
)

// Fanout publishes every event to each sink in order. A failing sink does not
// prevent delivery to the next one.
type Fanout []bridge.Sink

var _ bridge.Sink = Fanout(nil)

func (f Fanout) Publish(ctx context.Context, ev engine.Event) error {
	var errs []error
	for i, s := range f {
		if err := s.Publish(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
