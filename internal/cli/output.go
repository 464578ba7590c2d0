package cli

import (
	"fmt"
	"time"

	"github.com/llehouerou/spotbridge/internal/errmsg"
	"github.com/llehouerou/spotbridge/internal/identity"
)

// cmdError prints as a user facing message and keeps err for errors.Is.
type cmdError struct {
	op  errmsg.Op
	err error
}

func (e *cmdError) Error() string { return errmsg.Format(e.op, e.err) }
func (e *cmdError) Unwrap() error { return e.err }

func fail(op errmsg.Op, err error) error {
	if err == nil {
		return nil
	}
	return &cmdError{op: op, err: err}
}

// persistenceKey returns --key, or the configured default.
func persistenceKey() identity.PersistenceKey {
	if keyFlag != "" {
		return identity.PersistenceKey(keyFlag)
	}
	return cfg.DefaultKey()
}

// formatClock renders d as m:ss.
func formatClock(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
