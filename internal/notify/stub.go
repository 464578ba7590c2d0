//go:build !linux

package notify

import "context"

// stubNotifier is a no-op notifier for non-Linux platforms.
type stubNotifier struct{}

// New returns a no-op notifier on non-Linux platforms.
func New() (Notifier, error) {
	return &stubNotifier{}, nil
}

func (s *stubNotifier) Notify(context.Context, Notification) (uint32, error) {
	return 0, nil
}

func (s *stubNotifier) Close(context.Context, uint32) error {
	return nil
}
