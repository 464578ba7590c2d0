package state

import (
	"database/sql"
	"sync"
)

// Mock is a test double for Manager.
type Mock struct {
	mu     sync.Mutex
	prefs  Preferences
	err    error
	closed bool
}

var _ Interface = (*Mock)(nil)

// NewMock creates a new mock state manager for testing.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) DB() *sql.DB { return nil }

func (m *Mock) GetPreferences() (Preferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prefs, m.err
}

func (m *Mock) SavePreferences(p Preferences) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs = p
}

func (m *Mock) Shuffle() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prefs.Shuffle, m.err
}

func (m *Mock) SetShuffle(shuffle bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs.Shuffle = shuffle
	return m.err
}

func (m *Mock) SetLastTrack(track string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs.LastTrack = track
	return m.err
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Test helpers

// SetErr makes every getter and setter return err.
func (m *Mock) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
