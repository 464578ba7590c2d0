package state

import "database/sql"

// Interface defines the state manager contract for dependency injection and testing.
type Interface interface {
	DB() *sql.DB
	GetPreferences() (Preferences, error)
	SavePreferences(p Preferences)
	Shuffle() (bool, error)
	SetShuffle(shuffle bool) error
	SetLastTrack(track string) error
	Close() error
}

// Verify Manager implements Interface at compile time.
var _ Interface = (*Manager)(nil)
