package state

import (
	"database/sql"
	"errors"

	"github.com/llehouerou/spotbridge/internal/db"
)

// Preferences are playback settings kept across runs.
type Preferences struct {
	Shuffle bool
	// LastKey is the persistence key of the last successful login.
	LastKey string
	// LastTrack is the base62 id of the last loaded track.
	LastTrack string
}

func getPreferences(conn *sql.DB) (Preferences, error) {
	var (
		shuffle   bool
		lastKey   sql.NullString
		lastTrack sql.NullString
	)
	err := conn.QueryRow(`
		SELECT shuffle, last_key, last_track FROM preferences WHERE id = 1
	`).Scan(&shuffle, &lastKey, &lastTrack)
	if errors.Is(err, sql.ErrNoRows) {
		return Preferences{}, nil
	}
	if err != nil {
		return Preferences{}, err
	}
	return Preferences{
		Shuffle:   shuffle,
		LastKey:   db.NullStringValue(lastKey),
		LastTrack: db.NullStringValue(lastTrack),
	}, nil
}

func savePreferences(conn *sql.DB, p Preferences) error {
	_, err := conn.Exec(`
		INSERT INTO preferences (id, shuffle, last_key, last_track)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			shuffle = excluded.shuffle,
			last_key = excluded.last_key,
			last_track = excluded.last_track
	`, p.Shuffle, db.NullString(p.LastKey), db.NullString(p.LastTrack))
	return err
}

// Shuffle returns the stored shuffle preference.
func (m *Manager) Shuffle() (bool, error) {
	p, err := m.GetPreferences()
	if err != nil {
		return false, err
	}
	return p.Shuffle, nil
}

// SetShuffle updates the shuffle preference.
func (m *Manager) SetShuffle(shuffle bool) error {
	p, err := m.GetPreferences()
	if err != nil {
		return err
	}
	p.Shuffle = shuffle
	m.SavePreferences(p)
	return nil
}

// SetLastTrack records the last loaded track.
func (m *Manager) SetLastTrack(track string) error {
	p, err := m.GetPreferences()
	if err != nil {
		return err
	}
	p.LastTrack = track
	m.SavePreferences(p)
	return nil
}
