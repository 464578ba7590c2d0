package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/llehouerou/spotbridge/internal/credentials"
	"github.com/llehouerou/spotbridge/internal/db"
	"github.com/llehouerou/spotbridge/internal/identity"
)

// CredentialStore is a credentials.Store backed by the state database.
type CredentialStore struct {
	m *Manager
}

var _ credentials.Store = (*CredentialStore)(nil)

// Credentials returns the credential store view of the database.
func (m *Manager) Credentials() *CredentialStore {
	return &CredentialStore{m: m}
}

func (s *CredentialStore) Load(ctx context.Context, key identity.PersistenceKey) ([]byte, error) {
	var blob []byte
	err := s.m.db.QueryRowContext(ctx, `
		SELECT blob FROM credentials WHERE key = ?
	`, string(key)).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, credentials.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load credentials %q: %w", key, err)
	}
	return blob, nil
}

// Save upserts the blob and records key as the last used login key.
func (s *CredentialStore) Save(ctx context.Context, key identity.PersistenceKey, blob []byte) error {
	username := ""
	if creds, err := credentials.Decode(blob); err == nil {
		username = creds.Username
	}

	err := db.WithTx(s.m.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO credentials (key, username, blob, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				username = excluded.username,
				blob = excluded.blob,
				updated_at = excluded.updated_at
		`, string(key), username, blob, time.Now().Unix())
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO preferences (id, last_key) VALUES (1, ?)
			ON CONFLICT(id) DO UPDATE SET last_key = excluded.last_key
		`, string(key))
		return err
	})
	if err != nil {
		return fmt.Errorf("save credentials %q: %w", key, err)
	}
	s.m.updatePending(func(p *Preferences) { p.LastKey = string(key) })
	return nil
}

// Delete removes the blob and clears key as last used login key.
func (s *CredentialStore) Delete(ctx context.Context, key identity.PersistenceKey) error {
	err := db.WithTx(s.m.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM credentials WHERE key = ?`, string(key)); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE preferences SET last_key = NULL WHERE id = 1 AND last_key = ?
		`, string(key))
		return err
	})
	if err != nil {
		return fmt.Errorf("delete credentials %q: %w", key, err)
	}
	s.m.updatePending(func(p *Preferences) {
		if p.LastKey == string(key) {
			p.LastKey = ""
		}
	})
	return nil
}

// StoredKey describes one persisted login.
type StoredKey struct {
	Key       identity.PersistenceKey
	Username  string
	UpdatedAt time.Time
}

// Keys lists persisted logins, most recent first.
func (s *CredentialStore) Keys(ctx context.Context) ([]StoredKey, error) {
	rows, err := s.m.db.QueryContext(ctx, `
		SELECT key, username, updated_at FROM credentials ORDER BY updated_at DESC, key ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []StoredKey
	for rows.Next() {
		var (
			k         StoredKey
			key       string
			updatedAt int64
		)
		if err := rows.Scan(&key, &k.Username, &updatedAt); err != nil {
			return nil, err
		}
		k.Key = identity.PersistenceKey(key)
		k.UpdatedAt = time.Unix(updatedAt, 0)
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
