// Package credentials creates, persists and destroys identities on top of a
// pluggable credential store.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/llehouerou/spotbridge/internal/engine"
	"github.com/llehouerou/spotbridge/internal/identity"
)

// ErrNotFound is returned by Store.Load when no blob exists for a key.
var ErrNotFound = errors.New("credentials not found")

// Store persists opaque credential blobs by key. Delete of a missing key is
// not an error.
type Store interface {
	Load(ctx context.Context, key identity.PersistenceKey) ([]byte, error)
	Save(ctx context.Context, key identity.PersistenceKey, blob []byte) error
	Delete(ctx context.Context, key identity.PersistenceKey) error
}

// Encode serializes credentials into a store blob.
func Encode(creds engine.Credentials) ([]byte, error) {
	data, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("encode credentials: %w", err)
	}
	return data, nil
}

// Decode parses a store blob. Blobs without a username or data are corrupt.
func Decode(blob []byte) (engine.Credentials, error) {
	var creds engine.Credentials
	if err := json.Unmarshal(blob, &creds); err != nil {
		return engine.Credentials{}, fmt.Errorf("decode credentials: %w", err)
	}
	if creds.Username == "" || len(creds.Data) == 0 {
		return engine.Credentials{}, errors.New("decode credentials: incomplete blob")
	}
	return creds, nil
}

// MemoryStore keeps blobs in memory.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[identity.PersistenceKey][]byte
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[identity.PersistenceKey][]byte)}
}

func (s *MemoryStore) Load(_ context.Context, key identity.PersistenceKey) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	blob, ok := s.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), blob...), nil
}

func (s *MemoryStore) Save(_ context.Context, key identity.PersistenceKey, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = append([]byte(nil), blob...)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key identity.PersistenceKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

// Has reports whether a blob exists for key.
func (s *MemoryStore) Has(key identity.PersistenceKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[key]
	return ok
}
