package state

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/spotbridge/internal/credentials"
	"github.com/llehouerou/spotbridge/internal/engine"
	"github.com/llehouerou/spotbridge/internal/identity"
)

func setupTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestInitSchema_Idempotent(t *testing.T) {
	m := setupTestManager(t)
	require.NoError(t, initSchema(m.DB()))

	var version int
	require.NoError(t, m.DB().QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}

func TestPreferences_EmptyDatabase(t *testing.T) {
	m := setupTestManager(t)
	p, err := m.GetPreferences()
	require.NoError(t, err)
	assert.Equal(t, Preferences{}, p)
}

func TestPreferences_DebouncedSaveFlushedOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	m, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, m.SetShuffle(true))
	require.NoError(t, m.SetLastTrack("6rqhFgbbKwnb9MLmUQDhG6"))

	// Pending save is visible before the debounce fires.
	shuffle, err := m.Shuffle()
	require.NoError(t, err)
	assert.True(t, shuffle)
	require.NoError(t, m.Close())

	m, err = Open(path)
	require.NoError(t, err)
	defer m.Close()
	p, err := m.GetPreferences()
	require.NoError(t, err)
	assert.Equal(t, Preferences{Shuffle: true, LastTrack: "6rqhFgbbKwnb9MLmUQDhG6"}, p)
}

func TestCredentialStore_RoundTrip(t *testing.T) {
	m := setupTestManager(t)
	store := m.Credentials()
	ctx := t.Context()

	_, err := store.Load(ctx, "k")
	require.ErrorIs(t, err, credentials.ErrNotFound)

	blob, err := credentials.Encode(engine.Credentials{Username: "alice", AuthType: engine.AuthStored, Data: []byte("x")})
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "k", blob))
	require.NoError(t, store.Save(ctx, "k", blob))

	got, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, blob, got)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, identity.PersistenceKey("k"), keys[0].Key)
	assert.Equal(t, "alice", keys[0].Username)

	p, err := m.GetPreferences()
	require.NoError(t, err)
	assert.Equal(t, "k", p.LastKey)

	require.NoError(t, store.Delete(ctx, "k"))
	require.NoError(t, store.Delete(ctx, "k"), "deleting a missing key is not an error")
	_, err = store.Load(ctx, "k")
	require.ErrorIs(t, err, credentials.ErrNotFound)

	p, err = m.GetPreferences()
	require.NoError(t, err)
	assert.Empty(t, p.LastKey)
}

func TestCredentialStore_SaveUpdatesPendingPreferences(t *testing.T) {
	m := setupTestManager(t)
	require.NoError(t, m.SetShuffle(true))

	require.NoError(t, m.Credentials().Save(t.Context(), "k", []byte("opaque")))

	p, err := m.GetPreferences()
	require.NoError(t, err)
	assert.True(t, p.Shuffle)
	assert.Equal(t, "k", p.LastKey)
}

func TestCredentialStore_WorksWithGateway(t *testing.T) {
	m := setupTestManager(t)
	g := credentials.NewGateway(engine.NewMockEngine(), m.Credentials())
	ctx := t.Context()

	id := identity.New(engine.Credentials{Username: "alice"}, "k")
	stored := engine.Credentials{Username: "alice", AuthType: engine.AuthStored, Data: []byte("reuse")}
	require.NoError(t, g.Persist(ctx, id, stored))

	got, err := g.CreateIdentity(ctx, "k", identity.MethodStored{})
	require.NoError(t, err)
	assert.Equal(t, stored, got.Credentials)

	g.DestroyIdentity(ctx, "k")
	_, err = g.CreateIdentity(ctx, "k", identity.MethodStored{})
	require.ErrorIs(t, err, credentials.ErrAuth)
}

func TestMock(t *testing.T) {
	m := NewMock()
	require.NoError(t, m.SetShuffle(true))
	s, err := m.Shuffle()
	require.NoError(t, err)
	assert.True(t, s)
	require.NoError(t, m.Close())
	assert.True(t, m.Closed())
}
