package credentials

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/spotbridge/internal/engine"
	"github.com/llehouerou/spotbridge/internal/identity"
)

type failingStore struct {
	*MemoryStore
	deleteErr error
}

func (s failingStore) Delete(context.Context, identity.PersistenceKey) error {
	return s.deleteErr
}

func TestGateway_CreateIdentity(t *testing.T) {
	eng := engine.NewMockEngine()
	g := NewGateway(eng, NewMemoryStore())

	tests := []struct {
		name     string
		method   identity.AuthMethod
		wantUser string
		wantType engine.AuthType
	}{
		{"password", identity.MethodPassword{Username: "alice", Password: "pw"}, "alice", engine.AuthPassword},
		{"token", identity.MethodToken{Token: "tok"}, "user", engine.AuthToken},
		{"oauth", identity.MethodOAuth{Code: "code"}, "user", engine.AuthOAuth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := g.CreateIdentity(t.Context(), "k", tt.method)
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, id.Username())
			assert.Equal(t, tt.wantType, id.Credentials.AuthType)
			assert.Equal(t, identity.PersistenceKey("k"), id.Key)
			assert.True(t, id.Authenticated())
		})
	}
}

func TestGateway_CreateIdentity_AuthFailures(t *testing.T) {
	eng := engine.NewMockEngine()
	store := NewMemoryStore()
	require.NoError(t, store.Save(t.Context(), "corrupt", []byte("{not json")))
	g := NewGateway(eng, store)

	tests := []struct {
		name   string
		key    identity.PersistenceKey
		method identity.AuthMethod
	}{
		{"nil method", "k", nil},
		{"empty token rejected by engine", "k", identity.MethodToken{}},
		{"stored missing", "missing", identity.MethodStored{}},
		{"stored corrupt", "corrupt", identity.MethodStored{}},
		{"stored without key", identity.NoKey, identity.MethodStored{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.CreateIdentity(t.Context(), tt.key, tt.method)
			require.ErrorIs(t, err, ErrAuth)
			var authErr *AuthError
			require.ErrorAs(t, err, &authErr)
		})
	}

	eng.SetAuthErr(errors.New("network down"))
	_, err := g.CreateIdentity(t.Context(), "k", identity.MethodToken{Token: "t"})
	require.ErrorIs(t, err, ErrAuth)
	assert.ErrorContains(t, err, "network down")
}

func TestGateway_StoredRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	g := NewGateway(engine.NewMockEngine(), store)
	ctx := t.Context()

	id := identity.New(engine.Credentials{Username: "alice"}, "k")
	stored := engine.Credentials{Username: "alice", AuthType: engine.AuthStored, Data: []byte("reusable")}
	require.NoError(t, g.Persist(ctx, id, stored))

	got, err := g.CreateIdentity(ctx, "k", identity.MethodStored{})
	require.NoError(t, err)
	assert.Equal(t, stored, got.Credentials)
}

func TestGateway_PersistWithoutKeyIsNoop(t *testing.T) {
	store := NewMemoryStore()
	g := NewGateway(engine.NewMockEngine(), store)

	err := g.Persist(t.Context(), identity.Anonymous(), engine.Credentials{Username: "a", Data: []byte("x")})
	require.NoError(t, err)
	assert.Empty(t, store.blobs)
}

func TestGateway_DestroyIdentity(t *testing.T) {
	store := NewMemoryStore()
	g := NewGateway(engine.NewMockEngine(), store)
	ctx := t.Context()
	require.NoError(t, store.Save(ctx, "k", []byte("v")))

	g.DestroyIdentity(ctx, "k")
	assert.False(t, store.Has("k"))

	// Idempotent.
	g.DestroyIdentity(ctx, "k")
	g.DestroyIdentity(ctx, identity.NoKey)
}

func TestGateway_DestroyIdentitySwallowsErrors(t *testing.T) {
	store := failingStore{MemoryStore: NewMemoryStore(), deleteErr: errors.New("disk on fire")}
	g := NewGateway(engine.NewMockEngine(), store)

	assert.NotPanics(t, func() { g.DestroyIdentity(t.Context(), "k") })
}
