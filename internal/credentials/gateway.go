package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/llehouerou/spotbridge/internal/engine"
	"github.com/llehouerou/spotbridge/internal/identity"
	"github.com/llehouerou/spotbridge/internal/logging"
)

// ErrAuth is matched by every *AuthError.
var ErrAuth = errors.New("authentication failed")

// AuthError reports a failed identity creation.
type AuthError struct {
	Method string
	Err    error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (%s): %v", e.Method, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrAuth) true for any AuthError.
func (e *AuthError) Is(target error) bool {
	return target == ErrAuth
}

// Gateway creates and destroys identities. It keeps no state of its own.
type Gateway struct {
	auth   engine.Authenticator
	store  Store
	logger logging.KVLogger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the gateway logger.
func WithLogger(l logging.KVLogger) Option {
	return func(g *Gateway) { g.logger = l }
}

// NewGateway creates a Gateway.
func NewGateway(auth engine.Authenticator, store Store, opts ...Option) *Gateway {
	g := &Gateway{auth: auth, store: store, logger: logging.Noop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CreateIdentity exchanges method for an Identity. Every failure is an
// *AuthError.
func (g *Gateway) CreateIdentity(
	ctx context.Context,
	key identity.PersistenceKey,
	method identity.AuthMethod,
) (identity.Identity, error) {
	if method == nil {
		return identity.Identity{}, &AuthError{Method: "none", Err: errors.New("no auth method")}
	}

	creds, err := g.credentials(ctx, key, method)
	if err != nil {
		g.logger.Warn("identity creation failed", "method", method.Name(), "key", key, "err", err)
		return identity.Identity{}, &AuthError{Method: method.Name(), Err: err}
	}
	return identity.New(creds, key), nil
}

func (g *Gateway) credentials(
	ctx context.Context,
	key identity.PersistenceKey,
	method identity.AuthMethod,
) (engine.Credentials, error) {
	switch m := method.(type) {
	case identity.MethodStored:
		if !key.Persist() {
			return engine.Credentials{}, errors.New("no persistence key")
		}
		blob, err := g.store.Load(ctx, key)
		if err != nil {
			return engine.Credentials{}, fmt.Errorf("load stored credentials: %w", err)
		}
		return Decode(blob)
	case identity.MethodPassword:
		return g.auth.Authenticate(ctx, engine.AuthRequest{
			Type:     engine.AuthPassword,
			Username: m.Username,
			Secret:   m.Password,
		})
	case identity.MethodToken:
		return g.auth.Authenticate(ctx, engine.AuthRequest{
			Type:   engine.AuthToken,
			Secret: m.Token,
		})
	case identity.MethodOAuth:
		return g.auth.Authenticate(ctx, engine.AuthRequest{
			Type:        engine.AuthOAuth,
			Secret:      m.Code,
			RedirectURI: m.RedirectURI,
		})
	default:
		return engine.Credentials{}, fmt.Errorf("unsupported auth method %T", method)
	}
}

// Persist stores reusable credentials under the identity key. It is a no-op
// for identities without a key.
func (g *Gateway) Persist(ctx context.Context, id identity.Identity, creds engine.Credentials) error {
	if !id.Key.Persist() {
		return nil
	}
	blob, err := Encode(creds)
	if err != nil {
		return err
	}
	if err := g.store.Save(ctx, id.Key, blob); err != nil {
		return fmt.Errorf("persist credentials %q: %w", id.Key, err)
	}
	g.logger.Debug("credentials persisted", "key", id.Key)
	return nil
}

// DestroyIdentity deletes the blob stored under key. Failures are logged and
// swallowed.
func (g *Gateway) DestroyIdentity(ctx context.Context, key identity.PersistenceKey) {
	if !key.Persist() {
		return
	}
	if err := g.store.Delete(ctx, key); err != nil {
		g.logger.Warn("credential delete failed", "key", key, "err", err)
		return
	}
	g.logger.Debug("credentials deleted", "key", key)
}
