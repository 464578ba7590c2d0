// Package identity holds authenticated credential handles and the closed set
// of login options accepted at the API boundary.
package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/llehouerou/spotbridge/internal/engine"
)

// PersistenceKey selects a named credential slot. The empty key means the
// credential is never persisted.
type PersistenceKey string

// NoKey disables persistence.
const NoKey PersistenceKey = ""

// Persist reports whether credentials under k should be stored.
func (k PersistenceKey) Persist() bool {
	return k != NoKey
}

// Identity is an immutable authenticated handle.
type Identity struct {
	Credentials engine.Credentials
	Key         PersistenceKey
	CreatedAt   time.Time
}

// New creates an Identity stamped with the current time.
func New(creds engine.Credentials, key PersistenceKey) Identity {
	return Identity{Credentials: creds, Key: key, CreatedAt: time.Now()}
}

// Anonymous returns an unauthenticated identity that is never persisted.
func Anonymous() Identity {
	return New(engine.Credentials{}, NoKey)
}

// Authenticated reports whether the identity carries credentials.
func (id Identity) Authenticated() bool {
	return !id.Credentials.Anonymous()
}

// Username returns the account name, empty for anonymous identities.
func (id Identity) Username() string {
	return id.Credentials.Username
}

// AuthMethod is one of MethodPassword, MethodToken, MethodOAuth or
// MethodStored.
type AuthMethod interface {
	authMethod()
	Name() string
}

// MethodPassword logs in with a username and password.
type MethodPassword struct {
	Username string
	Password string
}

// MethodToken logs in with an access token.
type MethodToken struct {
	Token string
}

// MethodOAuth completes an OAuth authorization code flow.
type MethodOAuth struct {
	Code        string
	RedirectURI string
}

// MethodStored reuses credentials persisted under the login key.
type MethodStored struct{}

func (MethodPassword) authMethod() {}
func (MethodToken) authMethod()    {}
func (MethodOAuth) authMethod()    {}
func (MethodStored) authMethod()   {}

func (MethodPassword) Name() string { return "password" }
func (MethodToken) Name() string    { return "token" }
func (MethodOAuth) Name() string    { return "oauth" }
func (MethodStored) Name() string   { return "stored" }

// ClientDescriptor describes this device to the service.
type ClientDescriptor struct {
	DeviceName string
	DeviceType string
	Locale     string
}

// DefaultClient is used for fields left empty in LoginOptions.
var DefaultClient = ClientDescriptor{
	DeviceName: "spotbridge",
	DeviceType: "smartphone",
	Locale:     "en",
}

// LoginOptions enumerates everything a login accepts.
type LoginOptions struct {
	Key    PersistenceKey
	Method AuthMethod
	// Client overrides the configured device descriptor. Zero fields keep the
	// configured value.
	Client ClientDescriptor
}

// ErrInvalidOptions is wrapped by every LoginOptions validation error.
var ErrInvalidOptions = errors.New("invalid login options")

var validDeviceTypes = map[string]bool{
	"computer":   true,
	"tablet":     true,
	"smartphone": true,
	"speaker":    true,
	"tv":         true,
	"automobile": true,
}

// ValidDeviceType reports whether t is a device type the service accepts.
func ValidDeviceType(t string) bool { return validDeviceTypes[t] }

// Validate checks the options at the API boundary.
func (o LoginOptions) Validate() error {
	var errs []error
	switch m := o.Method.(type) {
	case nil:
		errs = append(errs, errors.New("auth method is required"))
	case MethodPassword:
		if m.Username == "" {
			errs = append(errs, errors.New("password login requires a username"))
		}
		if m.Password == "" {
			errs = append(errs, errors.New("password login requires a password"))
		}
	case MethodToken:
		if m.Token == "" {
			errs = append(errs, errors.New("token login requires a token"))
		}
	case MethodOAuth:
		if m.Code == "" {
			errs = append(errs, errors.New("oauth login requires an authorization code"))
		}
	case MethodStored:
		if !o.Key.Persist() {
			errs = append(errs, errors.New("stored credentials require a persistence key"))
		}
	}
	if strings.ContainsAny(string(o.Key), `/\`) {
		errs = append(errs, fmt.Errorf("persistence key %q must not contain path separators", o.Key))
	}
	if o.Client.DeviceType != "" && !validDeviceTypes[o.Client.DeviceType] {
		errs = append(errs, fmt.Errorf("unknown device type %q", o.Client.DeviceType))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidOptions, errors.Join(errs...))
}

// Merge returns c with empty fields filled from base.
func (c ClientDescriptor) Merge(base ClientDescriptor) ClientDescriptor {
	if c.DeviceName == "" {
		c.DeviceName = base.DeviceName
	}
	if c.DeviceType == "" {
		c.DeviceType = base.DeviceType
	}
	if c.Locale == "" {
		c.Locale = base.Locale
	}
	return c
}
