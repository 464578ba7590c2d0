// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import (
	"errors"
	"fmt"

	"github.com/llehouerou/spotbridge/internal/credentials"
	"github.com/llehouerou/spotbridge/internal/engine"
	"github.com/llehouerou/spotbridge/internal/lifecycle"
	"github.com/llehouerou/spotbridge/internal/player"
	"github.com/llehouerou/spotbridge/internal/session"
)

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Session operations
	OpLogin   Op = "log in"
	OpLogout  Op = "log out"
	OpConnect Op = "connect"

	// Player operations
	OpPlayerInit Op = "initialize player"
	OpLoad       Op = "load track"
	OpPlay       Op = "resume playback"
	OpPause      Op = "pause playback"
	OpSeek       Op = "seek"
	OpStop       Op = "stop playback"
	OpPreload    Op = "preload track"
	OpLyrics     Op = "fetch lyrics"

	// Initialization
	OpConfig     Op = "load configuration"
	OpInitialize Op = "initialize application"
	OpShutdown   Op = "shut down cleanly"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}

// Hint returns a short suggestion for known errors, or "".
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, lifecycle.ErrLoginInProgress):
		return "another login or logout is running, retry once it finishes"
	case errors.Is(err, credentials.ErrNotFound):
		return "no stored credentials for this key, log in with a token first"
	case errors.Is(err, credentials.ErrAuth):
		return "check the credentials and the network connection"
	case errors.Is(err, player.ErrNotInitialized):
		return "initialize the player before loading a track"
	case errors.Is(err, player.ErrEngineUnavailable):
		return "the engine stopped, reinitialize the player"
	case errors.Is(err, player.ErrGenerationMismatch):
		return "the session changed under the player, reinitialize the player"
	case errors.Is(err, engine.ErrInvalidTrack):
		return "use a spotify:track: URI or a 22 character track id"
	case errors.Is(err, session.ErrNoSession):
		return "log in or start an anonymous session first"
	default:
		return ""
	}
}
