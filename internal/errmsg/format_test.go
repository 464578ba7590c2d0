package errmsg

import (
	"errors"
	"fmt"
	"testing"

	"github.com/llehouerou/spotbridge/internal/credentials"
	"github.com/llehouerou/spotbridge/internal/engine"
	"github.com/llehouerou/spotbridge/internal/lifecycle"
	"github.com/llehouerou/spotbridge/internal/player"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		err      error
		expected string
	}{
		{"nil error returns empty string", OpLogin, nil, ""},
		{"formats error with operation", OpLogin, errors.New("bad token"), "Failed to log in: bad token"},
		{"player operation", OpPlayerInit, errors.New("no session"), "Failed to initialize player: no session"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.op, tt.err); got != tt.expected {
				t.Errorf("Format() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFormatWith(t *testing.T) {
	tests := []struct {
		name     string
		context  string
		err      error
		expected string
	}{
		{"nil error", "x", nil, ""},
		{"empty context falls back", "", errors.New("boom"), "Failed to load track: boom"},
		{"with context", "spotify:track:abc", errors.New("boom"), "Failed to load track 'spotify:track:abc': boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatWith(OpLoad, tt.context, tt.err); got != tt.expected {
				t.Errorf("FormatWith() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestHint(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		empty bool
	}{
		{"nil", nil, true},
		{"unknown", errors.New("whatever"), true},
		{"login in progress", lifecycle.ErrLoginInProgress, false},
		{"wrapped auth", fmt.Errorf("login: %w", &credentials.AuthError{Method: "token", Err: errors.New("x")}), false},
		{"not initialized", player.ErrNotInitialized, false},
		{"invalid track", engine.ErrInvalidTrack, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Hint(tt.err)
			if tt.empty && got != "" {
				t.Errorf("Hint() = %q, want empty", got)
			}
			if !tt.empty && got == "" {
				t.Error("Hint() = empty, want a suggestion")
			}
		})
	}
}

func TestHint_StoredMissingBeforeAuth(t *testing.T) {
	err := &credentials.AuthError{Method: "stored", Err: fmt.Errorf("load: %w", credentials.ErrNotFound)}
	if got := Hint(err); got != "no stored credentials for this key, log in with a token first" {
		t.Errorf("Hint() = %q", got)
	}
}
