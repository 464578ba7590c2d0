package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"logur.dev/logur"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zap.InfoLevel, false},
		{"debug", zap.DebugLevel, false},
		{"WARN", zap.WarnLevel, false},
		{"warning", zap.WarnLevel, false},
		{" error ", zap.ErrorLevel, false},
		{"verbose", zap.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestKVLogger_WritesFieldsAndRespectsLevel(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := NewKV(zap.New(core)).With("component", "test")

	l.Debug("hidden")
	l.Info("shown", "generation", 3)
	l.Error("failed", "err", "boom")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "shown", entries[0].Message)
	assert.Equal(t, map[string]any{"component": "test", "generation": int64(3)}, entries[0].ContextMap())
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
}

func TestKVLogger_LevelEnabled(t *testing.T) {
	core, _ := observer.New(zap.WarnLevel)
	l := NewKV(zap.New(core)).(logur.LevelEnabler)

	assert.False(t, l.LevelEnabled(logur.Info))
	assert.True(t, l.LevelEnabled(logur.Warn))
	assert.True(t, l.LevelEnabled(logur.Error))
}

func TestNoop(t *testing.T) {
	l := Noop().With("k", "v")
	l.Info("nothing")
	assert.IsType(t, NoopKVLogger{}, l)
}
