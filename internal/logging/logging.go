// Package logging provides the key/value logger used across the module.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"logur.dev/logur"
)

// KVLogger is a structured logger taking alternating key/value pairs.
type KVLogger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
	With(keyvals ...any) KVLogger
}

// NoopKVLogger discards everything.
type NoopKVLogger struct {
	logur.NoopKVLogger
}

func (l NoopKVLogger) With(...any) KVLogger {
	return l
}

// Noop returns a logger that discards everything.
func Noop() KVLogger {
	return NoopKVLogger{}
}

// Prod and Dev are the base zap configurations.
var (
	Prod = zap.NewProductionConfig()
	Dev  = zap.NewDevelopmentConfig()
)

func init() {
	Prod.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
}

// Options configures New.
type Options struct {
	// Level is one of debug, info, warn, error.
	Level string
	// Development selects console output with stack traces on warnings.
	Development bool
	// OutputPaths defaults to stderr.
	OutputPaths []string
}

// New builds a zap backed KVLogger.
func New(opts Options) (KVLogger, error) {
	cfg := Prod
	if opts.Development {
		cfg = Dev
	}
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	if len(opts.OutputPaths) > 0 {
		cfg.OutputPaths = opts.OutputPaths
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return NewKV(l), nil
}

// ParseLevel maps a level name to a zap level. Empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zap.InfoLevel, nil
	case "debug":
		return zap.DebugLevel, nil
	case "warn", "warning":
		return zap.WarnLevel, nil
	case "error":
		return zap.ErrorLevel, nil
	default:
		return zap.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// LogurLevel converts a logur level to the matching zap level.
func LogurLevel(level logur.Level) zapcore.Level {
	switch level {
	case logur.Trace, logur.Debug:
		return zap.DebugLevel
	case logur.Warn:
		return zap.WarnLevel
	case logur.Error:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}
