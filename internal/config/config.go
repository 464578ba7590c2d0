package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/llehouerou/spotbridge/internal/engine"
	"github.com/llehouerou/spotbridge/internal/identity"
	"github.com/llehouerou/spotbridge/internal/logging"
)

const appName = "spotbridge"

// Credential store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	Device      DeviceConfig      `koanf:"device"`
	Cache       CacheConfig       `koanf:"cache"`
	Credentials CredentialsConfig `koanf:"credentials"`
	Log         LogConfig         `koanf:"log"`
	Notify      NotifyConfig      `koanf:"notify"`
	Metrics     MetricsConfig     `koanf:"metrics"`
	MPRIS       MPRISConfig       `koanf:"mpris"`
}

// DeviceConfig describes this client to the service.
type DeviceConfig struct {
	Name   string `koanf:"name"`
	Type   string `koanf:"type"`   // "computer", "smartphone", "speaker", ...
	Locale string `koanf:"locale"` // e.g. "en", "fr"
}

// CacheConfig holds the engine cache location.
type CacheConfig struct {
	Dir       string `koanf:"dir"`
	AudioDir  string `koanf:"audio_dir"`  // empty disables the audio cache
	SizeLimit string `koanf:"size_limit"` // e.g. "2 GB", empty means unlimited
}

// CredentialsConfig selects where reusable credentials live.
type CredentialsConfig struct {
	Backend    string `koanf:"backend"`     // "file", "sqlite" or "memory"
	Dir        string `koanf:"dir"`         // file backend only
	DefaultKey string `koanf:"default_key"` // key used when none is given
}

type LogConfig struct {
	Level       string   `koanf:"level"`
	Development bool     `koanf:"development"`
	Output      []string `koanf:"output"`
}

type NotifyConfig struct {
	Desktop bool          `koanf:"desktop"`
	Timeout time.Duration `koanf:"timeout"`
	// PublishTimeout bounds each event delivery to the sinks.
	PublishTimeout time.Duration `koanf:"publish_timeout"`
}

type MetricsConfig struct {
	Addr string `koanf:"addr"` // e.g. "127.0.0.1:9464", empty disables
}

type MPRISConfig struct {
	Enabled bool `koanf:"enabled"`
}

// Default returns the configuration used when no file sets a value.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Name:   identity.DefaultClient.DeviceName,
			Type:   identity.DefaultClient.DeviceType,
			Locale: identity.DefaultClient.Locale,
		},
		Cache: CacheConfig{
			Dir: filepath.Join(xdg.CacheHome, appName),
		},
		Credentials: CredentialsConfig{
			Backend:    BackendFile,
			Dir:        filepath.Join(xdg.DataHome, appName, "credentials"),
			DefaultKey: "default",
		},
		Log: LogConfig{
			Level:  "info",
			Output: []string{"stderr"},
		},
		Notify: NotifyConfig{
			Timeout:        5 * time.Second,
			PublishTimeout: 5 * time.Second,
		},
	}
}

// Load reads path when set, otherwise every file of DefaultPaths that exists,
// the last one winning.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	} else {
		for _, p := range DefaultPaths() {
			if _, err := os.Stat(p); err == nil {
				if err := k.Load(file.Provider(p), toml.Parser()); err != nil {
					return nil, fmt.Errorf("load %s: %w", p, err)
				}
			}
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.Cache.Dir = expandPath(cfg.Cache.Dir)
	cfg.Cache.AudioDir = expandPath(cfg.Cache.AudioDir)
	cfg.Credentials.Dir = expandPath(cfg.Credentials.Dir)
	cfg.Credentials.Backend = strings.ToLower(cfg.Credentials.Backend)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPaths lists the config files searched by Load, lowest priority first.
func DefaultPaths() []string {
	return []string{
		filepath.Join(xdg.ConfigHome, appName, "config.toml"),
		"config.toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// Validate reports every invalid value at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Device.Name == "" {
		errs = append(errs, errors.New("device.name must not be empty"))
	}
	if !identity.ValidDeviceType(c.Device.Type) {
		errs = append(errs, fmt.Errorf("device.type %q is not a known device type", c.Device.Type))
	}
	if _, err := c.SizeLimit(); err != nil {
		errs = append(errs, err)
	}
	switch c.Credentials.Backend {
	case BackendFile:
		if c.Credentials.Dir == "" {
			errs = append(errs, errors.New("credentials.dir is required for the file backend"))
		}
	case BackendSQLite, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("credentials.backend %q: want file, sqlite or memory", c.Credentials.Backend))
	}
	if strings.ContainsRune(c.Credentials.DefaultKey, filepath.Separator) {
		errs = append(errs, fmt.Errorf("credentials.default_key %q: must not contain a path separator", c.Credentials.DefaultKey))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Notify.Timeout < 0 {
		errs = append(errs, errors.New("notify.timeout must not be negative"))
	}
	if c.Notify.PublishTimeout < 0 {
		errs = append(errs, errors.New("notify.publish_timeout must not be negative"))
	}

	return errors.Join(errs...)
}

// Client returns the device descriptor sent on connect.
func (c *Config) Client() identity.ClientDescriptor {
	return identity.ClientDescriptor{
		DeviceName: c.Device.Name,
		DeviceType: c.Device.Type,
		Locale:     c.Device.Locale,
	}
}

// SizeLimit parses cache.size_limit. Zero means unlimited.
func (c *Config) SizeLimit() (int64, error) {
	if c.Cache.SizeLimit == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(c.Cache.SizeLimit)
	if err != nil {
		return 0, fmt.Errorf("cache.size_limit: %w", err)
	}
	return int64(n), nil
}

// EngineCache returns the cache settings passed to the engine.
func (c *Config) EngineCache() engine.CacheConfig {
	limit, _ := c.SizeLimit()
	return engine.CacheConfig{
		Dir:        c.Cache.Dir,
		AudioDir:   c.Cache.AudioDir,
		SizeLimit:  limit,
		DeviceName: c.Device.Name,
		DeviceType: c.Device.Type,
		Locale:     c.Device.Locale,
	}
}

// DefaultKey returns the configured persistence key.
func (c *Config) DefaultKey() identity.PersistenceKey {
	return identity.PersistenceKey(c.Credentials.DefaultKey)
}

// HasMetrics reports whether the metrics endpoint is enabled.
func (c *Config) HasMetrics() bool {
	return c.Metrics.Addr != ""
}
