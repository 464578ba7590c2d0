package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "tilde expands to home",
			input:    "~/cache",
			expected: filepath.Join(home, "cache"),
		},
		{
			name:     "tilde with nested path",
			input:    "~/.cache/spotbridge/audio",
			expected: filepath.Join(home, ".cache", "spotbridge", "audio"),
		},
		{
			name:     "absolute path unchanged",
			input:    "/var/cache/spotbridge",
			expected: "/var/cache/spotbridge",
		},
		{
			name:     "relative path unchanged",
			input:    "cache/audio",
			expected: "cache/audio",
		},
		{
			name:     "empty string unchanged",
			input:    "",
			expected: "",
		},
		{
			name:     "tilde only",
			input:    "~",
			expected: home,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandPath(tt.input)
			if result != tt.expected {
				t.Errorf("expandPath(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestDefaultPaths(t *testing.T) {
	paths := DefaultPaths()
	if len(paths) != 2 {
		t.Fatalf("DefaultPaths() = %v, want 2 entries", paths)
	}
	if paths[1] != "config.toml" {
		t.Errorf("last config path = %q, want %q", paths[1], "config.toml")
	}
	if !strings.HasSuffix(paths[0], filepath.Join("spotbridge", "config.toml")) {
		t.Errorf("first config path = %q, want it under spotbridge/", paths[0])
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Device.Name != "spotbridge" || cfg.Device.Type != "smartphone" || cfg.Device.Locale != "en" {
		t.Errorf("device = %+v, want spotbridge/smartphone/en", cfg.Device)
	}
	if cfg.Credentials.Backend != BackendFile {
		t.Errorf("credentials.backend = %q, want %q", cfg.Credentials.Backend, BackendFile)
	}
	if cfg.DefaultKey() != "default" {
		t.Errorf("DefaultKey() = %q, want %q", cfg.DefaultKey(), "default")
	}
	if cfg.Notify.PublishTimeout != 5*time.Second {
		t.Errorf("notify.publish_timeout = %v, want 5s", cfg.Notify.PublishTimeout)
	}
	if cfg.HasMetrics() {
		t.Error("HasMetrics() = true, want false by default")
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
[device]
name = "kitchen"
type = "speaker"
locale = "fr"

[cache]
dir = "/tmp/sb-cache"
size_limit = "2 GB"

[credentials]
backend = "SQLite"
default_key = "alice"

[log]
level = "debug"

[notify]
desktop = true
timeout = "3s"

[metrics]
addr = "127.0.0.1:9464"

[mpris]
enabled = true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Client().DeviceName != "kitchen" || cfg.Client().DeviceType != "speaker" {
		t.Errorf("Client() = %+v", cfg.Client())
	}
	if cfg.Credentials.Backend != BackendSQLite {
		t.Errorf("backend = %q, want lowercased %q", cfg.Credentials.Backend, BackendSQLite)
	}
	if cfg.Notify.Timeout != 3*time.Second {
		t.Errorf("notify.timeout = %v, want 3s", cfg.Notify.Timeout)
	}
	if !cfg.Notify.Desktop || !cfg.MPRIS.Enabled || !cfg.HasMetrics() {
		t.Errorf("optional surfaces not enabled: %+v %+v %+v", cfg.Notify, cfg.MPRIS, cfg.Metrics)
	}

	ec := cfg.EngineCache()
	if ec.SizeLimit != 2_000_000_000 {
		t.Errorf("EngineCache().SizeLimit = %d, want 2000000000", ec.SizeLimit)
	}
	if ec.Dir != "/tmp/sb-cache" || ec.Locale != "fr" {
		t.Errorf("EngineCache() = %+v", ec)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("Load() of a missing explicit file should fail")
	}
}

func TestLoad_SearchesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[device]\nname = \"desk\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Device.Name != "desk" {
		t.Errorf("device.name = %q, want %q", cfg.Device.Name, "desk")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr []string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "unknown device type",
			mutate:  func(c *Config) { c.Device.Type = "toaster" },
			wantErr: []string{"device.type"},
		},
		{
			name:    "empty device name",
			mutate:  func(c *Config) { c.Device.Name = "" },
			wantErr: []string{"device.name"},
		},
		{
			name:    "bad size limit",
			mutate:  func(c *Config) { c.Cache.SizeLimit = "lots" },
			wantErr: []string{"cache.size_limit"},
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Credentials.Backend = "keyring" },
			wantErr: []string{"credentials.backend"},
		},
		{
			name:    "file backend without dir",
			mutate:  func(c *Config) { c.Credentials.Dir = "" },
			wantErr: []string{"credentials.dir"},
		},
		{
			name:   "memory backend without dir",
			mutate: func(c *Config) { c.Credentials.Backend = BackendMemory; c.Credentials.Dir = "" },
		},
		{
			name: "several errors reported together",
			mutate: func(c *Config) {
				c.Log.Level = "loud"
				c.Notify.Timeout = -time.Second
				c.Credentials.DefaultKey = "a/b"
			},
			wantErr: []string{"log.level", "notify.timeout", "credentials.default_key"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want errors mentioning %v", tt.wantErr)
			}
			for _, want := range tt.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("Validate() error %q does not mention %q", err, want)
				}
			}
		})
	}
}
