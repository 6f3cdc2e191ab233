package cliconfig

import (
	"testing"
	"time"

	"github.com/bft-labs/scriptd/pkg/settings"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.ScriptDir = "/tmp/scripts"
	cfg.Identity = "com.acme.Fisher"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.SettingsBackend != BackendFile {
		t.Errorf("SettingsBackend = %v, want %v", cfg.SettingsBackend, BackendFile)
	}
	if cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("ListenAddr = %v, want %v", cfg.ListenAddr, DefaultListenAddr)
	}
	if cfg.StorageRoot != settings.DefaultRoot() {
		t.Errorf("StorageRoot = %v, want %v", cfg.StorageRoot, settings.DefaultRoot())
	}
	if cfg.Version != 1.0 {
		t.Errorf("Version = %v, want 1.0", cfg.Version)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 30s", cfg.ShutdownTimeout)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing script dir",
			mutate:  func(c *Config) { c.ScriptDir = "" },
			wantErr: true,
		},
		{
			name: "missing identity and name",
			mutate: func(c *Config) {
				c.Identity = ""
				c.Name = ""
			},
			wantErr: true,
		},
		{
			name:    "identity with separator",
			mutate:  func(c *Config) { c.Identity = "com/acme" },
			wantErr: true,
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.SettingsBackend = "etcd" },
			wantErr: true,
		},
		{
			name:    "redis without address",
			mutate:  func(c *Config) { c.SettingsBackend = BackendRedis },
			wantErr: true,
		},
		{
			name: "redis with address",
			mutate: func(c *Config) {
				c.SettingsBackend = BackendRedis
				c.RedisAddr = "localhost:6379"
			},
			wantErr: false,
		},
		{
			name:    "non-positive idle backoff",
			mutate:  func(c *Config) { c.IdleInitial = 0 },
			wantErr: true,
		},
		{
			name: "idle max below initial",
			mutate: func(c *Config) {
				c.IdleInitial = time.Second
				c.IdleMax = time.Millisecond
			},
			wantErr: true,
		},
		{
			name:    "negative version",
			mutate:  func(c *Config) { c.Version = -1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_Derivations(t *testing.T) {
	c1 := validConfig()
	c1.Identity = ""
	c1.Name = "Fisher"
	if err := c1.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if c1.Identity != "Fisher" {
		t.Errorf("Identity = %v, want Fisher", c1.Identity)
	}

	c2 := validConfig()
	c2.Name = ""
	c2.StorageRoot = ""
	c2.SettingsBackend = ""
	if err := c2.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if c2.Name != "com.acme.Fisher" {
		t.Errorf("Name = %v, want the identity", c2.Name)
	}
	if c2.StorageRoot != settings.DefaultRoot() {
		t.Errorf("StorageRoot = %v, want %v", c2.StorageRoot, settings.DefaultRoot())
	}
	if c2.SettingsBackend != BackendFile {
		t.Errorf("SettingsBackend = %v, want %v", c2.SettingsBackend, BackendFile)
	}
}

func TestConfig_ValidateSettings_NoScriptDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Identity = "com.acme.Fisher"
	if err := cfg.ValidateSettings(); err != nil {
		t.Errorf("ValidateSettings() error = %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should require script-dir")
	}
}

func TestLogger_Level(t *testing.T) {
	if got := Logger("debug", false).GetLevel(); got.String() != "debug" {
		t.Errorf("level = %v, want debug", got)
	}
	if got := Logger("bogus", true).GetLevel(); got.String() != "info" {
		t.Errorf("level = %v, want info", got)
	}
}
