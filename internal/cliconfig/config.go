package cliconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/scriptd/pkg/settings"
	"github.com/bft-labs/scriptd/pkg/task"
)

// Settings backends selectable from the CLI.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// DefaultListenAddr is where the HTTP controller listens by default.
const DefaultListenAddr = "127.0.0.1:7410"

// Config holds CLI configuration for scriptd.
type Config struct {
	ScriptDir   string
	Identity    string
	Name        string
	Version     float64
	Authors     []string
	Description string

	StorageRoot     string
	SettingsBackend string
	RedisAddr       string
	RedisDB         int

	ListenAddr      string
	IdleInitial     time.Duration
	IdleMax         time.Duration
	ShutdownTimeout time.Duration
	Watch           bool

	LogLevel string
	LogJSON  bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Version:         1.0,
		StorageRoot:     settings.DefaultRoot(),
		SettingsBackend: BackendFile,
		ListenAddr:      DefaultListenAddr,
		IdleInitial:     task.DefaultBackoffInitial,
		IdleMax:         task.DefaultBackoffMax,
		ShutdownTimeout: 30 * time.Second,
		LogLevel:        "info",
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.ScriptDir == "" {
		return fmt.Errorf("script-dir is required")
	}
	if err := c.ValidateSettings(); err != nil {
		return err
	}

	if c.Name == "" {
		c.Name = c.Identity
	}
	if c.Version < 0 {
		return fmt.Errorf("version must not be negative")
	}
	if c.IdleInitial <= 0 {
		return fmt.Errorf("idle initial backoff must be positive")
	}
	if c.IdleMax < c.IdleInitial {
		return fmt.Errorf("idle max backoff must be at least the initial backoff")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}

	return nil
}

// ValidateSettings checks only what is needed to reach a script's settings:
// identity, storage root and backend.
func (c *Config) ValidateSettings() error {
	if c.Identity == "" {
		c.Identity = c.Name
	}
	if c.Identity == "" {
		return fmt.Errorf("identity is required (or name)")
	}
	if err := settings.Identity(c.Identity).Validate(); err != nil {
		return err
	}

	if c.StorageRoot == "" {
		c.StorageRoot = settings.DefaultRoot()
	}

	switch c.SettingsBackend {
	case "":
		c.SettingsBackend = BackendFile
	case BackendFile, BackendMemory:
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis-addr is required for the redis settings backend")
		}
	default:
		return fmt.Errorf("unknown settings backend %q", c.SettingsBackend)
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setStrings sets a list if not empty and flag not changed.
func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = append([]string(nil), value...)
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloat sets a float64 value if positive and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i < 0 {
		return nil
	}
	*dst = i
	return nil
}

// setFloatFromString parses a string to float64 and sets the destination if valid.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if f <= 0 {
		return nil
	}
	*dst = f
	return nil
}

// setStringsFromString splits a comma-separated list.
func (s *configSetter) setStringsFromString(flag, value string, dst *[]string) {
	if value == "" || s.changed[flag] {
		return
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
