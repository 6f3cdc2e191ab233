package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	ScriptDir       string   `toml:"script_dir"`
	Identity        string   `toml:"identity"`
	Name            string   `toml:"name"`
	Version         float64  `toml:"version"`
	Authors         []string `toml:"authors"`
	Description     string   `toml:"description"`
	StorageRoot     string   `toml:"storage_root"`
	SettingsBackend string   `toml:"settings_backend"`
	RedisAddr       string   `toml:"redis_addr"`
	RedisDB         int      `toml:"redis_db"`
	ListenAddr      string   `toml:"listen_addr"`
	IdleInitial     string   `toml:"idle_initial"`
	IdleMax         string   `toml:"idle_max"`
	ShutdownTimeout string   `toml:"shutdown_timeout"`
	Watch           *bool    `toml:"watch"`
	LogLevel        string   `toml:"log_level"`
	LogJSON         *bool    `toml:"log_json"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.scriptd/config.toml, or "" without a home directory.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".scriptd", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("script-dir", fc.ScriptDir, &cfg.ScriptDir)
	s.setString("identity", fc.Identity, &cfg.Identity)
	s.setString("name", fc.Name, &cfg.Name)
	s.setString("description", fc.Description, &cfg.Description)
	s.setString("storage-root", fc.StorageRoot, &cfg.StorageRoot)
	s.setString("settings-backend", fc.SettingsBackend, &cfg.SettingsBackend)
	s.setString("redis-addr", fc.RedisAddr, &cfg.RedisAddr)
	s.setString("listen", fc.ListenAddr, &cfg.ListenAddr)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setStrings("authors", fc.Authors, &cfg.Authors)

	s.setFloat("version-number", fc.Version, &cfg.Version)
	s.setInt("redis-db", fc.RedisDB, &cfg.RedisDB)

	if err := s.setDuration("idle-initial", fc.IdleInitial, &cfg.IdleInitial); err != nil {
		return err
	}
	if err := s.setDuration("idle-max", fc.IdleMax, &cfg.IdleMax); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-timeout", fc.ShutdownTimeout, &cfg.ShutdownTimeout); err != nil {
		return err
	}

	s.setBool("watch", fc.Watch, &cfg.Watch)
	s.setBool("log-json", fc.LogJSON, &cfg.LogJSON)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
