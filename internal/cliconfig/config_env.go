package cliconfig

import "os"

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "SCRIPTD_"

// ApplyEnvConfig applies configuration from environment variables (SCRIPTD_*).
// It respects flags that have been explicitly set (changed map).
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("script-dir", env("SCRIPT_DIR"), &cfg.ScriptDir)
	s.setString("identity", env("IDENTITY"), &cfg.Identity)
	s.setString("name", env("NAME"), &cfg.Name)
	s.setString("description", env("DESCRIPTION"), &cfg.Description)
	s.setString("storage-root", env("STORAGE_ROOT"), &cfg.StorageRoot)
	s.setString("settings-backend", env("SETTINGS_BACKEND"), &cfg.SettingsBackend)
	s.setString("redis-addr", env("REDIS_ADDR"), &cfg.RedisAddr)
	s.setString("listen", env("LISTEN_ADDR"), &cfg.ListenAddr)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)
	s.setStringsFromString("authors", env("AUTHORS"), &cfg.Authors)

	if err := s.setFloatFromString("version-number", env("VERSION"), &cfg.Version); err != nil {
		return err
	}
	if err := s.setIntFromString("redis-db", env("REDIS_DB"), &cfg.RedisDB); err != nil {
		return err
	}

	if err := s.setDuration("idle-initial", env("IDLE_INITIAL"), &cfg.IdleInitial); err != nil {
		return err
	}
	if err := s.setDuration("idle-max", env("IDLE_MAX"), &cfg.IdleMax); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-timeout", env("SHUTDOWN_TIMEOUT"), &cfg.ShutdownTimeout); err != nil {
		return err
	}

	s.setBoolFromString("watch", env("WATCH"), &cfg.Watch)
	s.setBoolFromString("log-json", env("LOG_JSON"), &cfg.LogJSON)

	return nil
}

func env(name string) string {
	return os.Getenv(EnvPrefix + name)
}
