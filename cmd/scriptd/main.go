package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/scriptd/internal/cliconfig"
)

const helpDescription = `
Run a long-lived automated script made of Lua tasks.

Highlights:
  - Tasks are polled in priority order; the first valid one runs each cycle.
  - Start, suspend, resume and stop over HTTP or with signals (USR1/USR2).
  - Active runtime excludes time spent suspended.
  - Per-script settings persist across runs in an XML file or Redis.
`

var exampleUsage = strings.TrimSpace(`
  scriptd run --script-dir ./tasks --identity com.acme.Fisher --watch
  scriptd settings list --identity com.acme.Fisher
  scriptd settings set --identity com.acme.Fisher ticket T-1
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// configFlags binds the flags shared by every subcommand.
func configFlags(fs *pflag.FlagSet, cfg *cliconfig.Config, cfgPath *string) {
	fs.StringVar(cfgPath, "config", "", "path to config file (default: $HOME/.scriptd/config.toml)")
	fs.StringVar(&cfg.Identity, "identity", cfg.Identity, "script identity, keys the storage directory and settings")
	fs.StringVar(&cfg.Name, "name", cfg.Name, "script display name (defaults to identity)")
	fs.StringVar(&cfg.StorageRoot, "storage-root", cfg.StorageRoot, "root of per-script storage directories")
	fs.StringVar(&cfg.SettingsBackend, "settings-backend", cfg.SettingsBackend, "settings backend: file, redis or memory")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "redis address for the redis settings backend")
	fs.IntVar(&cfg.RedisDB, "redis-db", cfg.RedisDB, "redis database number")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	fs.BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON, "log JSON lines instead of console output")
}

// loadConfig layers file, environment and flags, in increasing precedence.
func loadConfig(cmd *cobra.Command, cfg *cliconfig.Config, cfgPath string) error {
	cfgFile := cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
			return err
		}
	} else if cfgPath != "" {
		return fmt.Errorf("config file %s not found", cfgPath)
	}

	return cliconfig.ApplyEnvConfig(cfg, changed)
}

func main() {
	root := &cobra.Command{
		Use:           "scriptd",
		Short:         "Run a long-lived automated script made of Lua tasks",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCommand(), newSettingsCommand())

	if err := root.Execute(); err != nil {
		log := cliconfig.Logger("info", false)
		log.Error().Err(err).Msg("scriptd")
		os.Exit(1)
	}
}
