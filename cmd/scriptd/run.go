package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/bft-labs/scriptd/internal/cliconfig"
	"github.com/bft-labs/scriptd/internal/controller"
	"github.com/bft-labs/scriptd/pkg/lifecycle"
	"github.com/bft-labs/scriptd/pkg/log"
	"github.com/bft-labs/scriptd/pkg/luatask"
	"github.com/bft-labs/scriptd/pkg/metrics"
	"github.com/bft-labs/scriptd/pkg/script"
	"github.com/bft-labs/scriptd/pkg/settings"
	"github.com/bft-labs/scriptd/pkg/track"
	"github.com/bft-labs/scriptd/plugins/scriptwatcher"
)

func newRunCommand() *cobra.Command {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load the Lua tasks, start the script and serve the controller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, &cfg, cfgPath); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	configFlags(cmd.Flags(), &cfg, &cfgPath)
	cmd.Flags().StringVar(&cfg.ScriptDir, "script-dir", cfg.ScriptDir, "directory of *.lua task files, loaded in name order")
	cmd.Flags().Float64Var(&cfg.Version, "version-number", cfg.Version, "script version reported in status")
	cmd.Flags().StringSliceVar(&cfg.Authors, "authors", cfg.Authors, "script authors")
	cmd.Flags().StringVar(&cfg.Description, "description", cfg.Description, "script description")
	cmd.Flags().StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "controller listen address (empty disables)")
	cmd.Flags().DurationVar(&cfg.IdleInitial, "idle-initial", cfg.IdleInitial, "first wait after a cycle with no valid task")
	cmd.Flags().DurationVar(&cfg.IdleMax, "idle-max", cfg.IdleMax, "longest wait between idle cycles")
	cmd.Flags().DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "how long stop waits for the running task")
	cmd.Flags().BoolVar(&cfg.Watch, "watch", cfg.Watch, "reload tasks when files in script-dir change")

	return cmd
}

func run(ctx context.Context, cfg cliconfig.Config) error {
	zl := cliconfig.Logger(cfg.LogLevel, cfg.LogJSON)
	zl.Info().Interface("config", cfg).Msg("configuration")
	logger := log.NewZerologAdapterWithLogger(zl)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	pageTracker, err := track.NewPrometheusTracker(reg)
	if err != nil {
		return fmt.Errorf("register tracker: %w", err)
	}

	opts := []script.Option{
		script.WithLogger(logger),
		script.WithStorageRoot(cfg.StorageRoot),
		script.WithTracker(track.Multi{track.NewLogTracker(logger), pageTracker}),
		script.WithEventHandler(collector),
		script.WithIdleBackoff(cfg.IdleInitial, cfg.IdleMax),
		script.WithShutdownTimeout(cfg.ShutdownTimeout),
	}
	if cfg.SettingsBackend != cliconfig.BackendFile {
		backend, release, err := openBackend(ctx, cfg)
		if err != nil {
			return err
		}
		defer release()
		opts = append(opts, script.WithSettingsBackend(backend))
	}

	s, err := script.New(script.Manifest{
		Name:        cfg.Name,
		Version:     cfg.Version,
		Authors:     cfg.Authors,
		Description: cfg.Description,
	}, settings.Identity(cfg.Identity), opts...)
	if err != nil {
		return fmt.Errorf("create script: %w", err)
	}
	if err := collector.Watch(s); err != nil {
		return fmt.Errorf("register runtime metrics: %w", err)
	}

	set := luatask.NewSet(cfg.ScriptDir, s, s, luatask.WithLogger(logger))
	defer set.Close()
	if _, err := set.Reload(); err != nil {
		return err
	}
	if cfg.Watch {
		s.Use(scriptwatcher.New(scriptwatcher.Config{Reloader: set}))
	}

	serveErr := make(chan error, 1)
	if cfg.ListenAddr != "" {
		ctl := controller.New(s,
			controller.WithReloader(set),
			controller.WithGatherer(reg),
			controller.WithLogger(logger),
			controller.WithBaseContext(ctx),
		)
		go func() { serveErr <- ctl.Serve(ctx, cfg.ListenAddr) }()
	}

	if err := s.Start(ctx); err != nil {
		if !errors.Is(err, lifecycle.ErrCallbackFailed) {
			return fmt.Errorf("start script: %w", err)
		}
		logger.Warn("start callbacks failed", log.Err(err))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	suspendCh, resumeCh, stopControl := controlSignals()
	defer stopControl()

loop:
	for {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, stopping", log.String("signal", sig.String()))
			break loop
		case <-suspendCh:
			if err := s.Suspend(); err != nil {
				logger.Warn("suspend", log.Err(err))
			}
		case <-resumeCh:
			if err := s.Resume(); err != nil {
				logger.Warn("resume", log.Err(err))
			}
		case err := <-serveErr:
			if err != nil {
				logger.Error("controller stopped", log.Err(err))
			}
			break loop
		}
	}

	var stopErr error
	if s.State() != script.StateStopped {
		stopErr = s.Stop()
	}
	cancel()
	if stopErr != nil {
		return fmt.Errorf("stop script: %w", stopErr)
	}
	return nil
}
