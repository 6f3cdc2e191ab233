package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bft-labs/scriptd/internal/cliconfig"
	"github.com/bft-labs/scriptd/pkg/log"
	"github.com/bft-labs/scriptd/pkg/settings"
)

func newSettingsCommand() *cobra.Command {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	// withStore loads the script's settings and hands them to fn.
	withStore := func(cmd *cobra.Command, fn func(ctx context.Context, store *settings.Store) error) error {
		if err := loadConfig(cmd, &cfg, cfgPath); err != nil {
			return err
		}
		if err := cfg.ValidateSettings(); err != nil {
			return err
		}

		ctx := cmd.Context()
		backend, release, err := openBackend(ctx, cfg)
		if err != nil {
			return err
		}
		defer release()

		logger := log.NewZerologAdapterWithLogger(cliconfig.Logger(cfg.LogLevel, cfg.LogJSON))
		return fn(ctx, settings.Open(ctx, backend, logger))
	}

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect or edit a script's persisted settings",
	}
	configFlags(cmd.PersistentFlags(), &cfg, &cfgPath)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print every key=value pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store *settings.Store) error {
				for _, k := range store.Keys() {
					v, _ := store.Get(k)
					fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", k, v)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print one value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store *settings.Store) error {
				v, ok := store.Get(args[0])
				if !ok {
					return fmt.Errorf("key %q not set", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store one value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store *settings.Store) error {
				store.Set(args[0], args[1])
				return store.Flush(ctx)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every setting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store *settings.Store) error {
				store.Clear()
				return store.Flush(ctx)
			})
		},
	})

	return cmd
}
