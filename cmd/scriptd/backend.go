package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/bft-labs/scriptd/internal/cliconfig"
	"github.com/bft-labs/scriptd/pkg/settings"
)

// openBackend returns the configured settings backend and a release func.
func openBackend(ctx context.Context, cfg cliconfig.Config) (settings.Backend, func(), error) {
	id := settings.Identity(cfg.Identity)

	switch cfg.SettingsBackend {
	case cliconfig.BackendMemory:
		return settings.NewMemoryBackend(), func() {}, nil
	case cliconfig.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		return settings.NewRedisBackend(rdb, id), func() { _ = rdb.Close() }, nil
	default:
		return settings.NewFileBackend(cfg.StorageRoot, id), func() {}, nil
	}
}
