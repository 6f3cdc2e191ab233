package settings

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisKeyPrefix prefixes the hash key holding an identity's settings.
const RedisKeyPrefix = "scriptd:settings:"

// RedisBackend persists values in a single redis hash per identity.
type RedisBackend struct {
	rdb *redis.Client
	key string
}

// NewRedisBackend creates a redis backend for id.
func NewRedisBackend(rdb *redis.Client, id Identity) *RedisBackend {
	return &RedisBackend{rdb: rdb, key: RedisKeyPrefix + string(id)}
}

// Load returns every field of the hash. A missing hash yields an empty map.
func (b *RedisBackend) Load(ctx context.Context) (map[string]string, error) {
	values, err := b.rdb.HGetAll(ctx, b.key).Result()
	if err != nil {
		return nil, err
	}
	return values, nil
}

// Save replaces the hash in a single transaction.
func (b *RedisBackend) Save(ctx context.Context, values map[string]string) error {
	_, err := b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, b.key)
		if len(values) > 0 {
			args := make([]interface{}, 0, len(values)*2)
			for k, v := range values {
				args = append(args, k, v)
			}
			pipe.HSet(ctx, b.key, args...)
		}
		return nil
	})
	return err
}

// Remove deletes the hash.
func (b *RedisBackend) Remove(ctx context.Context) error {
	return b.rdb.Del(ctx, b.key).Err()
}

// Location returns "redis://<addr>/<key>".
func (b *RedisBackend) Location() string {
	return "redis://" + b.rdb.Options().Addr + "/" + b.key
}

// Key returns the hash key.
func (b *RedisBackend) Key() string { return b.key }
