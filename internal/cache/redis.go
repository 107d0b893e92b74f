package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/maxviazov/author-feed-service/internal/config"
)

type redisCache struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, log zerolog.Logger) Cache {
	return &redisCache{client: client, log: log}
}

// NewRedisClient builds a client from config, or returns nil when no address is set.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func (c *redisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

func (c *redisCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return c.client.Set(ctx, key, value, expiration).Err()
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *redisCache) Increment(ctx context.Context, key string) (int64, error) {
	return c.client.Incr(ctx, key).Result()
}

func (c *redisCache) IncrementBy(ctx context.Context, key string, n int64) (int64, error) {
	return c.client.IncrBy(ctx, key, n).Result()
}

// Scan walks the keyspace with SCAN rather than KEYS so large instances are not blocked.
func (c *redisCache) Scan(ctx context.Context, pattern string) ([]string, error) {
	var (
		all    []string
		cursor uint64
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		all = append(all, keys...)
		if next == 0 {
			return all, nil
		}
		cursor = next
	}
}

// GetAndDeleteMany runs GET for every key and one DEL inside a MULTI/EXEC block,
// so increments landing after the read are not lost by the delete.
func (c *redisCache) GetAndDeleteMany(ctx context.Context, keys []string) (map[string]int64, error) {
	out := make(map[string]int64, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	cmds := make(map[string]*redis.StringCmd, len(keys))
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			cmds[k] = pipe.Get(ctx, k)
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	for k, cmd := range cmds {
		raw, err := cmd.Result()
		if err != nil {
			continue
		}
		n, convErr := strconv.ParseInt(raw, 10, 64)
		if convErr != nil {
			c.log.Warn().Str("key", k).Str("value", raw).Msg("non-integer counter dropped")
			continue
		}
		out[k] = n
	}
	return out, nil
}

func (c *redisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

var _ Cache = (*redisCache)(nil)
