package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NewWithFallback returns a Redis-backed cache when client is set and answers PING,
// otherwise an in-memory one.
func NewWithFallback(ctx context.Context, client *redis.Client, log zerolog.Logger) Cache {
	l := log.With().Str("module", "cache").Logger()
	if client == nil {
		l.Info().Msg("redis not configured, using memory cache")
		return NewMemory(time.Minute)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		l.Warn().Err(err).Msg("redis unavailable, falling back to memory cache")
		return NewMemory(time.Minute)
	}
	l.Info().Str("addr", client.Options().Addr).Msg("using redis cache")
	return NewRedis(client, l)
}
