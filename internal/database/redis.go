package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/article-threads-api/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NewRedis connects to Redis. A blank URL or an unreachable server yields a
// nil client; notifications and rate limiting then degrade to no-ops.
func NewRedis(cfg *config.RedisConfig, log zerolog.Logger) *redis.Client {
	log = log.With().Str("component", "redis").Logger()

	if strings.TrimSpace(cfg.URL) == "" {
		log.Warn().Msg("REDIS_URL not set, continuing without Redis")
		return nil
	}

	client, err := OpenRedis(cfg.URL)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, continuing without Redis")
		return nil
	}

	log.Info().Str("addr", client.Options().Addr).Msg("Redis connection established")
	return client
}

// OpenRedis parses a redis:// URL (or bare host:port) and pings the server
func OpenRedis(addr string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}
