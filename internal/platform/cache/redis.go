package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// Open returns a client for addr. An unreachable server is logged and the
// client is still returned so report caching recovers once Redis comes up.
// An empty addr yields nil, which callers treat as caching disabled.
func Open(ctx context.Context, addr string, logger *slog.Logger) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := Ping(ctx, client); err != nil && logger != nil {
		logger.Warn("redis unavailable, reports run uncached", slog.String("addr", addr), slog.Any("error", err))
	}
	return client
}

// Ping checks the connection within a short deadline.
func Ping(ctx context.Context, client *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("platform/cache: ping: %w", err)
	}
	return nil
}

// Close releases the client, tolerating nil.
func Close(client *redis.Client, logger *slog.Logger) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil && logger != nil {
		logger.Warn("redis close", slog.Any("error", err))
	}
}
