package database

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection configuration. Zero PoolSize keeps the
// go-redis default; zero ConnectAttempts means 3. Commands slower than
// SlowCommand are logged; zero disables that.
type RedisConfig struct {
	Addr            string
	Password        string
	DB              int
	PoolSize        int
	ConnectAttempts int
	SlowCommand     time.Duration
}

// connectWait is the pause after a failed ping: 1s doubling per attempt,
// each spread by up to a quarter either way so restarted replicas do not
// reconnect in lockstep.
func connectWait(attempt int) time.Duration {
	base := time.Second << max(attempt, 0)
	spread := float64(base) / 4 * (2*rand.Float64() - 1) // #nosec G404 -- jitter only
	return base + time.Duration(spread)
}

// NewRedisClient opens a traced Redis client and waits until it answers a
// ping. logger may be nil.
func NewRedisClient(ctx context.Context, cfg RedisConfig, logger *slog.Logger) (*redis.Client, error) {
	attempts := cfg.ConnectAttempts
	if attempts <= 0 {
		attempts = 3
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	client.AddHook(NewTracingHook(cfg.SlowCommand, logger))

	for attempt := 0; ; attempt++ {
		err := client.Ping(ctx).Err()
		if err == nil {
			return client, nil
		}
		if attempt+1 >= attempts {
			_ = client.Close()
			return nil, fmt.Errorf("connect to redis after %d attempts: %w", attempts, err)
		}

		wait := connectWait(attempt)
		logger.Warn("redis ping failed, retrying",
			slog.String("addr", cfg.Addr),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", wait),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, fmt.Errorf("ping redis: context canceled during retry: %w", ctx.Err())
		case <-time.After(wait):
		}
	}
}
