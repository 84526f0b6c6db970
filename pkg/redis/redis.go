package redis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config describes the Redis connection used for shared caches.
type Config struct {
	URL            string        `env:"URL" yaml:"url"`
	PoolSize       int           `env:"POOL_SIZE" yaml:"pool_size"`
	DialTimeout    time.Duration `env:"DIAL_TIMEOUT" yaml:"dial_timeout"`
	IOTimeout      time.Duration `env:"IO_TIMEOUT" yaml:"io_timeout"`
	ConnectRetries int           `env:"CONNECT_RETRIES" yaml:"connect_retries"`
	RetryInterval  time.Duration `env:"RETRY_INTERVAL" yaml:"retry_interval"`
}

// Enabled reports whether a URL is configured.
func (c Config) Enabled() bool { return c.URL != "" }

// Open connects to Redis and pings it, retrying with a linearly growing
// pause between attempts. redis:// and rediss:// URLs are accepted.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (redis.UniversalClient, error) {
	if cfg.URL == "" {
		return nil, ErrEmptyURL
	}
	if !strings.HasPrefix(cfg.URL, "redis://") && !strings.HasPrefix(cfg.URL, "rediss://") {
		return nil, ErrInvalidURL
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, errors.Join(ErrInvalidURL, err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.IOTimeout > 0 {
		opts.ReadTimeout = cfg.IOTimeout
		opts.WriteTimeout = cfg.IOTimeout
	}

	attempts := max(cfg.ConnectRetries, 1)
	var lastErr error
	for i := range attempts {
		client := redis.NewClient(opts)
		lastErr = client.Ping(ctx).Err()
		if lastErr == nil {
			return client, nil
		}
		_ = client.Close()

		if i == attempts-1 {
			break
		}
		log.WarnContext(ctx, "redis not reachable, retrying",
			slog.Int("attempt", i+1),
			slog.Any("error", lastErr),
		)
		if err := sleep(ctx, time.Duration(i+1)*cfg.RetryInterval); err != nil {
			return nil, errors.Join(ErrConnectionFailed, err)
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrConnectionFailed, attempts, lastErr)
}

// Healthcheck pings the client. Compatible with health.CheckFunc.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if client == nil {
			return ErrUnhealthy
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrUnhealthy, err)
		}
		return nil
	}
}

// Closer adapts client.Close to a shutdown hook.
func Closer(client io.Closer) func(context.Context) error {
	return func(context.Context) error {
		return client.Close()
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
