package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds the PostgreSQL connection parameters of the product store.
type Config struct {
	URL             string        `env:"URL" yaml:"url"`
	MigrationsTable string        `env:"MIGRATIONS_TABLE" yaml:"migrations_table"`
	MaxConns        int32         `env:"MAX_CONNS" yaml:"max_conns"`
	MinConns        int32         `env:"MIN_CONNS" yaml:"min_conns"`
	MaxConnIdleTime time.Duration `env:"MAX_CONN_IDLE_TIME" yaml:"max_conn_idle_time"`
	MaxConnLifetime time.Duration `env:"MAX_CONN_LIFETIME" yaml:"max_conn_lifetime"`
	ConnectRetries  int           `env:"CONNECT_RETRIES" yaml:"connect_retries"`
	RetryInterval   time.Duration `env:"RETRY_INTERVAL" yaml:"retry_interval"`
}

// Enabled reports whether a URL is configured.
func (c Config) Enabled() bool { return c.URL != "" }

func (c Config) poolConfig() (*pgxpool.Config, error) {
	if c.URL == "" {
		return nil, ErrEmptyURL
	}
	pc, err := pgxpool.ParseConfig(c.URL)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	if c.MaxConns > 0 {
		pc.MaxConns = c.MaxConns
	}
	if c.MinConns > 0 && c.MinConns <= pc.MaxConns {
		pc.MinConns = c.MinConns
	}
	if c.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = c.MaxConnIdleTime
	}
	if c.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = c.MaxConnLifetime
	}
	return pc, nil
}

// Open creates a pool and pings the server, retrying with a linearly growing
// pause between attempts.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (*pgxpool.Pool, error) {
	pc, err := cfg.poolConfig()
	if err != nil {
		return nil, err
	}

	attempts := max(cfg.ConnectRetries, 1)
	var lastErr error
	for i := range attempts {
		pool, err := pgxpool.NewWithConfig(ctx, pc)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err

		if i == attempts-1 {
			break
		}
		log.WarnContext(ctx, "postgres not reachable, retrying",
			slog.Int("attempt", i+1),
			slog.Any("error", err),
		)
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrConnectionFailed, ctx.Err())
		case <-time.After(time.Duration(i+1) * cfg.RetryInterval):
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrConnectionFailed, attempts, lastErr)
}

// Healthcheck pings the pool. Compatible with health.CheckFunc.
func Healthcheck(pool *pgxpool.Pool) func(context.Context) error {
	return func(ctx context.Context) error {
		if pool == nil {
			return ErrHealthcheckFailed
		}
		if err := pool.Ping(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

// Closer adapts pool.Close to a shutdown hook.
func Closer(pool *pgxpool.Pool) func(context.Context) error {
	return func(context.Context) error {
		pool.Close()
		return nil
	}
}
