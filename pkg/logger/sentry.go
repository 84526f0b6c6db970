package logger

import (
	"context"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// SentryConfig holds Sentry integration configuration.
type SentryConfig struct {
	DSN         string `env:"SENTRY_DSN" yaml:"dsn"`
	Environment string `env:"SENTRY_ENVIRONMENT" yaml:"environment"`
	// MinLevel is the lowest level forwarded to Sentry as a log entry.
	// Errors always become Sentry events.
	MinLevel slog.Level `yaml:"-"`
}

// NewWithSentry creates a logger that writes locally and forwards warnings and
// errors to Sentry. Failed effects log at warn level, so they show up next to
// the issues they caused.
//
// With an empty DSN, or if the SDK fails to initialize, only the local output
// is used.
func NewWithSentry(cfg SentryConfig, opts ...Option) *slog.Logger {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	local := o.handler()

	if cfg.DSN == "" {
		return slog.New(NewLogHandlerDecorator(local, o.extractors...))
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		EnableLogs:  true,
	}); err != nil {
		slog.New(local).Error("failed to initialize Sentry", slog.Any("error", err))
		return slog.New(NewLogHandlerDecorator(local, o.extractors...))
	}

	logLevel := []slog.Level{slog.LevelWarn, slog.LevelError}
	if cfg.MinLevel >= slog.LevelError {
		logLevel = []slog.Level{slog.LevelError}
	}

	remote := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   logLevel,
	}.NewSentryHandler(context.Background())

	return slog.New(NewLogHandlerDecorator(newMultiHandler(local, remote), o.extractors...))
}

// FlushSentry waits for buffered Sentry events until the context deadline,
// or two seconds without one. Without an initialized client it returns at
// once. Its signature fits a shutdown hook.
func FlushSentry(ctx context.Context) error {
	timeout := 2 * time.Second
	if d, ok := ctx.Deadline(); ok {
		timeout = time.Until(d)
	}
	if timeout > 0 {
		sentry.Flush(timeout)
	}
	return nil
}
