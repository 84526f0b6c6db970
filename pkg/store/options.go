package store

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/apm/pkg/logger"
)

// Option configures a Store.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	initial    *State
	registerer prometheus.Registerer
}

func defaultOptions() *options {
	return &options{
		logger: logger.NewNope(),
	}
}

// WithLogger sets the logger used for dispatch tracing and recovered listener panics.
// Default: no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithInitialState preloads slices before the Init action runs.
// Features whose slice is present keep it; the others start from their initial value.
func WithInitialState(s *State) Option {
	return func(o *options) {
		o.initial = s
	}
}

// WithRegisterer registers the store metrics with the given Prometheus registerer.
// Default: metrics are collected but not registered.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = r
	}
}
