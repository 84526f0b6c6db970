package effect

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/apm/pkg/logger"
)

const instrumentationName = "github.com/dmitrymomot/apm/pkg/effect"

// Option configures a Runtime.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	registerer prometheus.Registerer
	tracer     trace.Tracer
}

func defaultOptions() *options {
	return &options{
		logger: logger.NewNope(),
		tracer: otel.Tracer(instrumentationName),
	}
}

// WithLogger sets the runtime logger. Default: no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRegisterer registers the runtime metrics. Default: not registered.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = r
	}
}

// WithTracer sets the tracer used for run spans.
// Default: the global OpenTelemetry tracer provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}
