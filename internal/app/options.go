package app

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/apm/internal/catalog"
	"github.com/dmitrymomot/apm/internal/identity"
	"github.com/dmitrymomot/apm/pkg/logger"
)

// Option configures an App.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	tracer  trace.Tracer
	catalog catalog.API
	auth    identity.AuthAPI
}

func defaultOptions() *options {
	return &options{
		logger: logger.NewNope(),
		auth:   identity.DemoAuth{},
	}
}

// WithLogger sets the logger shared by the store, the runtime and the backends.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTracer overrides the tracer of the effect runtime.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// WithCatalogAPI replaces the configured product backend. The list cache is
// still applied on top of it.
func WithCatalogAPI(api catalog.API) Option {
	return func(o *options) {
		o.catalog = api
	}
}

// WithAuth replaces the demo authenticator.
func WithAuth(auth identity.AuthAPI) Option {
	return func(o *options) {
		if auth != nil {
			o.auth = auth
		}
	}
}
