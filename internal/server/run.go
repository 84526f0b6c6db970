package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrymomot/apm/pkg/logger"
)

const (
	readTimeout       = 15 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 120 * time.Second
	readHeaderTimeout = 5 * time.Second
	maxHeaderBytes    = 1 << 20
	shutdownTimeout   = 30 * time.Second
)

// RunOption configures Run.
type RunOption func(*runConfig)

type runConfig struct {
	logger          *slog.Logger
	shutdownTimeout time.Duration
	onListen        func(net.Addr)
	onShutdown      []func()
	hooks           []func(context.Context) error
}

// WithRunLogger sets the lifecycle logger.
func WithRunLogger(l *slog.Logger) RunOption {
	return func(c *runConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithShutdownTimeout bounds the graceful shutdown, hooks included.
// Default: 30s.
func WithShutdownTimeout(d time.Duration) RunOption {
	return func(c *runConfig) {
		if d > 0 {
			c.shutdownTimeout = d
		}
	}
}

// WithOnListen is called with the bound address once the listener is open.
func WithOnListen(fn func(net.Addr)) RunOption {
	return func(c *runConfig) {
		c.onListen = fn
	}
}

// WithOnShutdown registers fn with http.Server.RegisterOnShutdown, e.g.
// Server.CloseStreams.
func WithOnShutdown(fn func()) RunOption {
	return func(c *runConfig) {
		c.onShutdown = append(c.onShutdown, fn)
	}
}

// WithShutdownHooks adds hooks run after the HTTP server stopped, in order.
func WithShutdownHooks(hooks ...func(context.Context) error) RunOption {
	return func(c *runConfig) {
		c.hooks = append(c.hooks, hooks...)
	}
}

// Run serves h on addr until ctx is done or the process receives SIGINT or
// SIGTERM, then shuts down gracefully and runs the shutdown hooks.
func Run(ctx context.Context, addr string, h http.Handler, opts ...RunOption) error {
	cfg := &runConfig{
		logger:          logger.NewNope(),
		shutdownTimeout: shutdownTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	log := cfg.logger

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
		ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelWarn),
	}
	for _, fn := range cfg.onShutdown {
		srv.RegisterOnShutdown(fn)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		hookCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.shutdownTimeout)
		defer cancel()
		return errors.Join(err, runHooks(hookCtx, log, cfg.hooks))
	}
	if cfg.onListen != nil {
		cfg.onListen(ln.Addr())
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", slog.String("address", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var errs []error
	select {
	case err := <-errCh:
		if err != nil {
			errs = append(errs, err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if err := runHooks(shutdownCtx, log, cfg.hooks); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		log.Error("shutdown completed with errors", slog.Any("error", err))
		return err
	}
	log.Info("shutdown completed")
	return nil
}

func runHooks(ctx context.Context, log *slog.Logger, hooks []func(context.Context) error) error {
	var errs []error
	for _, hook := range hooks {
		if err := hook(ctx); err != nil {
			log.Error("shutdown hook failed", slog.Any("error", err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
