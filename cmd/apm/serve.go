package main

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/apm/internal/app"
	"github.com/dmitrymomot/apm/internal/config"
	"github.com/dmitrymomot/apm/internal/server"
	"github.com/dmitrymomot/apm/pkg/health"
	"github.com/dmitrymomot/apm/pkg/logger"
)

type serveFlags struct {
	addr   string
	memory bool
}

func newServeCmd(root *rootFlags) *cobra.Command {
	flags := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			flags.apply(cmd, &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, newLogger(cfg, cmd.OutOrStdout()), nil)
		},
	}
	cmd.Flags().StringVar(&flags.addr, "addr", "", "listen address (overrides APM_ADDR)")
	cmd.Flags().BoolVar(&flags.memory, "memory", false, "use the in-memory catalog and cache, ignoring database and redis settings")
	return cmd
}

func (f *serveFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("addr") {
		cfg.Addr = f.addr
	}
	if f.memory {
		cfg.Catalog.Backend = config.BackendMemory
		if cfg.Catalog.Cache == config.CacheRedis {
			cfg.Catalog.Cache = config.CacheMemory
		}
	}
}

// serve runs until ctx is done or a termination signal arrives.
func serve(ctx context.Context, cfg config.Config, log *slog.Logger, onListen func(net.Addr)) error {
	a, err := app.New(ctx, cfg, app.WithLogger(log))
	if err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		return errors.Join(err, a.Shutdown(context.WithoutCancel(ctx)))
	}

	srv := server.New(a.Store, a.Catalog, a.Identity,
		server.WithLogger(log),
		server.WithCORSOrigins(cfg.CORSOrigins...),
		server.WithChecker(health.NewChecker(a.Checks(),
			health.WithLogger(log),
			health.WithRegisterer(a.Registry),
		)),
		server.WithMetrics(promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{Registry: a.Registry})),
	)

	return server.Run(ctx, cfg.Addr, srv,
		server.WithRunLogger(log),
		server.WithShutdownTimeout(cfg.ShutdownTimeout),
		server.WithOnListen(onListen),
		server.WithOnShutdown(srv.CloseStreams),
		server.WithShutdownHooks(a.Shutdown, logger.FlushSentry),
	)
}
