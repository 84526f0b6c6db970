package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/apm/internal/config"
	"github.com/dmitrymomot/apm/internal/server"
	"github.com/dmitrymomot/apm/pkg/effect"
	"github.com/dmitrymomot/apm/pkg/logger"
)

// rootFlags are shared by every subcommand.
type rootFlags struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "apm",
		Short: "Product management state server",
		Long: `apm keeps the product catalog and the user session in a single
unidirectional store and exposes it over HTTP.

Configuration is read from an optional YAML file and APM_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to a YAML config file")

	cmd.AddCommand(newServeCmd(flags), newMigrateCmd(flags))
	return cmd
}

func (f *rootFlags) load() (config.Config, error) {
	return config.Load(f.configPath)
}

func newLogger(cfg config.Config, out io.Writer) *slog.Logger {
	opts := []logger.Option{
		logger.WithOutput(out),
		logger.WithLevel(logger.ParseLevel(cfg.Log.Level)),
		logger.WithExtractors(server.RequestIDExtractor(), effect.RunIDExtractor()),
	}
	if cfg.Log.Format == "text" {
		opts = append(opts, logger.WithText())
	}
	return logger.NewWithSentry(cfg.Sentry, opts...)
}
