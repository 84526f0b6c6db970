package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/apm/internal/catalog/postgres"
	"github.com/dmitrymomot/apm/internal/config"
	"github.com/dmitrymomot/apm/pkg/db"
)

var errNoDatabase = errors.New("migrate: no database configured, set APM_DB_URL or database.url")

func newMigrateCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the product store migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			return migrate(cmd.Context(), cfg, newLogger(cfg, cmd.OutOrStdout()))
		},
	}
}

func migrate(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if !cfg.Database.Enabled() {
		return errNoDatabase
	}
	pool, err := db.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	return db.Migrate(ctx, pool, postgres.Migrations(), cfg.Database.MigrationsTable, log)
}
