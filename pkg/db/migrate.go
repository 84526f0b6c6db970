package db

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

// Migrate applies every pending goose migration found at the root of fsys.
// The pool is shared through database/sql and stays open afterwards.
func Migrate(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, table string, log *slog.Logger) error {
	if table == "" {
		table = "apm_migrations"
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	store, err := database.NewStore(database.DialectPostgres, table)
	if err != nil {
		return errors.Join(ErrMigrationsFailed, err)
	}
	provider, err := goose.NewProvider("", sqlDB, fsys, goose.WithStore(store))
	if err != nil {
		return errors.Join(ErrMigrationsFailed, err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return errors.Join(ErrMigrationsFailed, err)
	}
	for _, r := range results {
		log.InfoContext(ctx, "migration applied",
			slog.Int64("version", r.Source.Version),
			slog.String("file", r.Source.Path),
			slog.Duration("took", r.Duration),
		)
	}
	if len(results) == 0 {
		log.InfoContext(ctx, "database schema is up to date")
	}
	return nil
}
