// Package db opens the PostgreSQL pool behind the product store and applies its
// schema migrations.
//
// [Open] retries the initial connection, so the service survives a database that
// comes up a few seconds later than the process. [Migrate] runs embedded goose
// migrations through a provider bound to a dedicated version table:
//
//	pool, err := db.Open(ctx, cfg.Database, log)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := db.Migrate(ctx, pool, postgres.Migrations(), cfg.Database.MigrationsTable, log); err != nil {
//	    return err
//	}
//
// [Healthcheck] plugs into the readiness probe.
package db
