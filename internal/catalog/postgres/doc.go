// Package postgres implements catalog.API on top of a pgx pool.
//
// The schema and the demo rows ship as embedded goose migrations, applied by
// `apm migrate` or at startup through db.Migrate with [Migrations].
// Missing rows map to catalog.ErrNotFound and duplicate product codes to
// catalog.ErrConflict.
package postgres
