package db

import "errors"

var (
	ErrEmptyURL          = errors.New("db: empty connection URL")
	ErrInvalidConfig     = errors.New("db: failed to parse database configuration")
	ErrConnectionFailed  = errors.New("db: failed to open database connection")
	ErrHealthcheckFailed = errors.New("db: healthcheck failed")
	ErrMigrationsFailed  = errors.New("db: failed to apply migrations")
)
