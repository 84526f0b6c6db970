package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/apm/internal/catalog"
)

const uniqueViolation = "23505"

// Querier is the subset of pgxpool.Pool used by API.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// API is a catalog.API backed by the products table.
type API struct {
	db Querier
}

var _ catalog.API = (*API)(nil)

func New(db Querier) *API {
	return &API{db: db}
}

const (
	listSQL = `SELECT id, name, code, description, star_rating, price
		FROM products ORDER BY id`

	createSQL = `INSERT INTO products (name, code, description, star_rating, price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, code, description, star_rating, price`

	updateSQL = `UPDATE products
		SET name = $2, code = $3, description = $4, star_rating = $5, price = $6, updated_at = now()
		WHERE id = $1
		RETURNING id, name, code, description, star_rating, price`

	deleteSQL = `DELETE FROM products WHERE id = $1 RETURNING id`
)

func (a *API) List(ctx context.Context) ([]catalog.Product, error) {
	rows, err := a.db.Query(ctx, listSQL)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Product, error) {
		return scan(row)
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (a *API) Create(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	created, err := scan(a.db.QueryRow(ctx, createSQL, p.Name, p.Code, p.Description, p.StarRating, p.Price))
	if err != nil {
		return catalog.Product{}, mapError("create product", err)
	}
	return created, nil
}

func (a *API) Update(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	updated, err := scan(a.db.QueryRow(ctx, updateSQL, p.ID, p.Name, p.Code, p.Description, p.StarRating, p.Price))
	if err != nil {
		return catalog.Product{}, mapError("update product", err)
	}
	return updated, nil
}

func (a *API) Delete(ctx context.Context, id int) (int, error) {
	var deleted int
	if err := a.db.QueryRow(ctx, deleteSQL, id).Scan(&deleted); err != nil {
		return 0, mapError("delete product", err)
	}
	return deleted, nil
}

func scan(row pgx.Row) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(&p.ID, &p.Name, &p.Code, &p.Description, &p.StarRating, &p.Price)
	return p, err
}

// mapError turns driver errors into catalog sentinels.
func mapError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return catalog.ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}
