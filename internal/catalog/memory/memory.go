package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/apm/internal/catalog"
)

// API is a catalog.API kept in process memory.
type API struct {
	latency time.Duration

	mu       sync.RWMutex
	products map[int]catalog.Product
	nextID   int
}

var _ catalog.API = (*API)(nil)

// Option configures an API.
type Option func(*API)

// WithLatency delays every call by d, cancellable through its context.
func WithLatency(d time.Duration) Option {
	return func(a *API) {
		a.latency = d
	}
}

// WithProducts replaces the seed products. Ids must be unique and positive.
func WithProducts(products ...catalog.Product) Option {
	return func(a *API) {
		a.products = make(map[int]catalog.Product, len(products))
		a.nextID = 0
		for _, p := range products {
			a.products[p.ID] = p
			a.nextID = max(a.nextID, p.ID)
		}
	}
}

// New returns an API seeded with Seed().
func New(opts ...Option) *API {
	a := &API{}
	WithProducts(Seed()...)(a)
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *API) List(ctx context.Context) ([]catalog.Product, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]catalog.Product, 0, len(a.products))
	for _, p := range a.products {
		out = append(out, p)
	}
	slices.SortFunc(out, func(x, y catalog.Product) int { return cmp.Compare(x.ID, y.ID) })
	return out, nil
}

func (a *API) Create(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	if err := a.wait(ctx); err != nil {
		return catalog.Product{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.codeTaken(p.Code, catalog.NewProductID) {
		return catalog.Product{}, catalog.ErrConflict
	}
	a.nextID++
	p.ID = a.nextID
	a.products[p.ID] = p
	return p, nil
}

func (a *API) Update(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	if err := a.wait(ctx); err != nil {
		return catalog.Product{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.products[p.ID]; !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	if a.codeTaken(p.Code, p.ID) {
		return catalog.Product{}, catalog.ErrConflict
	}
	a.products[p.ID] = p
	return p, nil
}

func (a *API) Delete(ctx context.Context, id int) (int, error) {
	if err := a.wait(ctx); err != nil {
		return 0, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.products[id]; !ok {
		return 0, catalog.ErrNotFound
	}
	delete(a.products, id)
	return id, nil
}

// codeTaken reports whether another product already uses code.
// Called with a.mu held.
func (a *API) codeTaken(code string, except int) bool {
	for id, p := range a.products {
		if id != except && strings.EqualFold(p.Code, code) {
			return true
		}
	}
	return false
}

func (a *API) wait(ctx context.Context) error {
	if a.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(a.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
