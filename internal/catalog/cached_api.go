package catalog

import (
	"context"
	"time"

	"github.com/dmitrymomot/apm/pkg/cache"
)

const listKey = "list"

// CachedAPI serves List from a cache and drops the cached list on every
// successful write.
type CachedAPI struct {
	next   API
	loader *cache.Loader[[]Product]
}

var _ API = (*CachedAPI)(nil)

// NewCachedAPI wraps next. ttl follows cache.Cache semantics.
func NewCachedAPI(next API, c cache.Cache[[]Product], ttl time.Duration) *CachedAPI {
	return &CachedAPI{next: next, loader: cache.NewLoader(c, ttl)}
}

func (a *CachedAPI) List(ctx context.Context) ([]Product, error) {
	return a.loader.GetOrSet(ctx, listKey, a.next.List)
}

func (a *CachedAPI) Create(ctx context.Context, p Product) (Product, error) {
	created, err := a.next.Create(ctx, p)
	if err == nil {
		a.invalidate(ctx)
	}
	return created, err
}

func (a *CachedAPI) Update(ctx context.Context, p Product) (Product, error) {
	updated, err := a.next.Update(ctx, p)
	if err == nil {
		a.invalidate(ctx)
	}
	return updated, err
}

func (a *CachedAPI) Delete(ctx context.Context, id int) (int, error) {
	deleted, err := a.next.Delete(ctx, id)
	if err == nil {
		a.invalidate(ctx)
	}
	return deleted, err
}

// invalidate ignores cache errors: a stale list expires with its ttl.
func (a *CachedAPI) invalidate(ctx context.Context) {
	_ = a.loader.Forget(context.WithoutCancel(ctx), listKey)
}
