package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loader fills a cache on misses. Concurrent misses for the same key share a
// single call to the load function.
//
// A shared load runs detached from the callers' contexts. A caller that gives
// up gets its own ctx.Err() and leaves; the load is cancelled only when no
// caller waits for it anymore. Forget starts a new generation of the key:
// later misses never join a load started before it, and such a load does not
// write its result back.
//
// Each Loader owns its singleflight group, so keys never collide between
// caches holding different value types.
type Loader[V any] struct {
	cache Cache[V]
	ttl   time.Duration
	group singleflight.Group

	mu      sync.Mutex
	gens    map[string]uint64
	flights map[string]*flight
	nextID  uint64
}

// flight is one shared load and the callers waiting for it.
type flight struct {
	id      string
	gen     uint64
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// NewLoader wraps c. Loaded values are stored with ttl (see Cache for the
// meaning of zero and negative values).
func NewLoader[V any](c Cache[V], ttl time.Duration) *Loader[V] {
	return &Loader[V]{
		cache:   c,
		ttl:     ttl,
		gens:    make(map[string]uint64),
		flights: make(map[string]*flight),
	}
}

// Cache returns the wrapped cache.
func (l *Loader[V]) Cache() Cache[V] { return l.cache }

// GetOrSet returns the cached value for key, or calls load and caches its
// result. Errors from load are returned and nothing is cached. A failure to
// write the cache is ignored; the loaded value is still returned.
//
// Example:
//
//	products, err := loader.GetOrSet(ctx, "products", func(ctx context.Context) ([]catalog.Product, error) {
//	    return api.List(ctx)
//	})
func (l *Loader[V]) GetOrSet(ctx context.Context, key string, load func(ctx context.Context) (V, error)) (V, error) {
	var zero V
	if v, err := l.cache.Get(ctx, key); err == nil {
		return v, nil
	}

	f := l.join(ctx, key)
	defer l.leave(key, f)

	ch := l.group.DoChan(f.id, func() (any, error) {
		v, err := load(f.ctx)
		if err != nil {
			return nil, err
		}
		l.store(f, key, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(V)
		return v, nil
	}
}

// Forget drops key from the cache and starts a new generation for it, so the
// next GetOrSet starts a fresh load and loads in progress are not cached.
func (l *Loader[V]) Forget(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.gens[key]++
	delete(l.flights, key)
	return l.cache.Delete(ctx, key)
}

// join registers the caller on the current flight of key, starting a new
// flight when there is none.
func (l *Loader[V]) join(ctx context.Context, key string) *flight {
	l.mu.Lock()
	defer l.mu.Unlock()

	f := l.flights[key]
	if f == nil {
		l.nextID++
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{
			id:     key + "\x00" + strconv.FormatUint(l.nextID, 10),
			gen:    l.gens[key],
			ctx:    fctx,
			cancel: cancel,
		}
		l.flights[key] = f
	}
	f.waiters++
	return f
}

// leave unregisters a caller. The last caller out cancels the flight.
func (l *Loader[V]) leave(key string, f *flight) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if l.flights[key] == f {
		delete(l.flights, key)
	}
}

// store writes v unless key was forgotten since the flight started.
func (l *Loader[V]) store(f *flight, key string, v V) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.gens[key] != f.gen {
		return
	}
	_ = l.cache.Set(context.WithoutCancel(f.ctx), key, v, l.ttl)
}
