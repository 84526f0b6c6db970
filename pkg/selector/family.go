package selector

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/apm/pkg/cache"
	"github.com/dmitrymomot/apm/pkg/store"
)

const defaultFamilySize = 128

// Family keeps one memoized selector per parameter, for projections that
// depend on an argument such as "product by id".
//
// Members are created on first use and kept in an LRU cache; the least
// recently used member is dropped once the family holds maxEntries selectors.
// Keys are identified by their %#v representation.
type Family[K comparable, R any] struct {
	factory func(K) *Selector[R]
	members *cache.Memory[*Selector[R]]
	loader  *cache.Loader[*Selector[R]]
}

// NewFamily creates a family whose members are built by factory.
// A non-positive maxEntries selects a default of 128.
//
// Example:
//
//	byID := selector.NewFamily(func(id int) *selector.Selector[*Product] {
//	    return selector.New1(products.Select, func(ps []Product) *Product { return find(ps, id) })
//	}, 0)
//
//	p := byID.Select(st.GetState(), 7)
func NewFamily[K comparable, R any](factory func(K) *Selector[R], maxEntries int) *Family[K, R] {
	if maxEntries <= 0 {
		maxEntries = defaultFamilySize
	}
	members := cache.NewMemory[*Selector[R]](cache.WithMaxEntries(maxEntries))
	return &Family[K, R]{
		factory: factory,
		members: members,
		loader:  cache.NewLoader[*Selector[R]](members, -1),
	}
}

// For returns the member selector for key, creating it if needed.
func (f *Family[K, R]) For(key K) *Selector[R] {
	sel, err := f.loader.GetOrSet(context.Background(), fmt.Sprintf("%#v", key),
		func(context.Context) (*Selector[R], error) {
			return f.factory(key), nil
		})
	if err != nil || sel == nil {
		return f.factory(key)
	}
	return sel
}

// Select evaluates the member for key against s.
func (f *Family[K, R]) Select(s *store.State, key K) R {
	return f.For(key).Select(s)
}

// Len returns the number of live members.
func (f *Family[K, R]) Len() int {
	return f.members.Len()
}

// Close releases the member cache. Members requested afterwards are built
// on every call.
func (f *Family[K, R]) Close() error {
	return f.members.Close()
}
