// Package catalog is the product feature: the "products" state slice, its
// actions and reducer, memoized selectors, and the effects that talk to the
// product backend through API.
//
// Wiring into a store:
//
//	st := store.New(store.Combine(catalog.Feature()))
//	sel := catalog.NewSelectors()
//	rt := effect.New(st)
//	_ = rt.Register(catalog.Effects(api)...)
//	_ = rt.Start(ctx)
//
//	_ = st.Dispatch(catalog.Load{})
//	products := sel.Products.Select(st.GetState())
//
// Backends live in the memory and postgres subpackages. CachedAPI puts a
// cache in front of any backend.
package catalog
