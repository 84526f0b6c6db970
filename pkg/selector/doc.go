// Package selector derives read models from a store.State with memoization.
//
// A [Selector] is built from input functions and a projection:
//
//	feature  := selector.Feature(catalog.FeatureKey, catalog.InitialState())
//	products := selector.New1(feature, func(s *catalog.State) []catalog.Product { return s.Products })
//	visible  := selector.New2(products.Select, filter.Select, catalog.FilterProducts)
//
// The projection only runs when at least one input changed by reference
// identity ([Same]). Reducers produce new slices only for the parts they
// change, so a selector over an untouched slice keeps returning the same
// output across dispatches.
//
// [Family] keeps a bounded set of selectors keyed by a parameter, and
// [Subscribe] delivers a selector's output to a callback whenever it changes.
package selector
