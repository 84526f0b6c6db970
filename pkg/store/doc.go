// Package store implements a unidirectional state container.
//
// The application state is a single immutable tree ([State]) made of feature
// slices. The only way to change it is to [Store.Dispatch] an [Action]; the
// store runs the root reducer, replaces the tree and notifies subscribers.
//
// # Actions
//
// An action is a value with a [Kind]. Features declare their actions as a closed
// set of structs and switch on the concrete type in their reducer:
//
//	func Reduce(s *State, action store.Action) *State {
//	    switch a := action.(type) {
//	    case ToggleProductCode:
//	        next := *s
//	        next.ShowProductCode = a.Show
//	        return &next
//	    default:
//	        return s
//	    }
//	}
//
// Unknown actions must return the received pointer. [Combine] relies on this to
// keep untouched slices shared between consecutive trees.
//
// # Store
//
// [New] builds a store from a [RootReducer], usually produced by [Combine]:
//
//	st := store.New(store.Combine(
//	    store.NewFeature("products", catalog.InitialState(), catalog.Reduce),
//	))
//	defer st.Dispose()
//
//	unsubscribe := st.Subscribe(func(s *store.State) {
//	    // re-render
//	})
//	defer unsubscribe()
//
//	_ = st.Dispatch(catalog.ToggleProductCode{Show: false})
//
// Dispatch is reentrant: listeners and observers may dispatch again. Nested
// actions are queued and reduced in order once the current action has been
// fully processed, so reductions never interleave.
//
// # Replay
//
// Reducers are pure, so [Replay] over the same actions reproduces the state a
// store reached by dispatching them.
package store
