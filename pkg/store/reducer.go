package store

// Reducer computes the next slice from the current slice and an action.
//
// Reducers must be pure: no I/O, no randomness, no clock. They never modify
// the slice they receive; a change is expressed by returning a new pointer.
// Returning the received pointer means "unchanged", which is the required
// answer for every action the reducer does not handle.
//
// The state argument is nil when the slice does not exist yet.
type Reducer[S any] func(state *S, action Action) *S

// RootReducer reduces the whole state tree.
type RootReducer func(state *State, action Action) *State

// Feature owns one slice of the state tree.
type Feature interface {
	// Key is the stable slice key.
	Key() string

	// Reduce applies the feature reducer to the raw slice value.
	// A missing or mistyped slice is treated as nil.
	Reduce(slice any, action Action) any
}

type feature[S any] struct {
	key     string
	initial *S
	reduce  Reducer[S]
}

// NewFeature binds a typed reducer to a slice key.
// When the slice is absent the reducer receives initial instead of nil,
// so feature reducers only have to deal with a nil state if initial is nil.
//
// Example:
//
//	products := store.NewFeature("products", &catalog.State{ShowProductCode: true}, catalog.Reduce)
func NewFeature[S any](key string, initial *S, reduce Reducer[S]) Feature {
	return &feature[S]{key: key, initial: initial, reduce: reduce}
}

func (f *feature[S]) Key() string { return f.key }

func (f *feature[S]) Reduce(slice any, action Action) any {
	state, _ := slice.(*S)
	if state == nil {
		state = f.initial
	}
	return f.reduce(state, action)
}

// Combine builds a root reducer from independent feature reducers.
//
// Each feature receives only its own slice plus the full action and returns
// only its own slice. Slices without a registered feature are carried over
// untouched. When no feature changes its slice the previous *State is returned
// as is; otherwise a new *State is built sharing every untouched slice.
//
// When two features share a key the last one wins.
func Combine(features ...Feature) RootReducer {
	byKey := make(map[string]Feature, len(features))
	order := make([]string, 0, len(features))
	for _, f := range features {
		if f == nil {
			continue
		}
		if _, dup := byKey[f.Key()]; !dup {
			order = append(order, f.Key())
		}
		byKey[f.Key()] = f
	}

	return func(state *State, action Action) *State {
		var changed map[string]any
		for _, key := range order {
			prev, ok := state.Slice(key)
			next := byKey[key].Reduce(prev, action)
			if ok && sameSlice(prev, next) {
				continue
			}
			if changed == nil {
				changed = make(map[string]any, len(order))
			}
			changed[key] = next
		}
		if changed == nil {
			if state == nil {
				return NewState(nil)
			}
			return state
		}
		return state.with(changed)
	}
}

// Replay folds root over actions starting from initial.
// Dispatching the same actions into a Store built from the same reducer and
// initial state yields an equal state tree.
func Replay(root RootReducer, initial *State, actions ...Action) *State {
	state := initial
	for _, a := range actions {
		if a == nil {
			continue
		}
		state = root(state, a)
	}
	return state
}

// sameSlice reports whether a reducer returned the slice it was given.
// Slices produced by NewFeature are pointers, so interface equality compares
// the pointers. Custom features returning non-comparable values always count
// as changed.
func sameSlice(prev, next any) (same bool) {
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return prev == next
}
