package store

import (
	"maps"
	"slices"
)

// State is the immutable application state tree.
// It holds one slice per feature, looked up by the feature key.
//
// A *State is never modified after construction. Reductions produce a new
// *State that shares every untouched slice with its predecessor.
// A nil *State behaves as an empty tree.
type State struct {
	slices map[string]any
}

// NewState builds a state tree from the given slices.
// The map is copied; later changes to it do not affect the state.
func NewState(slices map[string]any) *State {
	return &State{slices: maps.Clone(slices)}
}

// Slice returns the slice stored under key.
// ok is false when the slice is absent (for example, not loaded yet).
func (s *State) Slice(key string) (v any, ok bool) {
	if s == nil {
		return nil, false
	}
	v, ok = s.slices[key]
	return v, ok
}

// Keys returns the sorted keys of all slices in the tree.
func (s *State) Keys() []string {
	if s == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(s.slices))
}

// Len returns the number of slices in the tree.
func (s *State) Len() int {
	if s == nil {
		return 0
	}
	return len(s.slices)
}

// with returns a copy of s with the given slices replaced.
func (s *State) with(changed map[string]any) *State {
	next := make(map[string]any, s.Len()+len(changed))
	if s != nil {
		maps.Copy(next, s.slices)
	}
	maps.Copy(next, changed)
	return &State{slices: next}
}

// Get returns the slice stored under key as S.
// ok is false when the slice is absent or holds a different type.
func Get[S any](s *State, key string) (v S, ok bool) {
	raw, found := s.Slice(key)
	if !found {
		return v, false
	}
	v, ok = raw.(S)
	return v, ok
}
