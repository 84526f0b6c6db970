package selector

import (
	"sync"

	"github.com/dmitrymomot/apm/pkg/store"
)

// Input derives one value from the state tree.
// Raw feature accessors and the Select method of other selectors are inputs.
type Input[T any] func(*store.State) T

// Selector is a memoized projection of the state tree.
//
// It remembers the inputs and the output of its last computation. On the next
// call the inputs are evaluated again; if every input is identical to the
// remembered one (see Same) the cached output is returned without running
// the projection. Callers can therefore treat the output as a stable
// reference for as long as the relevant inputs do not change.
//
// Each Selector owns its cache. Selector is safe for concurrent use.
type Selector[R any] struct {
	inputs  []func(*store.State) any
	project func(args []any) R

	mu       sync.Mutex
	computed bool
	last     []any
	out      R
	runs     int
}

func newSelector[R any](inputs []func(*store.State) any, project func([]any) R) *Selector[R] {
	return &Selector[R]{inputs: inputs, project: project}
}

// Select evaluates the selector against s.
func (sel *Selector[R]) Select(s *store.State) R {
	args := make([]any, len(sel.inputs))
	for i, in := range sel.inputs {
		args[i] = in(s)
	}

	sel.mu.Lock()
	defer sel.mu.Unlock()

	if sel.computed && sameArgs(sel.last, args) {
		return sel.out
	}

	sel.out = sel.project(args)
	sel.last = args
	sel.computed = true
	sel.runs++
	return sel.out
}

// Recomputations reports how many times the projection has run.
func (sel *Selector[R]) Recomputations() int {
	sel.mu.Lock()
	defer sel.mu.Unlock()
	return sel.runs
}

// Reset drops the cached inputs and output.
func (sel *Selector[R]) Reset() {
	sel.mu.Lock()
	defer sel.mu.Unlock()

	var zero R
	sel.computed = false
	sel.last = nil
	sel.out = zero
}

func sameArgs(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Same(a[i], b[i]) {
			return false
		}
	}
	return true
}

func erase[T any](in Input[T]) func(*store.State) any {
	return func(s *store.State) any { return in(s) }
}

// New1 builds a selector from one input and a projection.
//
// Example:
//
//	products := selector.New1(feature, func(s *catalog.State) []catalog.Product {
//	    return s.Products
//	})
func New1[A, R any](a Input[A], project func(A) R) *Selector[R] {
	return newSelector([]func(*store.State) any{erase(a)}, func(args []any) R {
		return project(as[A](args[0]))
	})
}

// New2 builds a selector from two inputs and a projection.
func New2[A, B, R any](a Input[A], b Input[B], project func(A, B) R) *Selector[R] {
	return newSelector([]func(*store.State) any{erase(a), erase(b)}, func(args []any) R {
		return project(as[A](args[0]), as[B](args[1]))
	})
}

// New3 builds a selector from three inputs and a projection.
func New3[A, B, C, R any](a Input[A], b Input[B], c Input[C], project func(A, B, C) R) *Selector[R] {
	return newSelector([]func(*store.State) any{erase(a), erase(b), erase(c)}, func(args []any) R {
		return project(as[A](args[0]), as[B](args[1]), as[C](args[2]))
	})
}

// as converts an erased argument back, mapping a nil interface to the zero value.
func as[T any](v any) T {
	t, _ := v.(T)
	return t
}

// Feature returns the raw accessor for a feature slice.
// When the slice is absent, or holds another type, fallback is returned, so
// selectors built on top never see a nil slice unless fallback is nil.
func Feature[S any](key string, fallback *S) Input[*S] {
	return func(s *store.State) *S {
		if v, ok := store.Get[*S](s, key); ok && v != nil {
			return v
		}
		return fallback
	}
}
