package selector

import (
	"sync"

	"github.com/dmitrymomot/apm/pkg/store"
)

// Source is the part of a store needed to follow a selector.
type Source interface {
	GetState() *store.State
	Subscribe(func(*store.State)) (unsubscribe func())
}

// Subscribe calls fn with the current output of sel and then again every time
// the output changes (by Same). State changes that leave the output identical
// are not delivered.
//
// Deliveries never overlap and never go back in time: each one evaluates sel
// against the latest state. A change that arrives while fn runs, from fn
// itself or from another goroutine, is delivered after fn returns.
//
// The caller owns the returned function and must call it once it is no longer
// interested, otherwise the subscription lives as long as the store.
func Subscribe[R any](src Source, sel *Selector[R], fn func(R)) (unsubscribe func()) {
	var (
		mu         sync.Mutex
		last       R
		seen       bool
		delivering bool
		dirty      bool
		stopped    bool
	)

	emit := func() {
		mu.Lock()
		if delivering {
			dirty = true
			mu.Unlock()
			return
		}
		delivering = true
		mu.Unlock()

		defer func() {
			if r := recover(); r != nil {
				mu.Lock()
				delivering = false
				mu.Unlock()
				panic(r)
			}
		}()

		for {
			mu.Lock()
			dirty = false
			mu.Unlock()

			v := sel.Select(src.GetState())

			mu.Lock()
			changed := !stopped && (!seen || !Same(last, v))
			if changed {
				last, seen = v, true
			}
			mu.Unlock()

			if changed {
				fn(v)
			}

			mu.Lock()
			if !dirty || stopped {
				delivering = false
				mu.Unlock()
				return
			}
			mu.Unlock()
		}
	}

	detach := src.Subscribe(func(*store.State) { emit() })
	emit()
	return func() {
		mu.Lock()
		stopped = true
		mu.Unlock()
		detach()
	}
}
