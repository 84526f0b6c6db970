package effect

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/dmitrymomot/apm/pkg/store"
)

// newWorker builds the policy worker for e. Called from Start with r.mu held.
func (r *Runtime) newWorker(base context.Context, e *Effect) worker {
	switch e.Policy {
	case Switch:
		return &switchWorker{r: r, e: e, base: base}
	case Concat:
		w := &concatWorker{r: r, e: e, base: base, wake: make(chan struct{}, 1)}
		r.wg.Go(w.loop)
		return w
	case Exhaust:
		return &exhaustWorker{r: r, e: e, base: base}
	default:
		w := &mergeWorker{r: r, e: e, base: base}
		if e.MaxConcurrency > 0 {
			w.sem = semaphore.NewWeighted(e.MaxConcurrency)
		}
		return w
	}
}

// switchWorker keeps only the latest run. Every trigger cancels the previous
// run and bumps the generation; a run whose generation is no longer current
// is discarded when it settles.
type switchWorker struct {
	r    *Runtime
	e    *Effect
	base context.Context

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

func (w *switchWorker) trigger(action store.Action) {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	w.gen++
	gen := w.gen
	ctx, cancel := context.WithCancel(w.base)
	w.cancel = cancel
	w.mu.Unlock()

	spawned := w.r.spawn(func() {
		defer cancel()

		out, outcome := w.r.execute(ctx, w.e, action)
		if !w.current(gen) {
			w.r.discard(ctx, w.e, "superseded")
			return
		}
		w.r.deliver(ctx, w.e, out, outcome)
	})
	if !spawned {
		cancel()
	}
}

func (w *switchWorker) current(gen uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.gen == gen
}

// concatWorker runs triggers one at a time in arrival order.
type concatWorker struct {
	r    *Runtime
	e    *Effect
	base context.Context
	wake chan struct{}

	mu      sync.Mutex
	pending []store.Action
}

func (w *concatWorker) trigger(action store.Action) {
	w.mu.Lock()
	w.pending = append(w.pending, action)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *concatWorker) next() (store.Action, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.pending) == 0 {
		return nil, false
	}
	action := w.pending[0]
	w.pending[0] = nil
	w.pending = w.pending[1:]
	return action, true
}

func (w *concatWorker) loop() {
	for {
		select {
		case <-w.base.Done():
			for {
				if _, ok := w.next(); !ok {
					return
				}
				w.r.discard(w.base, w.e, "runtime stopped")
			}
		case <-w.wake:
		}

		for w.base.Err() == nil {
			action, ok := w.next()
			if !ok {
				break
			}
			out, outcome := w.r.execute(w.base, w.e, action)
			w.r.deliver(w.base, w.e, out, outcome)
		}
	}
}

// mergeWorker runs every trigger concurrently, optionally bounded by a
// weighted semaphore.
type mergeWorker struct {
	r    *Runtime
	e    *Effect
	base context.Context
	sem  *semaphore.Weighted
}

func (w *mergeWorker) trigger(action store.Action) {
	w.r.spawn(func() {
		if w.sem != nil {
			if err := w.sem.Acquire(w.base, 1); err != nil {
				w.r.discard(w.base, w.e, "runtime stopped")
				return
			}
			defer w.sem.Release(1)
		}
		out, outcome := w.r.execute(w.base, w.e, action)
		w.r.deliver(w.base, w.e, out, outcome)
	})
}

// exhaustWorker drops triggers while a run is in flight.
type exhaustWorker struct {
	r    *Runtime
	e    *Effect
	base context.Context
	busy atomic.Bool
}

func (w *exhaustWorker) trigger(action store.Action) {
	if !w.busy.CompareAndSwap(false, true) {
		w.r.drop(w.e, action)
		return
	}

	spawned := w.r.spawn(func() {
		out, outcome := w.r.execute(w.base, w.e, action)
		w.busy.Store(false)
		w.r.deliver(w.base, w.e, out, outcome)
	})
	if !spawned {
		w.busy.Store(false)
	}
}
