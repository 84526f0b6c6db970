package store

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Store holds the application state tree.
//
// Dispatch is the only way to change the state. Each dispatched action is
// reduced synchronously by the root reducer, the resulting state replaces the
// current one, and then listeners and action observers are notified.
//
// Dispatch is reentrant through a FIFO queue: an action dispatched while
// another one is being processed (from a listener, an observer, an effect or
// another goroutine) is appended to the queue and reduced by the goroutine
// that is already draining it, right after the current action. Reductions
// never interleave and no action is dropped.
//
// Store is safe for concurrent use.
type Store struct {
	reduce  RootReducer
	logger  *slog.Logger
	metrics *metrics

	mu        sync.Mutex
	state     *State
	queue     []Action
	draining  bool
	disposed  bool
	listeners []*listener[*State]
	observers []*listener[Action]
}

// listener is a registered callback. active is cleared on unsubscribe so that
// a snapshot taken before the removal never calls it again.
type listener[T any] struct {
	fn     func(T)
	active atomic.Bool
}

// New creates a store and materializes the initial state by reducing Init.
//
// Example:
//
//	st := store.New(store.Combine(
//	    store.NewFeature(catalog.FeatureKey, catalog.InitialState(), catalog.Reduce),
//	    store.NewFeature(identity.FeatureKey, identity.InitialState(), identity.Reduce),
//	), store.WithLogger(log))
//	defer st.Dispose()
func New(root RootReducer, opts ...Option) *Store {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	s := &Store{
		reduce:  root,
		logger:  o.logger,
		metrics: newMetrics(o.registerer),
	}
	s.state = root(o.initial, Init{})
	if s.state == nil {
		s.state = NewState(nil)
	}
	return s
}

// GetState returns the current state snapshot.
func (s *Store) GetState() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch reduces action and notifies listeners.
//
// If no other dispatch is in progress the action is fully processed, including
// notifications, before Dispatch returns. Otherwise it is queued and processed
// by the dispatch already in progress.
func (s *Store) Dispatch(action Action) error {
	if action == nil {
		return ErrNilAction
	}

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	s.queue = append(s.queue, action)
	if s.draining {
		s.mu.Unlock()
		return nil
	}
	s.draining = true
	s.drain()
	return nil
}

// drain processes the queue until it is empty.
// Called with s.mu held; returns with s.mu released.
func (s *Store) drain() {
	for len(s.queue) > 0 && !s.disposed {
		action := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]

		prev := s.state
		next := s.reduce(prev, action)
		if next == nil {
			next = prev
		}
		s.state = next
		listeners := s.listeners
		observers := s.observers
		s.mu.Unlock()

		s.metrics.dispatched.WithLabelValues(string(action.Kind())).Inc()
		s.logger.Debug("action dispatched",
			slog.String("kind", string(action.Kind())),
			slog.Bool("changed", next != prev),
		)

		for _, l := range listeners {
			notify(s.logger, l, next, action)
		}
		for _, o := range observers {
			notify(s.logger, o, action, action)
		}

		s.mu.Lock()
	}
	s.queue = nil
	s.draining = false
	s.mu.Unlock()
}

// notify calls a listener unless it was removed, recovering panics.
func notify[T any](log *slog.Logger, l *listener[T], v T, action Action) {
	if !l.active.Load() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("store listener panicked",
				slog.String("kind", string(action.Kind())),
				slog.Any("panic", r),
			)
		}
	}()
	l.fn(v)
}

// Subscribe registers fn to be called with the new state after every dispatch.
// The returned function removes the subscription; it is idempotent and may be
// called from inside fn.
func (s *Store) Subscribe(fn func(*State)) (unsubscribe func()) {
	return subscribe(s, &s.listeners, fn)
}

// ObserveActions registers fn to be called with every dispatched action,
// after the action has been reduced and state listeners have been notified.
// The effect runtime is built on this hook.
func (s *Store) ObserveActions(fn func(Action)) (unsubscribe func()) {
	return subscribe(s, &s.observers, fn)
}

func subscribe[T any](s *Store, set *[]*listener[T], fn func(T)) func() {
	if fn == nil {
		return func() {}
	}

	l := &listener[T]{fn: fn}
	l.active.Store(true)

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return func() {}
	}
	// Copy on write: drains iterate over the slice they captured.
	*set = append(slices.Clip(*set), l)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.active.Store(false)
			s.mu.Lock()
			defer s.mu.Unlock()
			*set = slices.DeleteFunc(slices.Clone(*set), func(x *listener[T]) bool { return x == l })
		})
	}
}

// Dispose releases all listeners and rejects further dispatches.
// Actions still queued are discarded. Dispose is idempotent.
func (s *Store) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return
	}
	s.disposed = true
	for _, l := range s.listeners {
		l.active.Store(false)
	}
	for _, o := range s.observers {
		o.active.Store(false)
	}
	s.listeners = nil
	s.observers = nil
}

// Healthcheck reports whether the store still accepts dispatches.
// Compatible with health.CheckFunc.
func (s *Store) Healthcheck() func(context.Context) error {
	return func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.disposed {
			return ErrDisposed
		}
		return ctx.Err()
	}
}

type metrics struct {
	dispatched *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apm",
			Subsystem: "store",
			Name:      "actions_dispatched_total",
			Help:      "Number of actions reduced by the store, by kind.",
		}, []string{"kind"}),
	}
	if reg != nil {
		if err := reg.Register(m.dispatched); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
					m.dispatched = existing
				}
			}
		}
	}
	return m
}
