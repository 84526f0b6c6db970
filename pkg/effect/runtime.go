package effect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/apm/pkg/store"
)

// Source is the part of a store the runtime needs.
type Source interface {
	Dispatch(store.Action) error
	ObserveActions(func(store.Action)) (unsubscribe func())
}

var _ Source = (*store.Store)(nil)

type runState uint8

const (
	idle runState = iota
	running
	stopped
)

// Runtime runs registered effects against a store.
//
// The runtime observes every dispatched action. Each action whose kind
// matches an effect trigger is handed to that effect's policy worker; the
// work itself always runs on its own goroutine, never inside Dispatch. When a
// run settles, its result (or the failure action built by Fail) is dispatched
// back into the store.
type Runtime struct {
	src     Source
	logger  *slog.Logger
	metrics *metrics
	tracer  trace.Tracer

	mu        sync.Mutex
	state     runState
	effects   []*Effect
	routes    map[store.Kind][]route
	cancel    context.CancelFunc
	unobserve func()
	wg        sync.WaitGroup
}

// worker applies a policy to incoming triggers. trigger must not block.
type worker interface {
	trigger(store.Action)
}

type route struct {
	effect *Effect
	worker worker
}

// New creates a runtime for src. Effects are added with Register and start
// reacting after Start.
//
// Example:
//
//	rt := effect.New(st, effect.WithLogger(log), effect.WithRegisterer(prometheus.DefaultRegisterer))
//	if err := rt.Register(catalog.Effects(api)...); err != nil {
//	    return err
//	}
//	if err := rt.Start(ctx); err != nil {
//	    return err
//	}
//	defer rt.Stop(context.Background())
func New(src Source, opts ...Option) *Runtime {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Runtime{
		src:     src,
		logger:  o.logger,
		metrics: newMetrics(o.registerer),
		tracer:  o.tracer,
	}
}

// Register validates and adds effects. Effects can only be registered
// before Start. Either all effects are added or none.
func (r *Runtime) Register(effects ...Effect) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != idle {
		return ErrAlreadyStarted
	}

	names := make(map[string]struct{}, len(r.effects)+len(effects))
	for _, e := range r.effects {
		names[e.Name] = struct{}{}
	}

	added := make([]*Effect, 0, len(effects))
	var errs []error
	for _, e := range effects {
		if err := e.validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := names[e.Name]; dup {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateEffect, e.Name))
			continue
		}
		names[e.Name] = struct{}{}
		e.Kinds = append([]store.Kind(nil), e.Kinds...)
		added = append(added, &e)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	r.effects = append(r.effects, added...)
	return nil
}

// Start begins observing the store. ctx provides values (loggers, trace
// parents) to every run; runs are cancelled by Stop, not by ctx.
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case running:
		return ErrAlreadyStarted
	case stopped:
		return ErrStopped
	}

	base, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r.cancel = cancel
	r.state = running

	r.routes = make(map[store.Kind][]route)
	for _, e := range r.effects {
		rt := route{effect: e, worker: r.newWorker(base, e)}
		for _, k := range e.Kinds {
			r.routes[k] = append(r.routes[k], rt)
		}
	}

	r.unobserve = r.src.ObserveActions(r.observe)

	r.logger.InfoContext(ctx, "effect runtime started", slog.Int("effects", len(r.effects)))
	return nil
}

// Stop detaches from the store, cancels in-flight runs and waits for their
// goroutines to return or for ctx to end. Results that settle after Stop was
// called are discarded. Stop is idempotent.
func (r *Runtime) Stop(ctx context.Context) error {
	r.mu.Lock()
	switch r.state {
	case idle:
		r.state = stopped
		r.mu.Unlock()
		return nil
	case stopped:
		r.mu.Unlock()
		return nil
	}
	r.state = stopped
	r.cancel()
	unobserve := r.unobserve
	r.mu.Unlock()

	unobserve()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.InfoContext(ctx, "effect runtime stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Healthcheck reports whether the runtime is running.
// Compatible with health.CheckFunc.
func (r *Runtime) Healthcheck() func(context.Context) error {
	return func(ctx context.Context) error {
		r.mu.Lock()
		state := r.state
		r.mu.Unlock()

		switch state {
		case idle:
			return ErrNotStarted
		case stopped:
			return ErrStopped
		}
		return ctx.Err()
	}
}

func (r *Runtime) observe(action store.Action) {
	r.mu.Lock()
	if r.state != running {
		r.mu.Unlock()
		return
	}
	routes := r.routes[action.Kind()]
	r.mu.Unlock()

	for _, rt := range routes {
		r.metrics.triggers.WithLabelValues(rt.effect.Name).Inc()
		rt.worker.trigger(action)
	}
}

// spawn runs fn on a tracked goroutine unless the runtime has stopped.
func (r *Runtime) spawn(fn func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != running {
		return false
	}
	r.wg.Go(fn)
	return true
}

func (r *Runtime) stopping() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state != running
}

// execute runs e for trigger and returns the action to dispatch with its
// outcome label. It never panics.
func (r *Runtime) execute(ctx context.Context, e *Effect, trigger store.Action) (store.Action, string) {
	runID := uuid.NewString()
	ctx = withRunID(ctx, runID)
	ctx, span := r.tracer.Start(ctx, "effect."+e.Name, trace.WithAttributes(
		attribute.String("effect.name", e.Name),
		attribute.String("effect.policy", e.Policy.String()),
		attribute.String("effect.trigger", string(trigger.Kind())),
		attribute.String("effect.run_id", runID),
	))
	defer span.End()

	inFlight := r.metrics.inFlight.WithLabelValues(e.Name)
	inFlight.Inc()
	defer inFlight.Dec()

	start := time.Now()
	result, err := r.call(ctx, e, trigger)
	r.metrics.duration.WithLabelValues(e.Name).Observe(time.Since(start).Seconds())

	if err == nil {
		span.SetStatus(codes.Ok, "")
		return result, outcomeSuccess
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	level := slog.LevelWarn
	if ctx.Err() != nil {
		level = slog.LevelDebug
	}
	r.logger.Log(ctx, level, "effect run failed",
		slog.String("effect", e.Name),
		slog.String("trigger", string(trigger.Kind())),
		slog.Any("error", err),
	)
	return r.fail(ctx, e, trigger, err), outcomeFail
}

// call invokes Run and turns panics, nil results and feedback loops into errors.
func (r *Runtime) call(ctx context.Context, e *Effect, trigger store.Action) (result store.Action, err error) {
	defer func() {
		if p := recover(); p != nil {
			result, err = nil, fmt.Errorf("%w: %v", ErrPanic, p)
		}
	}()

	result, err = e.Run(ctx, trigger)
	switch {
	case err != nil:
		return nil, err
	case result == nil:
		return nil, ErrNoResult
	case e.triggeredBy(result.Kind()):
		return nil, fmt.Errorf("%w: %s", ErrFeedbackLoop, result.Kind())
	}
	return result, nil
}

func (r *Runtime) fail(ctx context.Context, e *Effect, trigger store.Action, cause error) (action store.Action) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.ErrorContext(ctx, "effect fail function panicked",
				slog.String("effect", e.Name),
				slog.Any("panic", p),
			)
			action = nil
		}
	}()

	action = e.Fail(trigger, cause)
	if action != nil && e.triggeredBy(action.Kind()) {
		r.logger.ErrorContext(ctx, "effect fail action is one of its triggers",
			slog.String("effect", e.Name),
			slog.String("kind", string(action.Kind())),
		)
		return nil
	}
	return action
}

// deliver dispatches a settled result unless the runtime is stopping.
func (r *Runtime) deliver(ctx context.Context, e *Effect, action store.Action, outcome string) {
	if action == nil {
		r.discard(ctx, e, "no action to dispatch")
		return
	}
	if r.stopping() {
		r.discard(ctx, e, "runtime stopped")
		return
	}
	if err := r.src.Dispatch(action); err != nil {
		r.logger.WarnContext(ctx, "effect result not dispatched",
			slog.String("effect", e.Name),
			slog.String("kind", string(action.Kind())),
			slog.Any("error", err),
		)
		r.metrics.outcomes.WithLabelValues(e.Name, outcomeDiscarded).Inc()
		return
	}
	r.metrics.outcomes.WithLabelValues(e.Name, outcome).Inc()
}

func (r *Runtime) discard(ctx context.Context, e *Effect, reason string) {
	r.metrics.outcomes.WithLabelValues(e.Name, outcomeDiscarded).Inc()
	r.logger.DebugContext(ctx, "effect result discarded",
		slog.String("effect", e.Name),
		slog.String("reason", reason),
	)
}

func (r *Runtime) drop(e *Effect, trigger store.Action) {
	r.metrics.outcomes.WithLabelValues(e.Name, outcomeDropped).Inc()
	r.logger.Debug("effect trigger dropped",
		slog.String("effect", e.Name),
		slog.String("trigger", string(trigger.Kind())),
	)
}
