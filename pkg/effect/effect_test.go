package effect_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/apm/pkg/effect"
	"github.com/dmitrymomot/apm/pkg/store"
)

type fetch struct{ ID int }

func (fetch) Kind() store.Kind { return "[Test] Fetch" }

type fetched struct{ ID int }

func (fetched) Kind() store.Kind { return "[Test] Fetched" }

type fetchFailed struct {
	ID    int
	Error string
}

func (fetchFailed) Kind() store.Kind { return "[Test] Fetch Failed" }

func failFetch(trigger fetch, err error) store.Action {
	return fetchFailed{ID: trigger.ID, Error: effect.ErrorMessage(err)}
}

// recorder collects derived actions dispatched into the store.
type recorder struct {
	mu      sync.Mutex
	actions []store.Action
}

func (r *recorder) observe(a store.Action) {
	switch a.(type) {
	case fetched, fetchFailed:
		r.mu.Lock()
		r.actions = append(r.actions, a)
		r.mu.Unlock()
	}
}

func (r *recorder) snapshot() []store.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]store.Action(nil), r.actions...)
}

func (r *recorder) len() int { return len(r.snapshot()) }

type harness struct {
	st  *store.Store
	rt  *effect.Runtime
	rec *recorder
	reg *prometheus.Registry
}

func newHarness(t *testing.T, effects ...effect.Effect) *harness {
	t.Helper()

	st := store.New(store.Combine())
	rec := &recorder{}
	st.ObserveActions(rec.observe)

	reg := prometheus.NewRegistry()
	rt := effect.New(st, effect.WithRegisterer(reg))
	require.NoError(t, rt.Register(effects...))
	require.NoError(t, rt.Start(context.Background()))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, rt.Stop(ctx))
		st.Dispose()
	})
	return &harness{st: st, rt: rt, rec: rec, reg: reg}
}

func outcomes(t *testing.T, reg *prometheus.Registry, lines ...string) error {
	t.Helper()
	expected := "# HELP apm_effect_outcomes_total Effect triggers by outcome: success, fail, discarded or dropped.\n" +
		"# TYPE apm_effect_outcomes_total counter\n" + strings.Join(lines, "\n") + "\n"
	return testutil.GatherAndCompare(reg, strings.NewReader(expected), "apm_effect_outcomes_total")
}

func TestRuntime_Register(t *testing.T) {
	t.Parallel()

	ok := effect.On(effect.Merge,
		func(context.Context, fetch) (store.Action, error) { return fetched{}, nil },
		failFetch,
	)

	t.Run("rejects missing policy", func(t *testing.T) {
		t.Parallel()

		rt := effect.New(store.New(store.Combine()))
		bad := ok
		bad.Policy = 0
		require.ErrorIs(t, rt.Register(bad), effect.ErrInvalidPolicy)
	})

	t.Run("rejects incomplete effects", func(t *testing.T) {
		t.Parallel()

		rt := effect.New(store.New(store.Combine()))
		noRun, noFail, noKinds, noName := ok, ok, ok, ok
		noRun.Run = nil
		noFail.Fail = nil
		noKinds.Kinds = nil
		noName.Name = ""

		err := rt.Register(noRun, noFail, noKinds, noName)
		require.ErrorIs(t, err, effect.ErrNoRun)
		require.ErrorIs(t, err, effect.ErrNoFail)
		require.ErrorIs(t, err, effect.ErrNoTriggers)
		require.ErrorIs(t, err, effect.ErrNoName)
	})

	t.Run("rejects duplicates and registers nothing on error", func(t *testing.T) {
		t.Parallel()

		rt := effect.New(store.New(store.Combine()))
		require.ErrorIs(t, rt.Register(ok, ok), effect.ErrDuplicateEffect)
		require.NoError(t, rt.Register(ok))
	})

	t.Run("rejects registration after start", func(t *testing.T) {
		t.Parallel()

		rt := effect.New(store.New(store.Combine()))
		require.NoError(t, rt.Start(context.Background()))
		defer rt.Stop(context.Background())

		require.ErrorIs(t, rt.Register(ok), effect.ErrAlreadyStarted)
		require.ErrorIs(t, rt.Start(context.Background()), effect.ErrAlreadyStarted)
	})

	t.Run("on derives name and trigger kind", func(t *testing.T) {
		t.Parallel()

		require.Equal(t, "[Test] Fetch", ok.Name)
		require.Equal(t, []store.Kind{"[Test] Fetch"}, ok.Kinds)
		require.Equal(t, "merge", ok.Policy.String())
	})
}

func TestRuntime_Run(t *testing.T) {
	t.Parallel()

	t.Run("runs outside dispatch and dispatches the result", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		h := newHarness(t, effect.On(effect.Merge,
			func(_ context.Context, f fetch) (store.Action, error) {
				<-release
				return fetched{ID: f.ID}, nil
			},
			failFetch,
		))

		require.NoError(t, h.st.Dispatch(fetch{ID: 1}))
		require.Equal(t, 0, h.rec.len(), "dispatch must not wait for the run")

		close(release)
		require.Eventually(t, func() bool { return h.rec.len() == 1 }, time.Second, time.Millisecond)
		require.Equal(t, []store.Action{fetched{ID: 1}}, h.rec.snapshot())
	})

	t.Run("run id is available to the run", func(t *testing.T) {
		t.Parallel()

		ids := make(chan string, 1)
		h := newHarness(t, effect.On(effect.Merge,
			func(ctx context.Context, f fetch) (store.Action, error) {
				id, _ := effect.RunID(ctx)
				ids <- id
				return fetched{ID: f.ID}, nil
			},
			failFetch,
		))

		require.NoError(t, h.st.Dispatch(fetch{ID: 1}))
		select {
		case id := <-ids:
			require.Len(t, id, 36)
		case <-time.After(time.Second):
			t.Fatal("run did not start")
		}
	})

	failures := []struct {
		name string
		run  func(context.Context, fetch) (store.Action, error)
		msg  string
	}{
		{"error", func(context.Context, fetch) (store.Action, error) { return nil, errors.New("server down") }, "server down"},
		{"panic", func(context.Context, fetch) (store.Action, error) { panic("boom") }, "unexpected error"},
		{"nil result", func(context.Context, fetch) (store.Action, error) { return nil, nil }, "unexpected error"},
		{"feedback loop", func(context.Context, fetch) (store.Action, error) { return fetch{ID: 9}, nil }, "unexpected error"},
		{"deadline", func(context.Context, fetch) (store.Action, error) { return nil, context.DeadlineExceeded }, "request timed out"},
	}
	for _, tt := range failures {
		t.Run("converts "+tt.name+" into the fail action", func(t *testing.T) {
			t.Parallel()

			h := newHarness(t, effect.On(effect.Merge, tt.run, failFetch))

			require.NoError(t, h.st.Dispatch(fetch{ID: 3}))
			require.Eventually(t, func() bool { return h.rec.len() == 1 }, time.Second, time.Millisecond)
			require.Equal(t, []store.Action{fetchFailed{ID: 3, Error: tt.msg}}, h.rec.snapshot())
		})
	}
}

func TestRuntime_Switch(t *testing.T) {
	t.Parallel()

	t.Run("cancels the in-flight run", func(t *testing.T) {
		t.Parallel()

		var cancelled atomic.Int32
		h := newHarness(t, effect.On(effect.Switch,
			func(ctx context.Context, f fetch) (store.Action, error) {
				if f.ID == 1 {
					<-ctx.Done()
					cancelled.Add(1)
					return nil, ctx.Err()
				}
				return fetched{ID: f.ID}, nil
			},
			failFetch,
		))

		require.NoError(t, h.st.Dispatch(fetch{ID: 1}))
		require.NoError(t, h.st.Dispatch(fetch{ID: 2}))

		require.Eventually(t, func() bool {
			return h.rec.len() == 1 && cancelled.Load() == 1
		}, time.Second, time.Millisecond)
		require.Equal(t, []store.Action{fetched{ID: 2}}, h.rec.snapshot())
	})

	t.Run("discards a superseded result that ignores cancellation", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		h := newHarness(t, effect.On(effect.Switch,
			func(_ context.Context, f fetch) (store.Action, error) {
				if f.ID == 1 {
					<-release
				}
				return fetched{ID: f.ID}, nil
			},
			failFetch,
		))

		require.NoError(t, h.st.Dispatch(fetch{ID: 1}))
		require.NoError(t, h.st.Dispatch(fetch{ID: 2}))
		require.Eventually(t, func() bool { return h.rec.len() == 1 }, time.Second, time.Millisecond)

		close(release)
		require.Eventually(t, func() bool {
			return outcomes(t, h.reg,
				`apm_effect_outcomes_total{effect="[Test] Fetch",outcome="discarded"} 1`,
				`apm_effect_outcomes_total{effect="[Test] Fetch",outcome="success"} 1`,
			) == nil
		}, time.Second, 5*time.Millisecond)
		require.Equal(t, []store.Action{fetched{ID: 2}}, h.rec.snapshot())
	})
}

func TestRuntime_Concat(t *testing.T) {
	t.Parallel()

	var running, maxRunning atomic.Int32
	h := newHarness(t, effect.On(effect.Concat,
		func(_ context.Context, f fetch) (store.Action, error) {
			n := running.Add(1)
			defer running.Add(-1)
			for {
				m := maxRunning.Load()
				if n <= m || maxRunning.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(time.Duration(5-f.ID) * time.Millisecond)
			return fetched{ID: f.ID}, nil
		},
		failFetch,
	))

	for id := 1; id <= 4; id++ {
		require.NoError(t, h.st.Dispatch(fetch{ID: id}))
	}

	require.Eventually(t, func() bool { return h.rec.len() == 4 }, time.Second, time.Millisecond)
	require.Equal(t, []store.Action{fetched{ID: 1}, fetched{ID: 2}, fetched{ID: 3}, fetched{ID: 4}}, h.rec.snapshot())
	require.Equal(t, int32(1), maxRunning.Load())
}

func TestRuntime_Merge(t *testing.T) {
	t.Parallel()

	t.Run("results arrive in completion order", func(t *testing.T) {
		t.Parallel()

		releaseFirst := make(chan struct{})
		h := newHarness(t, effect.On(effect.Merge,
			func(_ context.Context, f fetch) (store.Action, error) {
				if f.ID == 1 {
					<-releaseFirst
				}
				return fetched{ID: f.ID}, nil
			},
			failFetch,
		))

		require.NoError(t, h.st.Dispatch(fetch{ID: 1}))
		require.NoError(t, h.st.Dispatch(fetch{ID: 2}))
		require.Eventually(t, func() bool { return h.rec.len() == 1 }, time.Second, time.Millisecond)

		close(releaseFirst)
		require.Eventually(t, func() bool { return h.rec.len() == 2 }, time.Second, time.Millisecond)
		require.Equal(t, []store.Action{fetched{ID: 2}, fetched{ID: 1}}, h.rec.snapshot())
	})

	t.Run("max concurrency bounds parallel runs", func(t *testing.T) {
		t.Parallel()

		var running, maxRunning atomic.Int32
		e := effect.On(effect.Merge,
			func(_ context.Context, f fetch) (store.Action, error) {
				n := running.Add(1)
				defer running.Add(-1)
				for {
					m := maxRunning.Load()
					if n <= m || maxRunning.CompareAndSwap(m, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				return fetched{ID: f.ID}, nil
			},
			failFetch,
		)
		e.MaxConcurrency = 2
		h := newHarness(t, e)

		for id := range 6 {
			require.NoError(t, h.st.Dispatch(fetch{ID: id}))
		}

		require.Eventually(t, func() bool { return h.rec.len() == 6 }, time.Second, time.Millisecond)
		require.LessOrEqual(t, maxRunning.Load(), int32(2))
	})
}

func TestRuntime_Exhaust(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	var runs atomic.Int32
	h := newHarness(t, effect.On(effect.Exhaust,
		func(_ context.Context, f fetch) (store.Action, error) {
			runs.Add(1)
			<-release
			return fetched{ID: f.ID}, nil
		},
		failFetch,
	))

	require.NoError(t, h.st.Dispatch(fetch{ID: 1}))
	require.NoError(t, h.st.Dispatch(fetch{ID: 2}))
	require.NoError(t, h.st.Dispatch(fetch{ID: 3}))

	close(release)
	require.Eventually(t, func() bool { return h.rec.len() == 1 }, time.Second, time.Millisecond)
	require.Equal(t, []store.Action{fetched{ID: 1}}, h.rec.snapshot())
	require.Equal(t, int32(1), runs.Load())

	require.NoError(t, h.st.Dispatch(fetch{ID: 4}))
	require.Eventually(t, func() bool { return h.rec.len() == 2 }, time.Second, time.Millisecond)
}

func TestRuntime_Stop(t *testing.T) {
	t.Parallel()

	t.Run("discards results settling after stop", func(t *testing.T) {
		t.Parallel()

		st := store.New(store.Combine())
		defer st.Dispose()
		rec := &recorder{}
		st.ObserveActions(rec.observe)

		started := make(chan struct{})
		rt := effect.New(st)
		require.NoError(t, rt.Register(effect.On(effect.Merge,
			func(ctx context.Context, f fetch) (store.Action, error) {
				close(started)
				<-ctx.Done()
				return fetched{ID: f.ID}, nil
			},
			failFetch,
		)))
		require.NoError(t, rt.Start(context.Background()))

		require.NoError(t, st.Dispatch(fetch{ID: 1}))
		<-started

		require.NoError(t, rt.Stop(context.Background()))
		require.NoError(t, rt.Stop(context.Background()))
		require.NoError(t, st.Dispatch(fetch{ID: 2}))

		require.Empty(t, rec.snapshot())
		require.ErrorIs(t, rt.Healthcheck()(context.Background()), effect.ErrStopped)
		require.ErrorIs(t, rt.Start(context.Background()), effect.ErrStopped)
	})

	t.Run("healthcheck follows the lifecycle", func(t *testing.T) {
		t.Parallel()

		rt := effect.New(store.New(store.Combine()))
		check := rt.Healthcheck()

		require.ErrorIs(t, check(context.Background()), effect.ErrNotStarted)
		require.NoError(t, rt.Start(context.Background()))
		require.NoError(t, check(context.Background()))
		require.NoError(t, rt.Stop(context.Background()))
		require.ErrorIs(t, check(context.Background()), effect.ErrStopped)
	})
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	require.Empty(t, effect.ErrorMessage(nil))
	require.Equal(t, "not found", effect.ErrorMessage(errors.New("not found")))
	require.Equal(t, "request cancelled", effect.ErrorMessage(context.Canceled))
	require.Equal(t, "unexpected error", effect.ErrorMessage(effect.ErrNoResult))
}
