// Package effect runs side effects in response to store actions.
//
// An [Effect] names the action kinds that trigger it, a [Policy] for
// overlapping triggers and two functions: Run performs the asynchronous work
// and returns the action to dispatch on success, Fail builds the action to
// dispatch when Run errors. Every executed trigger yields exactly one derived
// action. Errors, panics, nil results and results that would re-trigger the
// same effect are all turned into the Fail action.
//
//	rt := effect.New(st)
//	err := rt.Register(
//	    effect.On(effect.Switch, loadProducts, loadFailed),
//	    effect.On(effect.Concat, updateProduct, updateFailed),
//	)
//	err = rt.Start(ctx)
//	defer rt.Stop(context.Background())
//
// Policies:
//
//   - [Switch] keeps only the latest trigger; earlier runs are cancelled and
//     their late results dropped.
//   - [Concat] queues triggers and runs them one by one.
//   - [Merge] runs triggers concurrently, up to Effect.MaxConcurrency.
//   - [Exhaust] ignores triggers while a run is in flight.
//
// Runs never execute inside Dispatch; a result is dispatched only after its
// run settles. After [Runtime.Stop] no further results reach the store.
//
// Each run carries a uuid run id in its context ([RunID]) and an
// OpenTelemetry span. [RunIDExtractor] adds the id to log records.
package effect
