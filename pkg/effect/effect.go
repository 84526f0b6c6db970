package effect

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/apm/pkg/store"
)

// Effect reacts to actions of the given kinds by running asynchronous work
// and dispatching exactly one derived action per executed trigger.
type Effect struct {
	// Name identifies the effect in logs, metrics and spans. Unique per runtime.
	Name string

	// Kinds lists the trigger action kinds.
	Kinds []store.Kind

	// Policy is mandatory; the zero value is rejected by Register.
	Policy Policy

	// Run performs the work. It must honour ctx cancellation.
	Run func(ctx context.Context, trigger store.Action) (store.Action, error)

	// Fail converts an error of Run into the failure action to dispatch.
	Fail func(trigger store.Action, err error) store.Action

	// MaxConcurrency bounds Merge runs. Zero means unbounded.
	MaxConcurrency int64
}

func (e *Effect) validate() error {
	switch {
	case e.Name == "":
		return ErrNoName
	case len(e.Kinds) == 0:
		return fmt.Errorf("%w: %s", ErrNoTriggers, e.Name)
	case e.Run == nil:
		return fmt.Errorf("%w: %s", ErrNoRun, e.Name)
	case e.Fail == nil:
		return fmt.Errorf("%w: %s", ErrNoFail, e.Name)
	case !e.Policy.valid():
		return fmt.Errorf("%w: %s", ErrInvalidPolicy, e.Name)
	}
	return nil
}

func (e *Effect) triggeredBy(k store.Kind) bool {
	for _, kind := range e.Kinds {
		if kind == k {
			return true
		}
	}
	return false
}

// On builds an effect triggered by the action type T. The trigger kind is
// taken from T's zero value, so T must report a constant Kind.
//
// Example:
//
//	load := effect.On(effect.Switch,
//	    func(ctx context.Context, _ catalog.Load) (store.Action, error) {
//	        products, err := api.List(ctx)
//	        if err != nil {
//	            return nil, err
//	        }
//	        return catalog.LoadSuccess{Products: products}, nil
//	    },
//	    func(_ catalog.Load, err error) store.Action {
//	        return catalog.LoadFail{Error: effect.ErrorMessage(err)}
//	    },
//	)
func On[T store.Action](policy Policy, run func(context.Context, T) (store.Action, error), fail func(T, error) store.Action) Effect {
	var zero T
	kind := zero.Kind()

	return Effect{
		Name:   string(kind),
		Kinds:  []store.Kind{kind},
		Policy: policy,
		Run: func(ctx context.Context, trigger store.Action) (store.Action, error) {
			t, ok := trigger.(T)
			if !ok {
				return nil, fmt.Errorf("%w: %T", ErrTriggerType, trigger)
			}
			return run(ctx, t)
		},
		Fail: func(trigger store.Action, err error) store.Action {
			t, _ := trigger.(T)
			return fail(t, err)
		},
	}
}
