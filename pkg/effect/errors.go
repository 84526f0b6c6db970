package effect

import (
	"context"
	"errors"
)

// Sentinel errors for effect registration and runs.
var (
	ErrInvalidPolicy   = errors.New("effect: policy is not set")
	ErrNoTriggers      = errors.New("effect: no trigger kinds")
	ErrNoRun           = errors.New("effect: run function is nil")
	ErrNoFail          = errors.New("effect: fail function is nil")
	ErrNoName          = errors.New("effect: name is empty")
	ErrDuplicateEffect = errors.New("effect: duplicate effect name")
	ErrAlreadyStarted  = errors.New("effect: runtime already started")
	ErrNotStarted      = errors.New("effect: runtime not started")
	ErrStopped         = errors.New("effect: runtime stopped")
	ErrTriggerType     = errors.New("effect: unexpected trigger type")
	ErrNoResult        = errors.New("effect: run returned no action")
	ErrFeedbackLoop    = errors.New("effect: run returned one of its own triggers")
	ErrPanic           = errors.New("effect: run panicked")
)

// ErrorMessage turns a run error into the text stored in a failure action.
// Internal failures are reported generically; everything else keeps the
// error text.
func ErrorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	case errors.Is(err, ErrPanic), errors.Is(err, ErrNoResult),
		errors.Is(err, ErrFeedbackLoop), errors.Is(err, ErrTriggerType):
		return "unexpected error"
	default:
		return err.Error()
	}
}
