package effect

// Policy decides what happens to a trigger that arrives while earlier runs of
// the same effect are still in flight.
type Policy uint8

const (
	policyUnset Policy = iota

	// Switch cancels the in-flight run and starts the new one. A superseded
	// run's result is discarded, so only the latest trigger produces an action.
	Switch

	// Concat queues triggers and runs them one at a time in arrival order.
	Concat

	// Merge runs every trigger concurrently and dispatches results in
	// completion order.
	Merge

	// Exhaust ignores triggers while a run is in flight.
	Exhaust
)

func (p Policy) String() string {
	switch p {
	case Switch:
		return "switch"
	case Concat:
		return "concat"
	case Merge:
		return "merge"
	case Exhaust:
		return "exhaust"
	default:
		return "invalid"
	}
}

func (p Policy) valid() bool {
	return p >= Switch && p <= Exhaust
}
