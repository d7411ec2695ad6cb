package pushfsm

import "errors"

// All engine failures are non-fatal: the offending operation returns one of
// these (possibly wrapped), logs it, and leaves every slot untouched. Callers
// treat any error as "the transition did not happen".
var (
	// ErrNilState reports an operation that received a nil state.
	ErrNilState = errors.New("nil state")

	// ErrDuplicateState reports a registration whose identity is already in
	// the registered set.
	ErrDuplicateState = errors.New("duplicate state")

	// ErrStateNotFound reports a delete, transition, or pop target whose
	// identity is absent from the registered set.
	ErrStateNotFound = errors.New("state not registered")

	// ErrNoHistory reports GoToPreviousState or PopState with no recorded
	// history to return to.
	ErrNoHistory = errors.New("no state history")

	// ErrTransitionDepth reports a reentrant transition chain that exceeded
	// the engine's depth limit. Surfacing the cycle as an error beats the
	// stack overflow it would otherwise become.
	ErrTransitionDepth = errors.New("transition depth limit exceeded")
)
