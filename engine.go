// Package pushfsm implements a pushdown finite-state machine driving a single
// controlled entity across discrete frames of a real-time loop.
//
// The engine owns an ordered, identity-keyed set of registered states and all
// transition bookkeeping: the current and in-flight state pointers, a
// transition-history slot for GoToPreviousState, and a push-origin stack for
// PushState/PopState. The host loop forwards its frame phases to the engine,
// the engine forwards them to the current state, and the state's own logic
// requests transitions, which run synchronously to completion before control
// returns to the host.
//
// All failures are reported (returned and logged) and leave the engine
// unchanged; nothing here panics or crashes the host loop.
package pushfsm

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/statefold/pushfsm/trace"
)

// DefaultMaxTransitionDepth bounds reentrant transition chains (a state whose
// OnEnter immediately requests another transition). Past the limit the
// operation fails with ErrTransitionDepth instead of overflowing the stack.
const DefaultMaxTransitionDepth = 16

// Named is implemented by states that want a stable name in logs and trace
// events. Unnamed states are labeled by their dynamic type.
type Named interface {
	Name() string
}

// Engine is a pushdown FSM for one controlled entity. It is single-threaded
// and frame-driven: the host calls the frame hooks sequentially once per
// logical frame, and every transition runs to completion inside the call that
// requested it. There is no deferred or queued transition.
//
// The zero value is not usable; construct with New.
type Engine struct {
	id     string
	logger *log.Logger
	pub    trace.Publisher

	states  []State // registered set, insertion order, identity-unique
	current State
	next    State // non-nil only inside the in-flight transition window

	previous    State   // transition history for GoToPreviousState
	pushOrigins []State // push-origin stack for PushState/PopState

	depth    int // live reentrant transition depth
	maxDepth int

	started bool
	frame   uint64
	seq     uint64
}

// New creates an empty engine. The first state registered with AddState
// becomes the initial current state.
func New(opts ...Option) *Engine {
	e := &Engine{
		id:       uuid.NewString(),
		maxDepth: DefaultMaxTransitionDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "pushfsm"})
	}
	return e
}

// ID returns the engine's identity used in logs and trace events.
func (e *Engine) ID() string { return e.id }

// CurrentState returns the active state, or nil before any registration.
func (e *Engine) CurrentState() State { return e.current }

// NextState returns the target of the in-flight transition, or nil outside
// the transition window. It exists so hook code can observe where the machine
// is headed while OnExit/OnEnter run.
func (e *Engine) NextState() State { return e.next }

// PreviousState returns the transition-history slot consumed by
// GoToPreviousState, or nil if no direct transition has happened yet.
func (e *Engine) PreviousState() State { return e.previous }

// Pushed reports whether a pushed state is active and not yet popped.
func (e *Engine) Pushed() bool { return len(e.pushOrigins) > 0 }

// PushDepth returns the number of unpaired pushes. Callers wanting the legacy
// single-level semantics can treat any value above 1 as misuse.
func (e *Engine) PushDepth() int { return len(e.pushOrigins) }

// PushOrigins returns a copy of the push-origin stack, oldest first.
func (e *Engine) PushOrigins() []State {
	if len(e.pushOrigins) == 0 {
		return nil
	}
	out := make([]State, len(e.pushOrigins))
	copy(out, e.pushOrigins)
	return out
}

// StateCount returns the size of the registered set.
func (e *Engine) StateCount() int { return len(e.states) }

// Frame returns the number of main-update frames processed so far.
func (e *Engine) Frame() uint64 { return e.frame }

// AddState registers state. The first registration establishes the initial
// current state; later ones only grow the set. Registering nil or an identity
// already present fails and changes nothing.
func (e *Engine) AddState(state State) error {
	if state == nil {
		return e.fail("add state", ErrNilState)
	}
	if len(e.states) == 0 {
		e.states = append(e.states, state)
		e.current = state
		e.logger.Debug("initial state registered", "engine", e.id, "state", Label(state))
		return nil
	}
	if e.indexOf(state) >= 0 {
		return e.fail("add state", ErrDuplicateState, "state", Label(state))
	}
	e.states = append(e.states, state)
	return nil
}

// DeleteState removes the first identity match from the registered set. The
// current/previous/push slots are left alone even when they reference the
// removed state; later transitions targeting it fail with ErrStateNotFound.
func (e *Engine) DeleteState(state State) error {
	if state == nil {
		return e.fail("delete state", ErrNilState)
	}
	i := e.indexOf(state)
	if i < 0 {
		return e.fail("delete state", ErrStateNotFound, "state", Label(state))
	}
	e.states = append(e.states[:i], e.states[i+1:]...)
	return nil
}

// Start fires OnEnter on the initial current state. Registration alone never
// fires hooks, so hosts call Start once before the first frame. Subsequent
// calls are no-ops.
func (e *Engine) Start() error {
	if e.current == nil {
		return e.fail("start", ErrStateNotFound)
	}
	if e.started {
		return nil
	}
	e.started = true
	e.next = e.current
	e.current.OnEnter()
	e.next = nil
	return nil
}

// GoToState performs a direct transition: exits the current state, makes
// target current, enters it, and records the departed state in transition
// history. Fails without side effects if target is nil, unregistered, or the
// reentrancy limit is hit.
func (e *Engine) GoToState(target State) error {
	return e.goTo("go to state", target, nil, false)
}

// GoToStateWith is GoToState carrying a payload: the entering state receives
// OnEnterWith(payload) instead of OnEnter.
func (e *Engine) GoToStateWith(target State, payload any) error {
	return e.goTo("go to state", target, payload, true)
}

// GoToPreviousState transitions back to the state recorded by the last direct
// transition. Because the transition itself records the state being departed,
// repeated calls toggle between the two most recent states; this is a
// two-state swap, not an undo stack.
func (e *Engine) GoToPreviousState() error {
	if e.previous == nil {
		return e.fail("go to previous state", ErrNoHistory)
	}
	return e.goTo("go to previous state", e.previous, nil, false)
}

// PushState suspends the current state and activates target. The suspended
// state gets no OnExit; its identity is recorded on the push-origin stack so
// PopState can restore it.
func (e *Engine) PushState(target State) error {
	return e.push("push state", target, nil, false)
}

// PushStateWith is PushState carrying a payload for the entering state.
func (e *Engine) PushStateWith(target State, payload any) error {
	return e.push("push state", target, payload, true)
}

// PopState exits the current (pushed) state and reactivates the most recent
// push origin. The restored state gets no OnEnter, matching the missing
// OnExit at push time. Fails with ErrNoHistory when nothing is pushed.
func (e *Engine) PopState() error {
	const op = "pop state"
	if len(e.pushOrigins) == 0 {
		return e.fail(op, ErrNoHistory)
	}
	origin := e.pushOrigins[len(e.pushOrigins)-1]
	if e.indexOf(origin) < 0 {
		return e.fail(op, ErrStateNotFound, "state", Label(origin))
	}
	from := e.current
	e.next = origin
	from.OnExit()
	e.current = origin
	e.next = nil
	e.pushOrigins = e.pushOrigins[:len(e.pushOrigins)-1]
	e.publish(trace.KindPop, from, origin, nil)
	return nil
}

// Restore reestablishes the engine's slots from a snapshot without firing any
// hooks. Every referenced state must be registered; previous may be nil and
// pushed may be empty.
func (e *Engine) Restore(current, previous State, pushed []State) error {
	const op = "restore"
	if current == nil {
		return e.fail(op, ErrNilState)
	}
	if e.indexOf(current) < 0 {
		return e.fail(op, ErrStateNotFound, "state", Label(current))
	}
	if previous != nil && e.indexOf(previous) < 0 {
		return e.fail(op, ErrStateNotFound, "state", Label(previous))
	}
	for _, s := range pushed {
		if s == nil {
			return e.fail(op, ErrNilState)
		}
		if e.indexOf(s) < 0 {
			return e.fail(op, ErrStateNotFound, "state", Label(s))
		}
	}
	e.current = current
	e.previous = previous
	e.pushOrigins = append(e.pushOrigins[:0], pushed...)
	e.started = true
	return nil
}

// Update forwards the main update phase to the current state and advances the
// frame counter. A frame with no registered state is a no-op.
func (e *Engine) Update(dt float64) {
	if e.current == nil {
		return
	}
	e.frame++
	e.current.Update(dt)
}

// FixedUpdate forwards one fixed-timestep step to the current state.
func (e *Engine) FixedUpdate(dt float64) {
	if e.current == nil {
		return
	}
	e.current.FixedUpdate(dt)
}

// LateUpdate forwards the late phase, then runs the reason hook. The reason
// hook always runs on whatever state is current after LateUpdate, so a state
// entered during LateUpdate gets to decide immediately.
func (e *Engine) LateUpdate(dt float64) {
	if e.current == nil {
		return
	}
	e.current.LateUpdate(dt)
	e.current.Reason()
}

// Draw forwards the render phase when the current state opts in via Drawable.
func (e *Engine) Draw(target any) {
	if e.current == nil {
		return
	}
	if d, ok := e.current.(Drawable); ok {
		d.Draw(target)
	}
}

// goTo implements the direct transition sequence: record history, exit,
// reassign, enter. The next slot brackets the exit/enter window. Reentrant
// calls from inside OnEnter/OnExit run to completion as a strict sequence,
// bounded by maxDepth.
func (e *Engine) goTo(op string, target State, payload any, withPayload bool) error {
	if target == nil {
		return e.fail(op, ErrNilState)
	}
	if e.indexOf(target) < 0 {
		return e.fail(op, ErrStateNotFound, "state", Label(target))
	}
	if e.depth >= e.maxDepth {
		return e.fail(op, ErrTransitionDepth, "depth", e.depth)
	}
	e.depth++
	defer func() { e.depth-- }()

	from := e.current
	e.previous = from
	e.next = target
	from.OnExit()
	e.current = target
	if withPayload {
		target.OnEnterWith(payload)
	} else {
		target.OnEnter()
	}
	e.next = nil
	e.publish(trace.KindTransition, from, target, nil)
	return nil
}

// push implements the suspend half of the pushdown pair: no OnExit on the
// state being suspended, origin recorded on the stack.
func (e *Engine) push(op string, target State, payload any, withPayload bool) error {
	if target == nil {
		return e.fail(op, ErrNilState)
	}
	if e.indexOf(target) < 0 {
		return e.fail(op, ErrStateNotFound, "state", Label(target))
	}
	if e.depth >= e.maxDepth {
		return e.fail(op, ErrTransitionDepth, "depth", e.depth)
	}
	e.depth++
	defer func() { e.depth-- }()

	from := e.current
	e.pushOrigins = append(e.pushOrigins, from)
	e.next = target
	e.current = target
	if withPayload {
		target.OnEnterWith(payload)
	} else {
		target.OnEnter()
	}
	e.next = nil
	e.publish(trace.KindPush, from, target, nil)
	return nil
}

// indexOf scans the registered set for an identity match. States are
// interface values holding pointers, so == is identity comparison.
func (e *Engine) indexOf(s State) int {
	for i, st := range e.states {
		if st == s {
			return i
		}
	}
	return -1
}

func (e *Engine) fail(op string, err error, keyvals ...any) error {
	kv := append([]any{"engine", e.id, "error", err}, keyvals...)
	e.logger.Error(op+" failed", kv...)
	e.publish(trace.KindFault, e.current, nil, err)
	return fmt.Errorf("%s: %w", op, err)
}

func (e *Engine) publish(kind trace.Kind, from, to State, err error) {
	if e.pub == nil {
		return
	}
	e.seq++
	evt := trace.Event{
		EngineID:  e.id,
		Seq:       e.seq,
		Frame:     e.frame,
		Kind:      kind,
		From:      Label(from),
		To:        Label(to),
		Timestamp: time.Now(),
	}
	if err != nil {
		evt.Err = err.Error()
	}
	e.pub.Publish(evt)
}

// Label returns the state's trace/log name: Named.Name when implemented,
// otherwise the dynamic type.
func Label(s State) string {
	if s == nil {
		return ""
	}
	if n, ok := s.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}
