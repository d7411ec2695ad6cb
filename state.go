package pushfsm

// State is a unit of behavior hosted by an Engine. The engine forwards each
// frame hook to whichever state is current and fires the enter/exit hooks
// around transitions.
//
// States are compared by identity, never by value: register pointer types so
// two behaviorally identical states remain distinct registrations.
type State interface {
	// OnEnter fires exactly once when this state becomes current through a
	// direct transition without payload.
	OnEnter()

	// OnEnterWith fires instead of OnEnter when the transition carries
	// auxiliary data the entering state needs to initialize against.
	OnEnterWith(payload any)

	// OnExit fires exactly once when this state stops being current through
	// a direct transition. It does not fire when the state is suspended by a
	// push, nor when it is restored by a pop.
	OnExit()

	// Update runs once per frame during the main update phase.
	Update(dt float64)

	// FixedUpdate runs zero or more times per frame at the host's fixed
	// timestep.
	FixedUpdate(dt float64)

	// LateUpdate runs once per frame after all Updates have completed.
	LateUpdate(dt float64)

	// Reason runs once per frame after LateUpdate. It is the canonical place
	// for transition-condition checks, keeping "act" and "decide" separate,
	// though transitions may be requested from any hook.
	Reason()
}

// Drawable is implemented by states that participate in the render phase.
// The engine forwards Draw only when the current state implements it.
type Drawable interface {
	Draw(target any)
}

// BaseState is a no-op State implementation meant for embedding, so concrete
// states override only the hooks they use.
type BaseState struct{}

func (BaseState) OnEnter()            {}
func (BaseState) OnEnterWith(any)     {}
func (BaseState) OnExit()             {}
func (BaseState) Update(float64)      {}
func (BaseState) FixedUpdate(float64) {}
func (BaseState) LateUpdate(float64)  {}
func (BaseState) Reason()             {}

var _ State = BaseState{}
