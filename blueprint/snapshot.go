package blueprint

import (
	"fmt"
	"time"

	"github.com/statefold/pushfsm"
)

// Snapshot captures the engine's bookkeeping by state name. Behavior is not
// captured; applying a snapshot to a freshly assembled engine resumes the
// machine where it left off without firing any hooks.
type Snapshot struct {
	Machine   string    `json:"machine" yaml:"machine"`
	Current   string    `json:"current" yaml:"current"`
	Previous  string    `json:"previous,omitempty" yaml:"previous,omitempty"`
	PushStack []string  `json:"pushStack,omitempty" yaml:"pushStack,omitempty"`
	Frame     uint64    `json:"frame" yaml:"frame"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Take captures eng's slots, reverse-mapping each state to its name in
// impls by identity.
func Take(machine string, eng *pushfsm.Engine, impls map[string]pushfsm.State) (Snapshot, error) {
	snap := Snapshot{
		Machine:   machine,
		Frame:     eng.Frame(),
		Timestamp: time.Now().UTC(),
	}

	cur := eng.CurrentState()
	if cur == nil {
		return Snapshot{}, fmt.Errorf("snapshot %q: engine has no current state", machine)
	}
	name, err := nameOf(machine, cur, impls)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Current = name

	if prev := eng.PreviousState(); prev != nil {
		name, err := nameOf(machine, prev, impls)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Previous = name
	}

	for _, origin := range eng.PushOrigins() {
		name, err := nameOf(machine, origin, impls)
		if err != nil {
			return Snapshot{}, err
		}
		snap.PushStack = append(snap.PushStack, name)
	}
	return snap, nil
}

// Apply restores eng's slots from the snapshot using impls to resolve names.
func (s Snapshot) Apply(eng *pushfsm.Engine, impls map[string]pushfsm.State) error {
	current := impls[s.Current]
	if current == nil {
		return fmt.Errorf("snapshot %q: unknown current state %q", s.Machine, s.Current)
	}
	var previous pushfsm.State
	if s.Previous != "" {
		previous = impls[s.Previous]
		if previous == nil {
			return fmt.Errorf("snapshot %q: unknown previous state %q", s.Machine, s.Previous)
		}
	}
	var pushed []pushfsm.State
	for _, name := range s.PushStack {
		st := impls[name]
		if st == nil {
			return fmt.Errorf("snapshot %q: unknown pushed state %q", s.Machine, name)
		}
		pushed = append(pushed, st)
	}
	if err := eng.Restore(current, previous, pushed); err != nil {
		return fmt.Errorf("snapshot %q: %w", s.Machine, err)
	}
	return nil
}

func nameOf(machine string, state pushfsm.State, impls map[string]pushfsm.State) (string, error) {
	for name, s := range impls {
		if s == state {
			return name, nil
		}
	}
	return "", fmt.Errorf("snapshot %q: state %s has no name", machine, pushfsm.Label(state))
}
