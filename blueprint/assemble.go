package blueprint

import (
	"fmt"

	"github.com/statefold/pushfsm"
)

// Assemble builds an engine from a validated definition and the concrete
// state implementations, keyed by definition name. The initial state is
// registered first so the engine adopts it as current; the rest follow in
// listed order. Every listed name must be implemented and every implemented
// name listed, so drift between blueprint and code surfaces immediately.
func Assemble(def Definition, impls map[string]pushfsm.State, opts ...pushfsm.Option) (*pushfsm.Engine, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	for name := range impls {
		if !contains(def.States, name) {
			return nil, fmt.Errorf("definition %q: implementation %q is not listed", def.Name, name)
		}
	}
	for _, name := range def.States {
		if impls[name] == nil {
			return nil, fmt.Errorf("definition %q: state %q has no implementation", def.Name, name)
		}
	}

	if def.MaxTransitionDepth > 0 {
		opts = append(opts, pushfsm.WithMaxTransitionDepth(def.MaxTransitionDepth))
	}
	eng := pushfsm.New(opts...)

	if err := eng.AddState(impls[def.Initial]); err != nil {
		return nil, fmt.Errorf("definition %q: register %q: %w", def.Name, def.Initial, err)
	}
	for _, name := range def.States {
		if name == def.Initial {
			continue
		}
		if err := eng.AddState(impls[name]); err != nil {
			return nil, fmt.Errorf("definition %q: register %q: %w", def.Name, name, err)
		}
	}
	return eng, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
