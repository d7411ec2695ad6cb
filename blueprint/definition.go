// Package blueprint assembles engines from declarative YAML definitions and
// snapshots their bookkeeping back out for persistence. State behavior stays
// in code; the blueprint only names which states exist, which one starts, and
// how the engine is tuned.
package blueprint

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Definition is the serializable layout of one machine.
type Definition struct {
	// Name identifies the machine in logs, traces, and snapshot files.
	Name string `json:"name" yaml:"name"`
	// Initial is the state registered first, which the engine makes current.
	Initial string `json:"initial" yaml:"initial"`
	// States lists every state name, including the initial one. Registration
	// order follows this list.
	States []string `json:"states" yaml:"states"`
	// MaxTransitionDepth optionally overrides the engine's reentrancy bound.
	MaxTransitionDepth int `json:"maxTransitionDepth,omitempty" yaml:"maxTransitionDepth,omitempty"`
}

// Parse decodes a YAML definition and validates it.
func Parse(data []byte) (Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// LoadFile reads and parses a YAML definition file.
func LoadFile(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("read %s: %w", path, err)
	}
	def, err := Parse(data)
	if err != nil {
		return Definition{}, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Validate checks structural soundness: a name, at least one state, no
// duplicate names, and an initial that is listed.
func (d Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("definition has no name")
	}
	if len(d.States) == 0 {
		return fmt.Errorf("definition %q lists no states", d.Name)
	}
	seen := make(map[string]struct{}, len(d.States))
	for _, s := range d.States {
		if s == "" {
			return fmt.Errorf("definition %q lists an empty state name", d.Name)
		}
		if _, dup := seen[s]; dup {
			return fmt.Errorf("definition %q lists state %q twice", d.Name, s)
		}
		seen[s] = struct{}{}
	}
	if d.Initial == "" {
		return fmt.Errorf("definition %q has no initial state", d.Name)
	}
	if _, ok := seen[d.Initial]; !ok {
		return fmt.Errorf("definition %q: initial state %q is not listed", d.Name, d.Initial)
	}
	if d.MaxTransitionDepth < 0 {
		return fmt.Errorf("definition %q: negative maxTransitionDepth", d.Name)
	}
	return nil
}
