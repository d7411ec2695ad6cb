// Command demo runs a guard entity's pushdown FSM headlessly for a fixed
// number of frames: patrol, chase, attack, plus a pushed stunned state, all
// assembled from a YAML blueprint. It prints the observed machine as
// Graphviz DOT and persists a final snapshot.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"

	"github.com/statefold/pushfsm"
	"github.com/statefold/pushfsm/blueprint"
	"github.com/statefold/pushfsm/loop"
	"github.com/statefold/pushfsm/trace"
)

const guardBlueprint = `
name: guard
initial: patrol
states:
  - patrol
  - chase
  - attack
  - stunned
maxTransitionDepth: 8
`

type config struct {
	Frames      int           `env:"DEMO_FRAMES" envDefault:"300"`
	TickRate    time.Duration `env:"DEMO_TICK_RATE" envDefault:"16.667ms"`
	LogLevel    string        `env:"DEMO_LOG_LEVEL" envDefault:"info"`
	SnapshotDir string        `env:"DEMO_SNAPSHOT_DIR"`
}

// world is the simulated surroundings the guard reacts to.
type world struct {
	playerDist float64
	arrowHit   bool
}

type guard struct {
	eng    *pushfsm.Engine
	w      *world
	logger *log.Logger

	patrol  *patrolState
	chase   *chaseState
	attack  *attackState
	stunned *stunnedState
}

type patrolState struct {
	pushfsm.BaseState
	g *guard
}

func (s *patrolState) Name() string { return "patrol" }

func (s *patrolState) OnEnter() { s.g.logger.Info("resuming patrol") }

func (s *patrolState) Update(dt float64) {
	// The player keeps creeping closer while the guard walks its route.
	s.g.w.playerDist -= 4 * dt
}

func (s *patrolState) Reason() {
	if s.g.w.playerDist < 25 {
		s.g.logger.Info("spotted the player", "dist", fmt.Sprintf("%.1f", s.g.w.playerDist))
		_ = s.g.eng.GoToStateWith(s.g.chase, s.g.w.playerDist)
	}
}

type chaseState struct {
	pushfsm.BaseState
	g *guard
}

func (s *chaseState) Name() string { return "chase" }

func (s *chaseState) OnEnter() { s.g.logger.Info("chasing") }

func (s *chaseState) OnEnterWith(payload any) {
	s.g.logger.Info("chasing", "spottedAt", payload)
}

func (s *chaseState) Update(dt float64) {
	s.g.w.playerDist -= 8 * dt
}

func (s *chaseState) Reason() {
	switch {
	case s.g.w.arrowHit:
		s.g.w.arrowHit = false
		_ = s.g.eng.PushStateWith(s.g.stunned, "arrow")
	case s.g.w.playerDist < 5:
		_ = s.g.eng.GoToState(s.g.attack)
	case s.g.w.playerDist > 30:
		s.g.logger.Info("lost the player")
		_ = s.g.eng.GoToState(s.g.patrol)
	}
}

type attackState struct {
	pushfsm.BaseState
	g      *guard
	swings int
}

func (s *attackState) Name() string { return "attack" }

func (s *attackState) OnEnter() {
	s.swings = 0
	s.g.logger.Info("attacking")
}

func (s *attackState) FixedUpdate(dt float64) {
	s.swings++
	if s.swings == 3 {
		// The player breaks off and sprints away.
		s.g.w.playerDist = 45
	}
}

func (s *attackState) Reason() {
	if s.g.w.playerDist > 5 {
		// Back to whatever we were doing before the melee.
		_ = s.g.eng.GoToPreviousState()
	}
}

type stunnedState struct {
	pushfsm.BaseState
	g      *guard
	frames int
}

func (s *stunnedState) Name() string { return "stunned" }

func (s *stunnedState) OnEnterWith(payload any) {
	s.frames = 0
	s.g.logger.Info("stunned", "by", payload)
}

func (s *stunnedState) Update(dt float64) { s.frames++ }

func (s *stunnedState) Reason() {
	if s.frames >= 30 {
		s.g.logger.Info("shaking it off")
		_ = s.g.eng.PopState()
	}
}

func main() {
	cfg, err := env.ParseAs[config]()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "guard"})
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	def, err := blueprint.Parse([]byte(guardBlueprint))
	if err != nil {
		logger.Fatal("bad blueprint", "error", err)
	}

	g := &guard{
		w:      &world{playerDist: 28},
		logger: logger,
	}
	g.patrol = &patrolState{g: g}
	g.chase = &chaseState{g: g}
	g.attack = &attackState{g: g}
	g.stunned = &stunnedState{g: g}

	impls := map[string]pushfsm.State{
		"patrol":  g.patrol,
		"chase":   g.chase,
		"attack":  g.attack,
		"stunned": g.stunned,
	}

	rec := trace.NewRecorder()
	g.eng, err = blueprint.Assemble(def, impls,
		pushfsm.WithLogger(logger),
		pushfsm.WithPublisher(rec),
		pushfsm.WithID(def.Name),
	)
	if err != nil {
		logger.Fatal("assemble", "error", err)
	}
	if err := g.eng.Start(); err != nil {
		logger.Fatal("start", "error", err)
	}

	l := loop.New(g.eng, loop.Config{Logger: logger})
	for frame := 0; frame < cfg.Frames; frame++ {
		if frame == 150 {
			g.w.arrowHit = true
		}
		l.Step(cfg.TickRate)
	}

	logger.Info("run finished",
		"frames", g.eng.Frame(),
		"current", pushfsm.Label(g.eng.CurrentState()),
		"faults", rec.Faults(),
	)
	fmt.Println(rec.DOT(def.Name))

	dir := cfg.SnapshotDir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "pushfsm-demo")
	}
	snap, err := blueprint.Take(def.Name, g.eng, impls)
	if err != nil {
		logger.Fatal("snapshot", "error", err)
	}
	persister, err := blueprint.NewYAMLPersister(dir)
	if err != nil {
		logger.Fatal("snapshot dir", "error", err)
	}
	if err := persister.Save(snap); err != nil {
		logger.Fatal("snapshot save", "error", err)
	}
	logger.Info("snapshot written", "path", filepath.Join(dir, def.Name+".yaml"))
}
