// Package loop provides a fixed-timestep host loop for driving an engine
// without a windowing runtime: tools, servers, simulations, and tests. Each
// tick forwards the frame phases in the engine's contract order: main update,
// zero or more fixed-timestep updates, then late update (the engine runs the
// reason hook inside its late phase).
package loop

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Advancer receives the per-tick frame phases. *pushfsm.Engine satisfies it.
type Advancer interface {
	Update(dt float64)
	FixedUpdate(dt float64)
	LateUpdate(dt float64)
}

// Config tunes the loop.
type Config struct {
	// TickRate is the wall-clock interval between frames. Default 60 FPS.
	TickRate time.Duration
	// FixedStep is the fixed-timestep interval. Default 20ms (50 Hz).
	FixedStep time.Duration
	// MaxFixedSteps caps fixed updates per tick so a stall cannot snowball
	// into an ever-growing catch-up backlog. Default 5.
	MaxFixedSteps int
	// Logger receives panic reports from state code. Default stderr.
	Logger *log.Logger
}

// Loop drives one Advancer at a fixed tick rate on its own goroutine.
type Loop struct {
	adv    Advancer
	cfg    Config
	logger *log.Logger

	mu      sync.Mutex
	frame   uint64
	running bool

	cancel  context.CancelFunc
	stopped chan struct{}

	accumulator time.Duration
	lastTick    time.Time
}

// New creates a loop for adv, applying config defaults.
func New(adv Advancer, cfg Config) *Loop {
	if cfg.TickRate == 0 {
		cfg.TickRate = 16667 * time.Microsecond // 60 FPS
	}
	if cfg.FixedStep == 0 {
		cfg.FixedStep = 20 * time.Millisecond
	}
	if cfg.MaxFixedSteps == 0 {
		cfg.MaxFixedSteps = 5
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "loop"})
	}
	return &Loop{
		adv:     adv,
		cfg:     cfg,
		logger:  logger,
		stopped: make(chan struct{}),
	}
}

// Start launches the tick goroutine. It returns immediately; the loop runs
// until Stop is called or ctx is cancelled.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return
	}
	l.running = true

	ctx, l.cancel = context.WithCancel(ctx)
	l.lastTick = time.Now()
	go l.run(ctx)
}

// Stop cancels the loop and waits for the tick goroutine to exit.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	cancel := l.cancel
	l.mu.Unlock()

	cancel()
	<-l.stopped
}

// Frame returns the number of completed ticks.
func (l *Loop) Frame() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frame
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.stopped)
	ticker := time.NewTicker(l.cfg.TickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.tick(now.Sub(l.lastTick))
			l.lastTick = now
			l.mu.Lock()
			l.frame++
			l.mu.Unlock()
		}
	}
}

// Step advances exactly one frame synchronously with a fixed elapsed time,
// for deterministic hosts and tests. Do not mix with a running Start loop.
func (l *Loop) Step(elapsed time.Duration) {
	l.tick(elapsed)
	l.mu.Lock()
	l.frame++
	l.mu.Unlock()
}

// tick runs one frame. State code may panic; the loop logs and keeps ticking
// rather than taking the host down with it.
func (l *Loop) tick(elapsed time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("frame panicked", "frame", l.Frame(), "panic", r)
		}
	}()

	dt := elapsed.Seconds()

	l.adv.Update(dt)

	l.accumulator += elapsed
	steps := 0
	for l.accumulator >= l.cfg.FixedStep && steps < l.cfg.MaxFixedSteps {
		l.adv.FixedUpdate(l.cfg.FixedStep.Seconds())
		l.accumulator -= l.cfg.FixedStep
		steps++
	}
	if steps == l.cfg.MaxFixedSteps && l.accumulator >= l.cfg.FixedStep {
		// Shed the backlog instead of spiraling.
		l.accumulator = 0
	}

	l.adv.LateUpdate(dt)
}
