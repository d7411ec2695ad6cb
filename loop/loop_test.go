package loop_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statefold/pushfsm/loop"
)

// countingAdvancer journals phase calls for ordering assertions.
type countingAdvancer struct {
	calls  []string
	fixed  int
	update int
	late   int
}

func (a *countingAdvancer) Update(dt float64) {
	a.update++
	a.calls = append(a.calls, "update")
}

func (a *countingAdvancer) FixedUpdate(dt float64) {
	a.fixed++
	a.calls = append(a.calls, "fixed")
}

func (a *countingAdvancer) LateUpdate(dt float64) {
	a.late++
	a.calls = append(a.calls, "late")
}

type panickyAdvancer struct {
	countingAdvancer
}

func (a *panickyAdvancer) Update(dt float64) {
	a.update++
	panic("state code blew up")
}

func quiet() *log.Logger {
	return log.New(io.Discard)
}

func TestStepRunsPhasesInOrder(t *testing.T) {
	adv := &countingAdvancer{}
	l := loop.New(adv, loop.Config{FixedStep: 10 * time.Millisecond, Logger: quiet()})

	l.Step(25 * time.Millisecond)

	// 25ms at a 10ms fixed step yields two fixed updates between the main
	// and late phases.
	assert.Equal(t, []string{"update", "fixed", "fixed", "late"}, adv.calls)
	assert.Equal(t, uint64(1), l.Frame())
}

func TestStepCarriesFixedRemainder(t *testing.T) {
	adv := &countingAdvancer{}
	l := loop.New(adv, loop.Config{FixedStep: 10 * time.Millisecond, Logger: quiet()})

	l.Step(5 * time.Millisecond)
	assert.Equal(t, 0, adv.fixed)

	l.Step(5 * time.Millisecond)
	assert.Equal(t, 1, adv.fixed, "remainder accumulates across frames")
}

func TestStepClampsFixedBacklog(t *testing.T) {
	adv := &countingAdvancer{}
	l := loop.New(adv, loop.Config{
		FixedStep:     10 * time.Millisecond,
		MaxFixedSteps: 3,
		Logger:        quiet(),
	})

	l.Step(500 * time.Millisecond)
	assert.Equal(t, 3, adv.fixed, "a stall must not snowball into catch-up")

	l.Step(10 * time.Millisecond)
	assert.Equal(t, 4, adv.fixed, "backlog sheds instead of carrying over")
}

func TestLoopRunsAndStops(t *testing.T) {
	adv := &countingAdvancer{}
	l := loop.New(adv, loop.Config{TickRate: time.Millisecond, Logger: quiet()})

	l.Start(context.Background())
	require.Eventually(t, func() bool { return l.Frame() >= 3 }, time.Second, time.Millisecond)
	l.Stop()

	frames := l.Frame()
	assert.GreaterOrEqual(t, adv.update, 3)
	assert.Equal(t, adv.update, adv.late)

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, frames, l.Frame(), "no ticks after Stop")
}

func TestPanicInStateCodeDoesNotKillLoop(t *testing.T) {
	adv := &panickyAdvancer{}
	l := loop.New(adv, loop.Config{TickRate: time.Millisecond, Logger: quiet()})

	l.Start(context.Background())
	require.Eventually(t, func() bool { return l.Frame() >= 3 }, time.Second, time.Millisecond)
	l.Stop()

	assert.GreaterOrEqual(t, adv.update, 3)
}

func TestContextCancelStopsLoop(t *testing.T) {
	adv := &countingAdvancer{}
	l := loop.New(adv, loop.Config{TickRate: time.Millisecond, Logger: quiet()})

	ctx, cancel := context.WithCancel(context.Background())
	l.Start(ctx)
	require.Eventually(t, func() bool { return l.Frame() >= 1 }, time.Second, time.Millisecond)
	cancel()

	require.Eventually(t, func() bool {
		f := l.Frame()
		time.Sleep(3 * time.Millisecond)
		return l.Frame() == f
	}, time.Second, 5*time.Millisecond)
}
