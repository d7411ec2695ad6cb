package trace_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statefold/pushfsm/trace"
)

func TestChannelPublisherDropsOnBackpressure(t *testing.T) {
	ch := make(chan trace.Event, 1)
	pub := trace.NewChannelPublisher(ch)

	pub.Publish(trace.Event{Seq: 1})
	pub.Publish(trace.Event{Seq: 2}) // buffer full, must not block

	got := <-ch
	assert.Equal(t, uint64(1), got.Seq)
	require.NoError(t, pub.Close())

	_, open := <-ch
	assert.False(t, open)
}

func TestRecorderAccumulatesEdges(t *testing.T) {
	rec := trace.NewRecorder()
	rec.Publish(trace.Event{Kind: trace.KindTransition, From: "patrol", To: "chase"})
	rec.Publish(trace.Event{Kind: trace.KindPush, From: "chase", To: "stunned"})
	rec.Publish(trace.Event{Kind: trace.KindPop, From: "stunned", To: "chase"})
	rec.Publish(trace.Event{Kind: trace.KindFault, From: "chase", Err: "state not registered"})

	dot := rec.DOT("guard")
	assert.Contains(t, dot, `digraph "guard"`)
	assert.Contains(t, dot, `"patrol" -> "chase";`)
	assert.Contains(t, dot, `"chase" -> "stunned" [style=dashed, label="push"];`)
	assert.Contains(t, dot, `"stunned" -> "chase" [style=dotted, label="pop"];`)
	assert.Contains(t, dot, `"chase" [style=filled, fillcolor=lightblue];`)
	assert.Equal(t, 1, rec.Faults())
}

func TestRecorderDeduplicatesRepeatedEdges(t *testing.T) {
	rec := trace.NewRecorder()
	for i := 0; i < 5; i++ {
		rec.Publish(trace.Event{Kind: trace.KindTransition, From: "a", To: "b"})
	}
	dot := rec.DOT("m")
	assert.Equal(t, 1, strings.Count(dot, `"a" -> "b";`))
}
