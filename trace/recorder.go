package trace

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Recorder is a Publisher that accumulates the states and edges it has seen,
// for DOT export of the machine as actually exercised. Push edges are styled
// dashed, pops dotted, so the suspend/resume pairs read apart from direct
// transitions.
type Recorder struct {
	mu     sync.Mutex
	nodes  map[string]struct{}
	edges  map[edge]struct{}
	last   string // most recent destination, highlighted in the export
	faults int
}

type edge struct {
	from, to string
	kind     Kind
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		nodes: make(map[string]struct{}),
		edges: make(map[edge]struct{}),
	}
}

func (r *Recorder) Publish(evt Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if evt.Kind == KindFault {
		r.faults++
		return
	}
	if evt.From != "" {
		r.nodes[evt.From] = struct{}{}
	}
	if evt.To != "" {
		r.nodes[evt.To] = struct{}{}
		r.last = evt.To
	}
	if evt.From != "" && evt.To != "" {
		r.edges[edge{from: evt.From, to: evt.To, kind: evt.Kind}] = struct{}{}
	}
}

func (r *Recorder) Close() error { return nil }

// Faults returns the number of fault events observed.
func (r *Recorder) Faults() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.faults
}

// DOT renders the recorded states and edges as a Graphviz digraph.
func (r *Recorder) DOT(name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "digraph %q {\n", name)
	b.WriteString("  rankdir=LR;\n")

	nodes := make([]string, 0, len(r.nodes))
	for n := range r.nodes {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	for _, n := range nodes {
		if n == r.last {
			fmt.Fprintf(&b, "  %q [style=filled, fillcolor=lightblue];\n", n)
		} else {
			fmt.Fprintf(&b, "  %q;\n", n)
		}
	}

	edges := make([]edge, 0, len(r.edges))
	for e := range r.edges {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].from != edges[j].from {
			return edges[i].from < edges[j].from
		}
		if edges[i].to != edges[j].to {
			return edges[i].to < edges[j].to
		}
		return edges[i].kind < edges[j].kind
	})
	for _, e := range edges {
		switch e.kind {
		case KindPush:
			fmt.Fprintf(&b, "  %q -> %q [style=dashed, label=\"push\"];\n", e.from, e.to)
		case KindPop:
			fmt.Fprintf(&b, "  %q -> %q [style=dotted, label=\"pop\"];\n", e.from, e.to)
		default:
			fmt.Fprintf(&b, "  %q -> %q;\n", e.from, e.to)
		}
	}

	b.WriteString("}\n")
	return b.String()
}
