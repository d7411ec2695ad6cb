// Package trace provides observability for engine transitions: an event
// record, pluggable publishers, and a recorder that renders the observed
// machine as Graphviz DOT.
package trace

import (
	"time"

	"github.com/charmbracelet/log"
)

// Kind classifies a trace event.
type Kind string

const (
	KindTransition Kind = "transition"
	KindPush       Kind = "push"
	KindPop        Kind = "pop"
	KindFault      Kind = "fault"
)

// Event describes one engine operation. From/To carry state labels; To is
// empty for faults, Err is empty for everything else.
type Event struct {
	EngineID  string    `json:"engineID" yaml:"engineID"`
	Seq       uint64    `json:"seq" yaml:"seq"`
	Frame     uint64    `json:"frame" yaml:"frame"`
	Kind      Kind      `json:"kind" yaml:"kind"`
	From      string    `json:"from" yaml:"from"`
	To        string    `json:"to,omitempty" yaml:"to,omitempty"`
	Err       string    `json:"err,omitempty" yaml:"err,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Publisher receives engine events. Publish runs inside the transition that
// produced the event, so implementations must not block.
type Publisher interface {
	Publish(Event)
	Close() error
}

// ChannelPublisher forwards events to a channel, dropping on backpressure so
// a slow consumer can never stall the frame loop.
type ChannelPublisher struct {
	ch chan<- Event
}

// NewChannelPublisher creates a ChannelPublisher with the given output
// channel.
func NewChannelPublisher(ch chan<- Event) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

func (p *ChannelPublisher) Publish(evt Event) {
	select {
	case p.ch <- evt:
	default:
	}
}

func (p *ChannelPublisher) Close() error {
	close(p.ch)
	return nil
}

// LogPublisher writes events through a structured logger at debug level.
type LogPublisher struct {
	logger *log.Logger
}

// NewLogPublisher creates a LogPublisher writing through logger.
func NewLogPublisher(logger *log.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(evt Event) {
	p.logger.Debug(string(evt.Kind),
		"engine", evt.EngineID,
		"seq", evt.Seq,
		"frame", evt.Frame,
		"from", evt.From,
		"to", evt.To,
		"err", evt.Err,
	)
}

func (p *LogPublisher) Close() error { return nil }
