package pushfsm

import (
	"github.com/charmbracelet/log"

	"github.com/statefold/pushfsm/trace"
)

// Option applies configuration to an Engine via the functional options
// pattern.
type Option func(*Engine)

// WithLogger routes the engine's failure and debug reporting through logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithID overrides the generated engine ID, typically with the ID of the
// controlled entity.
func WithID(id string) Option {
	return func(e *Engine) {
		e.id = id
	}
}

// WithMaxTransitionDepth bounds reentrant transition chains. Values below 1
// are ignored.
func WithMaxTransitionDepth(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.maxDepth = n
		}
	}
}

// WithPublisher emits a trace.Event for every transition, push, pop, and
// reported failure.
func WithPublisher(p trace.Publisher) Option {
	return func(e *Engine) {
		e.pub = p
	}
}
