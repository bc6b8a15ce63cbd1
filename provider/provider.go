// Package provider defines the abstract blocking and streaming LLM
// generation contract. Concrete provider HTTP shapes
// are out of scope; this package only needs enough structure to drive the
// deliberation engine and to host the streaming decoders in decoder.go.
package provider

import (
	"context"

	"github.com/sidedotdev/agentic/session"
)

// Result is the consolidated output of a synchronous or finished streaming
// generation.
type Result struct {
	Content   string
	Reasoning string
	Raw       any
}

// Event is one item of a streaming generation: either a delta or the
// terminal final event. Exactly one final is ever produced by a Stream.
type Event struct {
	Final     bool
	Text      string
	Reasoning string
	Content   string
	Raw       any
}

// Stream is a pull-based, explicitly closeable iterator over Events, so a
// consumer can terminate a producer without leaking the underlying
// transport.
type Stream interface {
	// Next blocks until the next event is available, ctx is cancelled, or
	// the stream ends. ok is false once the final event has been consumed
	// or the stream errored; err carries any transport error.
	Next(ctx context.Context) (Event, bool, error)
	// Close releases transport resources. Safe to call multiple times and
	// safe to call before the stream reaches its final event.
	Close() error
}

// Params bundles the per-request generation parameters the engine passes
// to a Provider, mirroring Config's reasoning knobs.
type Params struct {
	Model           string
	ReasoningMode   string
	ReasoningEffort string
}

// Provider is the abstract LLM backend contract.
type Provider interface {
	// Generate performs a synchronous, non-streaming generation.
	Generate(ctx context.Context, messages []session.Message, params Params) (Result, error)
	// GenerateStream returns a lazy finite sequence of events for the same
	// request. Implementations MAY emit zero deltas (non-streaming
	// fallback) but MUST still emit exactly one final event.
	GenerateStream(ctx context.Context, messages []session.Message, params Params) (Stream, error)
}
