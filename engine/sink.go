// Package engine implements the deliberation loop that
// drives a Provider through the JSON protocol, the approval arbiter, and
// tool dispatch, emitting structured events to a Sink at every step.
package engine

// Decision is the three-valued outcome of ApprovalRequired. A bool cannot
// represent "deferred" without an out-of-band sentinel, so it is an
// explicit sum type.
type Decision int

const (
	DecisionApproved Decision = iota
	DecisionDenied
	DecisionDeferred
)

// Sink is the bidirectional callback surface from engine to UI/recorder.
type Sink interface {
	AssistantRaw(text string)
	Reasoning(text string)
	Raw(raw any)
	StreamText(delta string)
	StreamReasoning(delta string)
	ToolCall(tool, id string, args map[string]any, note string)
	ToolResult(id string, result map[string]any)
	// ApprovalRequired returns the arbiter's decision. token is only
	// meaningful when the sink later resolves a DecisionDeferred result.
	ApprovalRequired(tool, id, reason string, args map[string]any, token string) Decision
	Final(content string)
}

// NopSink discards every event callback and answers every ApprovalRequired
// with DecisionApproved; useful as an embeddable default for sinks that only
// care about a subset of events.
type NopSink struct{}

func (NopSink) AssistantRaw(string)                             {}
func (NopSink) Reasoning(string)                                {}
func (NopSink) Raw(any)                                         {}
func (NopSink) StreamText(string)                               {}
func (NopSink) StreamReasoning(string)                          {}
func (NopSink) ToolCall(string, string, map[string]any, string) {}
func (NopSink) ToolResult(string, map[string]any)               {}
func (NopSink) ApprovalRequired(string, string, string, map[string]any, string) Decision {
	return DecisionApproved
}
func (NopSink) Final(string) {}
