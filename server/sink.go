package server

import (
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/sidedotdev/agentic/engine"
)

// event is one serialized engine callback, as delivered on both the SSE
// stream and the POST /api/chat events array.
type event struct {
	Name    string         `json:"event"`
	Payload map[string]any `json:"data"`
}

// recordingSink collects engine callbacks in order. Approval requests are
// answered from the decide hook, which lets the HTTP layer choose between
// auto-approval and the deferred token handshake.
type recordingSink struct {
	mu     sync.Mutex
	events []event
	decide func(token string) engine.Decision
}

func newRecordingSink(decide func(token string) engine.Decision) *recordingSink {
	return &recordingSink{decide: decide}
}

func (s *recordingSink) record(name string, payload map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event{Name: name, Payload: payload})
}

func (s *recordingSink) Events() []event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *recordingSink) AssistantRaw(text string) {
	s.record("assistant_raw", map[string]any{"text": text})
}

func (s *recordingSink) Reasoning(text string) {
	s.record("reasoning", map[string]any{"text": text})
}

func (s *recordingSink) Raw(raw any) {
	s.record("raw", map[string]any{"raw": raw})
}

func (s *recordingSink) StreamText(delta string) {
	s.record("assistant_delta", map[string]any{"delta": delta})
}

func (s *recordingSink) StreamReasoning(delta string) {
	s.record("reasoning_delta", map[string]any{"delta": delta})
}

func (s *recordingSink) ToolCall(tool, id string, args map[string]any, note string) {
	s.record("tool_call", map[string]any{"tool": tool, "id": id, "args": args, "note": note})
}

func (s *recordingSink) ToolResult(id string, result map[string]any) {
	s.record("tool_result", map[string]any{"id": id, "result": result})
}

func (s *recordingSink) ApprovalRequired(tool, id, reason string, args map[string]any, token string) engine.Decision {
	s.record("approval", map[string]any{"tool": tool, "id": id, "reason": reason, "args": args, "token": token})
	if s.decide == nil {
		return engine.DecisionDeferred
	}
	return s.decide(token)
}

func (s *recordingSink) Final(content string) {
	s.record("final", map[string]any{"content": content})
}

// sseSink forwards every callback as one SSE frame, flushed immediately,
// on top of the recording behavior.
type sseSink struct {
	recordingSink
	c *gin.Context
}

func newSSESink(c *gin.Context, decide func(token string) engine.Decision) *sseSink {
	s := &sseSink{c: c}
	s.decide = decide
	return s
}

func (s *sseSink) emit(name string, payload map[string]any) {
	s.record(name, payload)
	s.c.SSEvent(name, payload)
	s.c.Writer.Flush()
}

func (s *sseSink) AssistantRaw(text string) {
	s.emit("assistant_raw", map[string]any{"text": text})
}

func (s *sseSink) Reasoning(text string) {
	s.emit("reasoning", map[string]any{"text": text})
}

func (s *sseSink) Raw(raw any) {
	s.emit("raw", map[string]any{"raw": raw})
}

func (s *sseSink) StreamText(delta string) {
	s.emit("assistant_delta", map[string]any{"delta": delta})
}

func (s *sseSink) StreamReasoning(delta string) {
	s.emit("reasoning_delta", map[string]any{"delta": delta})
}

func (s *sseSink) ToolCall(tool, id string, args map[string]any, note string) {
	s.emit("tool_call", map[string]any{"tool": tool, "id": id, "args": args, "note": note})
}

func (s *sseSink) ToolResult(id string, result map[string]any) {
	s.emit("tool_result", map[string]any{"id": id, "result": result})
}

func (s *sseSink) ApprovalRequired(tool, id, reason string, args map[string]any, token string) engine.Decision {
	s.emit("approval", map[string]any{"tool": tool, "id": id, "reason": reason, "args": args, "token": token})
	if s.decide == nil {
		return engine.DecisionDeferred
	}
	return s.decide(token)
}

func (s *sseSink) Final(content string) {
	s.emit("final", map[string]any{"content": content})
}
