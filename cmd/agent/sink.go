package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sidedotdev/agentic/engine"
)

// terminalSink renders engine events to the terminal and answers approval
// prompts synchronously from stdin, so a CLI run never defers.
type terminalSink struct {
	out       io.Writer
	in        *bufio.Reader
	streaming bool
}

func newTerminalSink(out io.Writer, in io.Reader) *terminalSink {
	return &terminalSink{out: out, in: bufio.NewReader(in)}
}

func (s *terminalSink) AssistantRaw(text string) {
	if s.streaming {
		// deltas already printed this text
		s.streaming = false
		fmt.Fprintln(s.out)
		return
	}
}

func (s *terminalSink) Reasoning(text string) {}

func (s *terminalSink) Raw(raw any) {}

func (s *terminalSink) StreamText(delta string) {
	s.streaming = true
	fmt.Fprint(s.out, delta)
}

func (s *terminalSink) StreamReasoning(delta string) {}

func (s *terminalSink) ToolCall(tool, id string, args map[string]any, note string) {
	argsJSON, _ := json.Marshal(args)
	if note != "" {
		fmt.Fprintf(s.out, "[tool %s] %s %s (%s)\n", id, tool, argsJSON, note)
	} else {
		fmt.Fprintf(s.out, "[tool %s] %s %s\n", id, tool, argsJSON)
	}
}

func (s *terminalSink) ToolResult(id string, result map[string]any) {
	resultJSON, _ := json.Marshal(result)
	text := string(resultJSON)
	if len(text) > 400 {
		text = text[:400] + "..."
	}
	fmt.Fprintf(s.out, "[result %s] %s\n", id, text)
}

func (s *terminalSink) ApprovalRequired(tool, id, reason string, args map[string]any, token string) engine.Decision {
	argsJSON, _ := json.Marshal(args)
	fmt.Fprintf(s.out, "approve %s (%s)? %s [y/N] ", tool, reason, argsJSON)
	line, err := s.in.ReadString('\n')
	if err != nil {
		return engine.DecisionDenied
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return engine.DecisionApproved
	default:
		return engine.DecisionDenied
	}
}

func (s *terminalSink) Final(content string) {
	fmt.Fprintln(s.out, content)
}
