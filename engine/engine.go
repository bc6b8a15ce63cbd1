// Package engine implements the deliberation loop, the approval arbiter,
// and the event sink contract that together drive a Provider through the
// JSON tool-call protocol to a final answer.
package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sidedotdev/agentic/config"
	"github.com/sidedotdev/agentic/logger"
	"github.com/sidedotdev/agentic/protocol"
	"github.com/sidedotdev/agentic/provider"
	"github.com/sidedotdev/agentic/risk"
	"github.com/sidedotdev/agentic/session"
	"github.com/sidedotdev/agentic/tools"
)

// maxToolResultChars bounds the tool-result message fed back to the LLM.
const maxToolResultChars = 5000

// Engine drives one Session through the bounded plan/act loop. It owns no
// state beyond what's in Session; Config, Provider, Registry and the audit
// sinks are wired once at construction.
type Engine struct {
	cfg       config.Config
	prov      provider.Provider
	registry  *tools.Registry
	sess      *session.Session
	llmAudit  *logger.AuditSink
	toolAudit *logger.AuditSink
}

// New builds an Engine bound to sess. llmAudit/toolAudit may be nil, in
// which case audit logging is skipped.
func New(cfg config.Config, prov provider.Provider, registry *tools.Registry, sess *session.Session, llmAudit, toolAudit *logger.AuditSink) *Engine {
	return &Engine{cfg: cfg, prov: prov, registry: registry, sess: sess, llmAudit: llmAudit, toolAudit: toolAudit}
}

// ChatOnce runs the non-streaming deliberation loop.
func (e *Engine) ChatOnce(ctx context.Context, sink Sink, input string) (string, error) {
	if e.sess.HasPending() {
		return "", fmt.Errorf("deliberation already has a pending approval")
	}
	if input != "" {
		e.sess.Append(session.RoleUser, input)
	}
	return e.run(ctx, sink, false)
}

// ChatStream runs the streaming deliberation loop, resetting the cancel
// flag on entry. Providers lacking a real stream fall back transparently
// to non-streaming generation but still drive the same loop and emit the
// same final event.
func (e *Engine) ChatStream(ctx context.Context, sink Sink, input string) (string, error) {
	if e.sess.HasPending() {
		return "", fmt.Errorf("deliberation already has a pending approval")
	}
	e.sess.ResetCancel()
	if input != "" {
		e.sess.Append(session.RoleUser, input)
	}
	return e.run(ctx, sink, true)
}

// RequestCancel sets the session's monotone cancel flag.
func (e *Engine) RequestCancel() {
	e.sess.RequestCancel()
}

// HasPendingApproval reports whether a deferred approval is outstanding.
func (e *Engine) HasPendingApproval() bool {
	return e.sess.HasPending()
}

// ResolveApproval consumes the pending approval matching token, dispatches or denies the
// tool, and reports the outcome. Callers that want the loop to continue
// (the SSE adapter does) should follow an approved resolve with a fresh
// ChatOnce/ChatStream call using empty input.
func (e *Engine) ResolveApproval(ctx context.Context, sink Sink, token string, approve bool) (map[string]any, error) {
	pending, ok := e.sess.TakePending(token)
	if !ok {
		return map[string]any{"error": "no matching pending approval"}, nil
	}
	if !approve {
		e.sess.Append(session.RoleUser, fmt.Sprintf("Tool %s was denied by user. Provide alternative or ask clarification.", pending.Tool))
		return map[string]any{"approved": false}, nil
	}
	result := e.dispatch(ctx, sink, pending.Tool, pending.ToolID, pending.Args)
	return map[string]any{"approved": true, "result": result}, nil
}

// run is the shared 8-step loop body for ChatOnce/ChatStream.
func (e *Engine) run(ctx context.Context, sink Sink, streaming bool) (string, error) {
	for step := 0; step < e.cfg.MaxSteps; step++ {
		if e.sess.Cancelled() {
			return "", nil
		}

		result, err := e.generate(ctx, sink, streaming)
		if err != nil {
			// ProviderError: surface the failure as assistant content and
			// let the step budget run out rather than aborting the run.
			sink.AssistantRaw(err.Error())
			e.sess.Append(session.RoleAssistant, err.Error())
			continue
		}
		if e.sess.Cancelled() {
			return "", nil
		}

		if result.Reasoning != "" {
			sink.Reasoning(result.Reasoning)
		}
		sink.Raw(result.Raw)
		sink.AssistantRaw(result.Content)
		e.sess.Append(session.RoleAssistant, result.Content)

		if e.llmAudit != nil {
			e.llmAudit.LLMEvent("recv", result.Content, result.Reasoning, result.Raw)
		}

		obj, ok := protocol.ExtractObject(result.Content)
		if !ok {
			e.sess.Append(session.RoleUser, "Your last response was not valid JSON. Respond with a single JSON object of shape {\"type\":\"tool\",...} or {\"type\":\"final\",...}.")
			continue
		}

		switch protocol.Kind(obj) {
		case "final":
			final := protocol.DecodeFinal(obj)
			sink.Final(final.Content)
			return final.Content, nil

		case "tool":
			tc := protocol.DecodeToolCall(obj)
			sink.ToolCall(tc.Tool, tc.ID, tc.Args, tc.Note)

			decision, token := e.arbitrate(sink, tc)
			switch decision {
			case DecisionDenied:
				e.sess.Append(session.RoleUser, fmt.Sprintf("Tool %s was denied by user. Provide alternative or ask clarification.", tc.Tool))
				continue
			case DecisionDeferred:
				e.sess.SetPending(session.PendingApproval{Token: token, Tool: tc.Tool, ToolID: tc.ID, Args: tc.Args})
				return "", nil
			default: // DecisionApproved
				e.dispatch(ctx, sink, tc.Tool, tc.ID, tc.Args)
				continue
			}

		default:
			e.sess.Append(session.RoleUser, "Unrecognized message type. Respond with {\"type\":\"final\",...} or {\"type\":\"tool\",...}.")
			continue
		}
	}
	return "", nil
}

// generate performs one provider round, streaming when requested and
// falling back to a synchronous call when the provider yields no stream.
func (e *Engine) generate(ctx context.Context, sink Sink, streaming bool) (provider.Result, error) {
	params := provider.Params{
		Model:           e.cfg.Model,
		ReasoningMode:   string(e.cfg.ReasoningMode),
		ReasoningEffort: string(e.cfg.ReasoningEffort),
	}
	messages := e.sess.Messages()

	reqCtx := ctx
	var cancel context.CancelFunc
	if e.cfg.RequestTimeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, e.cfg.RequestTimeout)
		defer cancel()
	}

	if e.llmAudit != nil {
		if last := lastUserText(messages); last != "" {
			e.llmAudit.LLMEvent("send", last, "", nil)
		}
	}

	if !streaming {
		return e.prov.Generate(reqCtx, messages, params)
	}

	stream, err := e.prov.GenerateStream(reqCtx, messages, params)
	if err != nil {
		return provider.Result{}, err
	}
	if stream == nil {
		return e.prov.Generate(reqCtx, messages, params)
	}
	defer stream.Close()

	for {
		if e.sess.Cancelled() {
			_ = stream.Close()
			return provider.Result{}, nil
		}
		ev, ok, err := stream.Next(reqCtx)
		if err != nil {
			return provider.Result{}, err
		}
		if !ok {
			return provider.Result{}, fmt.Errorf("provider stream closed without a final event")
		}
		if ev.Final {
			return provider.Result{Content: ev.Content, Reasoning: ev.Reasoning, Raw: ev.Raw}, nil
		}
		if ev.Text != "" {
			sink.StreamText(ev.Text)
		}
		if ev.Reasoning != "" {
			sink.StreamReasoning(ev.Reasoning)
		}
	}
}

// arbitrate runs the risk classifier and, if approval is required, the
// sink's three-valued decision callback.
func (e *Engine) arbitrate(sink Sink, tc protocol.ToolCall) (Decision, string) {
	verdict := risk.Classify(e.cfg.ApprovalPolicy, tc.Tool, tc.Args)
	if !verdict.NeedApproval {
		return DecisionApproved, ""
	}
	token := uuid.NewString()
	switch sink.ApprovalRequired(tc.Tool, tc.ID, verdict.Reason, tc.Args, token) {
	case DecisionApproved:
		return DecisionApproved, ""
	case DecisionDenied:
		return DecisionDenied, ""
	default:
		return DecisionDeferred, token
	}
}

// dispatch runs the tool, emits the result event, records the audit log,
// appends the TOOL_RESULT feedback message, and returns the raw result map.
func (e *Engine) dispatch(ctx context.Context, sink Sink, tool, toolID string, args map[string]any) map[string]any {
	tctx := tools.Context{
		WorkspaceRoot: e.cfg.WorkspaceRoot,
		ConfigDir:     e.cfg.ConfigDir,
		ToolTimeout:   e.cfg.ToolTimeout,
	}
	dispatchCtx := ctx
	var cancel context.CancelFunc
	if e.cfg.ToolTimeout > 0 {
		dispatchCtx, cancel = context.WithTimeout(ctx, e.cfg.ToolTimeout)
		defer cancel()
	}

	result := e.registry.Dispatch(dispatchCtx, tctx, tool, args)
	sink.ToolResult(toolID, result)

	if e.toolAudit != nil {
		e.toolAudit.ToolEvent(tool, args, result)
	}

	e.sess.Append(session.RoleUser, fmt.Sprintf("TOOL_RESULT[%s]: %s", toolID, truncateJSON(result)))
	return result
}

func truncateJSON(v map[string]any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"error":"marshal failed: %s"}`, err.Error())
	}
	s := string(raw)
	if len(s) <= maxToolResultChars {
		return s
	}
	return s[:maxToolResultChars] + "...<truncated>"
}

func lastUserText(messages []session.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == session.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}
