package provider

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
)

// ChunkDecoder adapts a provider's wire framing into the Stream contract.
// A concrete Provider only needs to build the HTTP request and hand the
// response body to the right decoder; the decoder owns event precedence
// and final-event consolidation.
type ChunkDecoder interface {
	Stream
}

// SSEDecoder decodes a provider's server-sent-event stream: lines starting
// with "data: " carry a JSON chunk, and the sentinel "[DONE]" terminates.
// Per-chunk field precedence: choices[0].delta.content -> text delta;
// choices[0].delta.reasoning (string) or choices[0].reasoning_content
// (list of {text}) -> reasoning delta. The last chunk seen is retained as
// the final event's Raw.
type SSEDecoder struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	builder strings.Builder
	lastRaw map[string]any
	done    bool
}

// NewSSEDecoder wraps body (an HTTP response body) as an SSE stream.
func NewSSEDecoder(body io.ReadCloser) *SSEDecoder {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	return &SSEDecoder{body: body, scanner: sc}
}

func (d *SSEDecoder) Next(ctx context.Context) (Event, bool, error) {
	if d.done {
		return Event{}, false, nil
	}
	for d.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return Event{}, false, err
		}
		line := d.scanner.Text()
		if !strings.HasPrefix(line, "data: ") && !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimPrefix(strings.TrimPrefix(line, "data: "), "data:")
		payload = strings.TrimSpace(payload)
		if payload == "[DONE]" {
			d.done = true
			return Event{Final: true, Content: consolidatedContent(d.lastRaw, d.builder.String()), Raw: d.lastRaw}, true, nil
		}
		var chunk map[string]any
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue
		}
		d.lastRaw = chunk
		if textDelta, ok := sseTextDelta(chunk); ok {
			d.builder.WriteString(textDelta)
			return Event{Text: textDelta, Raw: chunk}, true, nil
		}
		if reasoningDelta, ok := sseReasoningDelta(chunk); ok {
			return Event{Reasoning: reasoningDelta, Raw: chunk}, true, nil
		}
	}
	if err := d.scanner.Err(); err != nil {
		return Event{}, false, err
	}
	d.done = true
	return Event{Final: true, Content: consolidatedContent(d.lastRaw, d.builder.String()), Raw: d.lastRaw}, true, nil
}

func (d *SSEDecoder) Close() error {
	return d.body.Close()
}

func sseTextDelta(chunk map[string]any) (string, bool) {
	choices, _ := chunk["choices"].([]any)
	if len(choices) == 0 {
		return "", false
	}
	first, _ := choices[0].(map[string]any)
	delta, _ := first["delta"].(map[string]any)
	if delta == nil {
		return "", false
	}
	if s, ok := delta["content"].(string); ok && s != "" {
		return s, true
	}
	return "", false
}

func sseReasoningDelta(chunk map[string]any) (string, bool) {
	choices, _ := chunk["choices"].([]any)
	if len(choices) == 0 {
		return "", false
	}
	first, _ := choices[0].(map[string]any)
	if delta, ok := first["delta"].(map[string]any); ok {
		if s, ok := delta["reasoning"].(string); ok && s != "" {
			return s, true
		}
	}
	if rc, ok := first["reasoning_content"].([]any); ok {
		var b strings.Builder
		for _, item := range rc {
			if m, ok := item.(map[string]any); ok {
				if t, ok := m["text"].(string); ok {
					b.WriteString(t)
				}
			}
		}
		if b.Len() > 0 {
			return b.String(), true
		}
	}
	return "", false
}

// consolidatedContent prefers a provider-embedded consolidated field over
// the concatenation of observed deltas.
func consolidatedContent(lastRaw map[string]any, accumulated string) string {
	if lastRaw == nil {
		return accumulated
	}
	if choices, ok := lastRaw["choices"].([]any); ok && len(choices) > 0 {
		if first, ok := choices[0].(map[string]any); ok {
			if msg, ok := first["message"].(map[string]any); ok {
				if s, ok := msg["content"].(string); ok && s != "" {
					return s
				}
			}
		}
	}
	return accumulated
}

// NDJSONDecoder decodes a provider's newline-delimited-JSON stream: each
// line is one object; {message:{content}} contributes a delta, and
// {done:true} terminates the stream.
type NDJSONDecoder struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	builder strings.Builder
	lastRaw map[string]any
	done    bool
}

// NewNDJSONDecoder wraps body as a newline-delimited-JSON stream.
func NewNDJSONDecoder(body io.ReadCloser) *NDJSONDecoder {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	return &NDJSONDecoder{body: body, scanner: sc}
}

func (d *NDJSONDecoder) Next(ctx context.Context) (Event, bool, error) {
	if d.done {
		return Event{}, false, nil
	}
	for d.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return Event{}, false, err
		}
		line := strings.TrimSpace(d.scanner.Text())
		if line == "" {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			continue
		}
		d.lastRaw = obj
		if isDone, _ := obj["done"].(bool); isDone {
			d.done = true
			content := d.builder.String()
			if msg, ok := obj["message"].(map[string]any); ok {
				if s, ok := msg["content"].(string); ok && s != "" {
					content = s
				}
			}
			return Event{Final: true, Content: content, Raw: obj}, true, nil
		}
		if msg, ok := obj["message"].(map[string]any); ok {
			if s, ok := msg["content"].(string); ok && s != "" {
				d.builder.WriteString(s)
				return Event{Text: s, Raw: obj}, true, nil
			}
		}
	}
	if err := d.scanner.Err(); err != nil {
		return Event{}, false, err
	}
	d.done = true
	return Event{Final: true, Content: d.builder.String(), Raw: d.lastRaw}, true, nil
}

func (d *NDJSONDecoder) Close() error {
	return d.body.Close()
}
