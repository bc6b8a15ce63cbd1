package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sidedotdev/agentic/session"
)

// decoderKind selects which ChunkDecoder a wire format needs.
type decoderKind int

const (
	decoderSSE decoderKind = iota
	decoderNDJSON
)

// HTTPProvider is a generic OpenAI-chat-completions-shaped or Ollama-chat-
// shaped provider. It exists so the CLI's --provider flag has somewhere
// real to land, built on the abstract contract plus the two chunk decoders
// in decoder.go.
type HTTPProvider struct {
	Name        string
	BaseURL     string
	APIKeyEnv   string
	ChatPath    string
	Decoder     decoderKind
	HTTPClient  *http.Client
	ExtraHeader map[string]string
}

func (p *HTTPProvider) apiKey() string {
	if p.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(p.APIKeyEnv)
}

func (p *HTTPProvider) buildRequest(ctx context.Context, messages []session.Message, params Params, stream bool) (*http.Request, error) {
	body := map[string]any{
		"model":    params.Model,
		"messages": toWireMessages(messages),
		"stream":   stream,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+p.ChatPath, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if key := p.apiKey(); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	for k, v := range p.ExtraHeader {
		req.Header.Set(k, v)
	}
	return req, nil
}

func toWireMessages(messages []session.Message) []map[string]string {
	out := make([]map[string]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, map[string]string{"role": string(m.Role), "content": m.Content})
	}
	return out
}

func (p *HTTPProvider) client() *http.Client {
	if p.HTTPClient != nil {
		return p.HTTPClient
	}
	return http.DefaultClient
}

// Generate performs a non-streaming request by driving GenerateStream to
// completion and discarding the deltas, matching providers that have no
// cheaper non-streaming path.
func (p *HTTPProvider) Generate(ctx context.Context, messages []session.Message, params Params) (Result, error) {
	stream, err := p.GenerateStream(ctx, messages, params)
	if err != nil {
		return Result{}, err
	}
	defer stream.Close()
	for {
		ev, ok, err := stream.Next(ctx)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{}, fmt.Errorf("%s: stream ended without a final event", p.Name)
		}
		if ev.Final {
			return Result{Content: ev.Content, Raw: ev.Raw}, nil
		}
	}
}

func (p *HTTPProvider) GenerateStream(ctx context.Context, messages []session.Message, params Params) (Stream, error) {
	req, err := p.buildRequest(ctx, messages, params, true)
	if err != nil {
		return nil, err
	}
	resp, err := p.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", p.Name, err)
	}
	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return &errorStream{result: Result{Content: string(raw)}}, nil
	}
	switch p.Decoder {
	case decoderNDJSON:
		return NewNDJSONDecoder(resp.Body), nil
	default:
		return NewSSEDecoder(resp.Body), nil
	}
}

// errorStream is a one-shot Stream that immediately yields a final event
// whose Content is the raw error payload, per the ProviderError handling
// described: the engine continues the loop rather than
// failing the whole process.
type errorStream struct {
	result  Result
	emitted bool
}

func (e *errorStream) Next(ctx context.Context) (Event, bool, error) {
	if e.emitted {
		return Event{}, false, nil
	}
	e.emitted = true
	return Event{Final: true, Content: e.result.Content, Raw: e.result.Raw}, true, nil
}

func (e errorStream) Close() error { return nil }

// NewProvider builds the HTTPProvider matching one of the five --provider
// names ollamaURL/lmstudioURL come from Config.
func NewProvider(name, ollamaURL, lmstudioURL string) (Provider, error) {
	timeout := 0 * time.Second // per-request timeout is applied via context by the engine
	client := &http.Client{Timeout: timeout}
	switch name {
	case "ollama":
		base := ollamaURL
		if base == "" {
			base = "http://localhost:11434"
		}
		return &HTTPProvider{Name: name, BaseURL: base, ChatPath: "/api/chat", Decoder: decoderNDJSON, HTTPClient: client}, nil
	case "lmstudio":
		base := lmstudioURL
		if base == "" {
			base = "http://localhost:1234"
		}
		return &HTTPProvider{Name: name, BaseURL: base, ChatPath: "/v1/chat/completions", Decoder: decoderSSE, HTTPClient: client}, nil
	case "openai":
		base := os.Getenv("OPENAI_BASE_URL")
		if base == "" {
			base = "https://api.openai.com"
		}
		return &HTTPProvider{Name: name, BaseURL: base, APIKeyEnv: "OPENAI_API_KEY", ChatPath: "/v1/chat/completions", Decoder: decoderSSE, HTTPClient: client}, nil
	case "openrouter":
		base := os.Getenv("OPENROUTER_BASE_URL")
		if base == "" {
			base = "https://openrouter.ai/api"
		}
		return &HTTPProvider{Name: name, BaseURL: base, APIKeyEnv: "OPENROUTER_API_KEY", ChatPath: "/v1/chat/completions", Decoder: decoderSSE, HTTPClient: client}, nil
	case "anthropic":
		base := os.Getenv("ANTHROPIC_BASE_URL")
		if base == "" {
			base = "https://api.anthropic.com"
		}
		return &HTTPProvider{Name: name, APIKeyEnv: "ANTHROPIC_API_KEY", BaseURL: base, ChatPath: "/v1/messages", Decoder: decoderSSE, HTTPClient: client, ExtraHeader: map[string]string{"anthropic-version": "2023-06-01"}}, nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
}
