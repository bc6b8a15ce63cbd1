package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidedotdev/agentic/config"
	"github.com/sidedotdev/agentic/engine"
	"github.com/sidedotdev/agentic/provider"
	"github.com/sidedotdev/agentic/session"
	"github.com/sidedotdev/agentic/tools"
)

type scriptedProvider struct {
	responses []string
	calls     int
}

func (p *scriptedProvider) next() (provider.Result, error) {
	if p.calls >= len(p.responses) {
		return provider.Result{}, fmt.Errorf("scripted provider exhausted")
	}
	content := p.responses[p.calls]
	p.calls++
	return provider.Result{Content: content}, nil
}

func (p *scriptedProvider) Generate(ctx context.Context, messages []session.Message, params provider.Params) (provider.Result, error) {
	return p.next()
}

func (p *scriptedProvider) GenerateStream(ctx context.Context, messages []session.Message, params provider.Params) (provider.Stream, error) {
	result, err := p.next()
	if err != nil {
		return nil, err
	}
	return &oneShotStream{result: result}, nil
}

type oneShotStream struct {
	result provider.Result
	done   bool
}

func (s *oneShotStream) Next(ctx context.Context) (provider.Event, bool, error) {
	if s.done {
		return provider.Event{}, false, nil
	}
	s.done = true
	return provider.Event{Final: true, Content: s.result.Content}, true, nil
}

func (s *oneShotStream) Close() error { return nil }

func testServer(t *testing.T, policy config.ApprovalPolicy, responses ...string) (*Server, string) {
	t.Helper()
	ws := t.TempDir()
	cfg := config.Config{
		ApprovalPolicy: policy,
		WorkspaceRoot:  ws,
		ConfigDir:      ws,
		MaxSteps:       8,
		ToolTimeout:    5 * time.Second,
		ServePort:      0,
	}
	prov := &scriptedProvider{responses: responses}
	registry := tools.NewRegistry(tools.Deps{})
	sess := session.New("")
	eng := engine.New(cfg, prov, registry, sess, nil, nil)
	return New(cfg, eng, sess), ws
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestChatFinalOnly(t *testing.T) {
	srv, _ := testServer(t, config.ApprovalNever, `{"type":"final","content":"Hello."}`)
	router := srv.Routes()

	w := postJSON(t, router, "/api/chat", map[string]any{"input": "hi"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Events  []event `json:"events"`
		Pending any     `json:"pending"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Nil(t, resp.Pending)

	var names []string
	for _, e := range resp.Events {
		names = append(names, e.Name)
	}
	assert.Contains(t, names, "assistant_raw")
	assert.Contains(t, names, "final")
}

func TestChatDeferredApprovalAndResolve(t *testing.T) {
	srv, ws := testServer(t, config.ApprovalOnRequest,
		`{"type":"tool","id":"t1","tool":"write_file","args":{"path":"x.txt","content":"y"}}`,
		`{"type":"final","content":"written"}`)
	router := srv.Routes()

	w := postJSON(t, router, "/api/chat", map[string]any{"input": "write x"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Pending map[string]any `json:"pending"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Pending)
	token, _ := resp.Pending["token"].(string)
	require.NotEmpty(t, token)
	assert.Equal(t, "write_file", resp.Pending["tool"])

	w = postJSON(t, router, "/api/approve", map[string]any{"token": token, "approve": true})
	require.Equal(t, http.StatusOK, w.Code)

	var approveResp struct {
		Result  map[string]any `json:"result"`
		Events  []event        `json:"events"`
		Pending any            `json:"pending"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &approveResp))
	assert.Equal(t, true, approveResp.Result["approved"])
	assert.Nil(t, approveResp.Pending)

	_, err := os.Stat(filepath.Join(ws, "x.txt"))
	assert.NoError(t, err)

	var sawFinal bool
	for _, e := range approveResp.Events {
		if e.Name == "final" {
			sawFinal = true
			assert.Equal(t, "written", e.Payload["content"])
		}
	}
	assert.True(t, sawFinal, "the loop should continue to the final after an approved resolve")
}

func TestApproveUnknownToken(t *testing.T) {
	srv, _ := testServer(t, config.ApprovalOnRequest)
	router := srv.Routes()

	w := postJSON(t, router, "/api/approve", map[string]any{"token": "nope", "approve": true})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Result map[string]any `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "no matching pending approval", resp.Result["error"])
}

func TestAutoApproveToggle(t *testing.T) {
	srv, _ := testServer(t, config.ApprovalOnRequest)
	router := srv.Routes()

	req := httptest.NewRequest(http.MethodGet, "/api/auto_approve", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.JSONEq(t, `{"auto_approve":false}`, w.Body.String())

	w = postJSON(t, router, "/api/auto_approve", map[string]any{"auto_approve": true})
	assert.JSONEq(t, `{"auto_approve":true}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/auto_approve", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.JSONEq(t, `{"auto_approve":true}`, w.Body.String())
}

func TestAutoApproveSkipsDeferral(t *testing.T) {
	srv, ws := testServer(t, config.ApprovalOnRequest,
		`{"type":"tool","id":"t1","tool":"write_file","args":{"path":"x.txt","content":"y"}}`,
		`{"type":"final","content":"done"}`)
	srv.setAutoApprove(true)
	router := srv.Routes()

	w := postJSON(t, router, "/api/chat", map[string]any{"input": "write x"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Pending any `json:"pending"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Nil(t, resp.Pending)

	_, err := os.Stat(filepath.Join(ws, "x.txt"))
	assert.NoError(t, err)
}

func TestChatStreamEmitsSSEFrames(t *testing.T) {
	srv, _ := testServer(t, config.ApprovalNever, `{"type":"final","content":"streamed"}`)
	router := srv.Routes()

	req := httptest.NewRequest(http.MethodGet, "/api/chat_stream?q=hi", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	body := w.Body.String()
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")
	assert.Contains(t, body, "event:final")
	assert.Contains(t, body, "streamed")
	assert.Contains(t, body, "event:done")
}

func TestMalformedBodyIs400(t *testing.T) {
	srv, _ := testServer(t, config.ApprovalNever)
	router := srv.Routes()

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader([]byte("{nope")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownPathIs404(t *testing.T) {
	srv, _ := testServer(t, config.ApprovalNever)
	router := srv.Routes()

	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIndexServesHTML(t *testing.T) {
	srv, _ := testServer(t, config.ApprovalNever)
	router := srv.Routes()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "chat_stream")
}

func TestToolsListsSchemas(t *testing.T) {
	srv, _ := testServer(t, config.ApprovalNever)
	router := srv.Routes()

	req := httptest.NewRequest(http.MethodGet, "/api/tools", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Tools []map[string]any `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Tools)
	assert.Equal(t, "run_shell", resp.Tools[0]["name"])
	assert.NotNil(t, resp.Tools[0]["parameters"])
}
