// Package mcpclient implements a stdio JSON-RPC 2.0 client for the Model
// Context Protocol: a child process is spawned, its stdin/stdout
// are wired into a jsonrpc2.Conn with the VSCodeObjectCodec
// (Content-Length framing), and calls are made synchronously over that
// connection.
package mcpclient

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/sourcegraph/jsonrpc2"
)

// ReadWriteCloser adapts a child process's stdout/stdin pipes into a single
// io.ReadWriteCloser.
type ReadWriteCloser struct {
	io.Reader
	io.WriteCloser
}

func (rwc *ReadWriteCloser) Close() error {
	if err := rwc.WriteCloser.Close(); err != nil {
		return err
	}
	if closer, ok := rwc.Reader.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// defaultCallTimeout bounds any single JSON-RPC call.
const defaultCallTimeout = 30 * time.Second

type noopHandler struct{}

func (noopHandler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {}

// Tool is the MCP tool descriptor returned by tools/list.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// Client manages one spawned MCP server subprocess over stdio.
type Client struct {
	mu   sync.Mutex
	cmd  *exec.Cmd
	conn *jsonrpc2.Conn
}

// Start spawns command (argv[0] plus any remaining elements as args) with
// cwd and env, then performs the "initialize" handshake followed by the
// "initialized" notification. A failed "initialize" call is swallowed (the
// notification is then not sent), since several real-world MCP servers skip
// the handshake.
func Start(ctx context.Context, command []string, cwd string, env []string) (*Client, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("mcp server command is empty")
	}
	cmd := exec.Command(command[0], command[1:]...)
	cmd.Dir = cwd
	if env != nil {
		cmd.Env = env
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start mcp server: %w", err)
	}

	rwc := &ReadWriteCloser{stdout, stdin}
	conn := jsonrpc2.NewConn(ctx, jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{}), noopHandler{})

	c := &Client{cmd: cmd, conn: conn}

	initCtx, cancel := context.WithTimeout(ctx, defaultCallTimeout)
	defer cancel()
	var initResp map[string]any
	initParams := map[string]any{
		"protocolVersion": "2024-11-05",
		"capabilities":    map[string]any{"tools": map[string]any{"list": true, "call": true}},
		"clientInfo":      map[string]any{"name": "agentic", "version": "0.1.0"},
	}
	// Some MCP servers skip the initialize handshake entirely; that failure
	// is swallowed rather than aborting startup.
	if err := conn.Call(initCtx, "initialize", initParams, &initResp); err == nil {
		_ = conn.Notify(initCtx, "notifications/initialized", map[string]any{})
	}

	return c, nil
}

// ListTools issues tools/list.
func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	callCtx, cancel := context.WithTimeout(ctx, defaultCallTimeout)
	defer cancel()
	var resp struct {
		Tools []Tool `json:"tools"`
	}
	if err := c.conn.Call(callCtx, "tools/list", map[string]any{}, &resp); err != nil {
		return nil, err
	}
	return resp.Tools, nil
}

// CallTool issues tools/call for name with the given arguments.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any) (map[string]any, error) {
	callCtx, cancel := context.WithTimeout(ctx, defaultCallTimeout)
	defer cancel()
	params := map[string]any{"name": name, "arguments": arguments}
	var resp map[string]any
	if err := c.conn.Call(callCtx, "tools/call", params, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Close attempts a best-effort "shutdown" call, then terminates the
// subprocess regardless of whether that call succeeds.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = c.conn.Call(shutdownCtx, "shutdown", map[string]any{}, nil)
		cancel()
		_ = c.conn.Close()
	}
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
	}
	return nil
}
