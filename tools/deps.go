package tools

import "github.com/sidedotdev/agentic/mcpclient"

// Deps bundles the handler dependencies that don't fit the stateless
// (ctx, tctx, args) -> result shape: the MCP server registry shared across
// calls for the lifetime of the engine, and an optional headless browser
// binary path (empty means the built-in candidate list is searched).
type Deps struct {
	MCPRegistry *mcpclient.Registry
	BrowserBin  string
}
