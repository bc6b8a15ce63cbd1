package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidedotdev/agentic/mcpclient"
)

func TestMCPToolRegisterListUnregister(t *testing.T) {
	ws := testWorkspace(t)
	deps := Deps{MCPRegistry: mcpclient.NewRegistry(ws)}
	handler := mcpTool(deps)
	ctx := context.Background()
	tctx := Context{WorkspaceRoot: ws, ConfigDir: ws}

	res := handler(ctx, tctx, map[string]any{"action": "register", "name": "fs", "command": "mcp-server-fs"})
	require.Nil(t, res["error"])

	listRes := handler(ctx, tctx, map[string]any{"action": "list_servers"})
	servers, _ := listRes["servers"].([]map[string]any)
	require.Len(t, servers, 1)
	assert.Equal(t, "fs", servers[0]["name"])
	assert.Equal(t, "stdio", servers[0]["transport"])

	unregRes := handler(ctx, tctx, map[string]any{"action": "unregister", "name": "fs"})
	require.Nil(t, unregRes["error"])
}

func TestMCPToolRejectsMissingRegistry(t *testing.T) {
	ws := testWorkspace(t)
	handler := mcpTool(Deps{})
	res := handler(context.Background(), Context{WorkspaceRoot: ws}, map[string]any{"action": "list_servers"})
	assert.NotNil(t, res["error"])
}
