package tools

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initGitRepo(t *testing.T, ws string) {
	t.Helper()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = ws
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}
	run("init")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")
}

func TestGitToolRunsInWorkspace(t *testing.T) {
	ws := testWorkspace(t)
	initGitRepo(t, ws)
	tctx := Context{WorkspaceRoot: ws, ToolTimeout: 5 * time.Second}

	res := gitTool(context.Background(), tctx, map[string]any{"args": "status --short"})
	require.Nil(t, res["error"])
	assert.Equal(t, 0, res["exit_status"])
	assert.Equal(t, "git status --short", res["command_line"])
}

func TestGitToolStatConvenience(t *testing.T) {
	ws := testWorkspace(t)
	initGitRepo(t, ws)
	tctx := Context{WorkspaceRoot: ws, ToolTimeout: 5 * time.Second}
	ctx := context.Background()

	writeFile(ctx, tctx, map[string]any{"path": "a.txt", "content": "one"})
	gitTool(ctx, tctx, map[string]any{"args": "add a.txt"})
	gitTool(ctx, tctx, map[string]any{"args": "commit -m init"})
	writeFile(ctx, tctx, map[string]any{"path": "a.txt", "content": "two"})

	res := gitTool(ctx, tctx, map[string]any{"args": "diff --stat", "stat": true})
	require.Nil(t, res["error"])
	assert.NotEmpty(t, res["stat"])
}

func TestGitToolRequiresArgs(t *testing.T) {
	ws := testWorkspace(t)
	tctx := Context{WorkspaceRoot: ws}
	res := gitTool(context.Background(), tctx, map[string]any{})
	assert.NotNil(t, res["error"])
}
