package tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitArgvHonorsQuotes(t *testing.T) {
	argv, err := splitArgv(`echo "hello world" 'second   arg'`)
	require.NoError(t, err)
	assert.Equal(t, []string{"echo", "hello world", "second   arg"}, argv)
}

func TestSplitArgvUnterminatedQuote(t *testing.T) {
	_, err := splitArgv(`echo "oops`)
	assert.Error(t, err)
}

func TestRunShellCapturesStdout(t *testing.T) {
	ws := testWorkspace(t)
	tctx := Context{WorkspaceRoot: ws, ToolTimeout: 5 * time.Second}
	res := runShell(context.Background(), tctx, map[string]any{"cmd": "echo hello"})
	require.Nil(t, res["error"])
	assert.Equal(t, "hello\n", res["stdout"])
	assert.Equal(t, 0, res["exit_status"])
}

func TestRunShellNonZeroExit(t *testing.T) {
	ws := testWorkspace(t)
	tctx := Context{WorkspaceRoot: ws, ToolTimeout: 5 * time.Second}
	res := runShell(context.Background(), tctx, map[string]any{"cmd": "false"})
	assert.Equal(t, 1, res["exit_status"])
}

func TestRunShellTimeout(t *testing.T) {
	ws := testWorkspace(t)
	tctx := Context{WorkspaceRoot: ws, ToolTimeout: 5 * time.Second}
	res := runShell(context.Background(), tctx, map[string]any{"cmd": "sleep 5", "timeout": float64(1)})
	errMsg, _ := res["error"].(string)
	assert.NotEmpty(t, errMsg)
}

func TestRunShellRejectsEscapingCwd(t *testing.T) {
	ws := testWorkspace(t)
	tctx := Context{WorkspaceRoot: ws, ToolTimeout: 5 * time.Second}
	res := runShell(context.Background(), tctx, map[string]any{"cmd": "echo hi", "cwd": "../outside"})
	errMsg, _ := res["error"].(string)
	assert.Contains(t, errMsg, "workspace")
}
