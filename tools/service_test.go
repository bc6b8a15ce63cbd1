package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManageServiceRejectsUnknownAction(t *testing.T) {
	ws := testWorkspace(t)
	tctx := Context{WorkspaceRoot: ws}
	res := manageService(context.Background(), tctx, map[string]any{"action": "nuke", "unit": "foo"})
	assert.NotNil(t, res["error"])
}

func TestManageServiceRequiresUnitAndAction(t *testing.T) {
	ws := testWorkspace(t)
	tctx := Context{WorkspaceRoot: ws}
	res := manageService(context.Background(), tctx, map[string]any{})
	assert.NotNil(t, res["error"])
}
