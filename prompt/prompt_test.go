package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderSystemListsEveryTool(t *testing.T) {
	out := RenderSystem("/work")
	assert.Contains(t, out, "/work")
	for _, name := range []string{"run_shell", "read_file", "write_file", "plan", "mcp", "memory_search"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, `"type":"final"`)
	assert.Contains(t, out, "TOOL_RESULT[")
}
