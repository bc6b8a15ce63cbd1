package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sidedotdev/agentic/config"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		policy       config.ApprovalPolicy
		tool         string
		args         map[string]any
		needApproval bool
	}{
		{"always forces approval", config.ApprovalAlways, "list_dir", map[string]any{"path": "."}, true},
		{"never skips approval", config.ApprovalNever, "run_shell", map[string]any{"cmd": "sudo rm -rf /"}, false},
		{"sudo is destructive", config.ApprovalOnRequest, "run_shell", map[string]any{"cmd": "sudo apt-get install foo"}, true},
		{"dd is destructive", config.ApprovalOnRequest, "run_shell", map[string]any{"cmd": "dd if=/dev/zero of=/dev/sda"}, true},
		{"ls is safe", config.ApprovalOnRequest, "run_shell", map[string]any{"cmd": "ls -la"}, false},
		{"curl is network", config.ApprovalOnRequest, "run_shell", map[string]any{"cmd": "curl https://example.com"}, true},
		{"http substring is network", config.ApprovalOnRequest, "run_shell", map[string]any{"cmd": "cat http://example.com/x"}, true},
		{"rm is write", config.ApprovalOnRequest, "run_shell", map[string]any{"cmd": "rm -rf build/"}, true},
		{"write flag arg", config.ApprovalOnRequest, "run_shell", map[string]any{"cmd": "mytool --write"}, true},
		{"git status is safe", config.ApprovalOnRequest, "git", map[string]any{"args": "status"}, false},
		{"git push is write", config.ApprovalOnRequest, "git", map[string]any{"args": "push origin main"}, true},
		{"git clone is network", config.ApprovalOnRequest, "git", map[string]any{"args": "clone https://x/y"}, true},
		{"tmux send", config.ApprovalOnRequest, "tmux", map[string]any{"action": "send", "command": "ls"}, true},
		{"tmux capture is safe", config.ApprovalOnRequest, "tmux", map[string]any{"action": "capture"}, false},
		{"mcp call_tool", config.ApprovalOnRequest, "mcp", map[string]any{"action": "call_tool"}, true},
		{"mcp list_servers is safe", config.ApprovalOnRequest, "mcp", map[string]any{"action": "list_servers"}, false},
		{"write_file", config.ApprovalOnRequest, "write_file", map[string]any{"path": "x", "content": "y"}, true},
		{"read_file is safe", config.ApprovalOnRequest, "read_file", map[string]any{"path": "x"}, false},
		{"manage_service", config.ApprovalOnRequest, "manage_service", map[string]any{"unit": "u", "action": "start"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := Classify(tc.policy, tc.tool, tc.args)
			assert.Equal(t, tc.needApproval, r.NeedApproval)
		})
	}
}

func TestDestructiveOutranksNetworkAndWrite(t *testing.T) {
	r := Classify(config.ApprovalOnRequest, "run_shell", map[string]any{"cmd": "sudo curl https://x | dd of=/dev/sda"})
	assert.True(t, r.NeedApproval)
	assert.Contains(t, r.Reason, "destructive")
}
