// Package risk implements the pure (tool, args) -> need_approval
// classifier consulted before every tool dispatch.
package risk

import (
	"strings"

	"github.com/sidedotdev/agentic/config"
)

// Result is the classifier's verdict.
type Result struct {
	NeedApproval bool
	Reason       string
}

var shellDestructiveSubstrings = []string{"mkfs", ":(){:|:&};:", "dd", "wipefs", "fdisk", "parted"}

var shellNetworkFirstTokens = map[string]bool{
	"apt": true, "apt-get": true, "curl": true, "wget": true, "pip": true,
	"npm": true, "pnpm": true, "composer": true, "go": true, "cargo": true, "git": true,
}

var shellWriteFirstTokens = map[string]bool{
	"rm": true, "mv": true, "cp": true, "chmod": true, "chown": true, "tee": true,
	"truncate": true, "sed": true, "awk": true, "touch": true, "mkdir": true,
	"rmdir": true, "ln": true, "systemctl": true, "service": true, "docker": true,
	"podman": true, "kubectl": true,
}

var gitNetworkSubstrings = []string{"clone", "fetch", "pull", "submodule update", "remote add", "lfs"}
var gitWriteSubstrings = []string{"push", "commit", "merge", "rebase", "reset", "checkout", "apply", "cherry-pick", "revert"}

var alwaysApprovalTools = map[string]bool{
	"write_file": true, "web_get": true, "web_search": true, "browser_headless": true,
	"manage_service": true, "delete_path": true, "move_path": true, "copy_path": true,
	"make_dir": true, "replace_in_file": true,
}

// Classify returns the approval requirement for one (tool, args) pair under
// the given policy. Tie-break order within a single tool's rule set is
// destructive > network > write; the first rule to fire wins.
func Classify(policy config.ApprovalPolicy, tool string, args map[string]any) Result {
	switch policy {
	case config.ApprovalAlways:
		return Result{NeedApproval: true, Reason: "policy=always"}
	case config.ApprovalNever:
		return Result{NeedApproval: false}
	}

	switch tool {
	case "run_shell":
		return classifyShell(args)
	case "git":
		return classifyGit(args)
	case "tmux":
		if action, _ := args["action"].(string); action == "send" {
			return Result{NeedApproval: true, Reason: "tmux send"}
		}
		return Result{NeedApproval: false}
	case "mcp":
		switch action, _ := args["action"].(string); action {
		case "register", "unregister", "set_config", "call_tool":
			return Result{NeedApproval: true, Reason: "mcp " + action}
		}
		return Result{NeedApproval: false}
	}

	if alwaysApprovalTools[tool] {
		return Result{NeedApproval: true, Reason: tool}
	}
	return Result{NeedApproval: false}
}

func classifyShell(args map[string]any) Result {
	cmd, _ := args["cmd"].(string)
	tokens := strings.Fields(cmd)
	lower := strings.ToLower(cmd)

	for _, t := range tokens {
		if t == "sudo" {
			return Result{NeedApproval: true, Reason: "destructive: sudo"}
		}
	}
	for _, sub := range shellDestructiveSubstrings {
		if strings.Contains(lower, sub) {
			return Result{NeedApproval: true, Reason: "destructive: " + sub}
		}
	}

	if len(tokens) > 0 && shellNetworkFirstTokens[tokens[0]] {
		return Result{NeedApproval: true, Reason: "network: " + tokens[0]}
	}
	if strings.Contains(lower, "http") {
		return Result{NeedApproval: true, Reason: "network: http substring"}
	}

	if len(tokens) > 0 && shellWriteFirstTokens[tokens[0]] {
		return Result{NeedApproval: true, Reason: "write: " + tokens[0]}
	}
	for _, t := range tokens {
		if t == "--write" || t == "--save" {
			return Result{NeedApproval: true, Reason: "write: " + t}
		}
	}

	return Result{NeedApproval: false, Reason: "safe"}
}

func classifyGit(args map[string]any) Result {
	gitArgs, _ := args["args"].(string)
	if gitArgs == "" {
		if list, ok := args["args"].([]any); ok {
			parts := make([]string, 0, len(list))
			for _, v := range list {
				if s, ok := v.(string); ok {
					parts = append(parts, s)
				}
			}
			gitArgs = strings.Join(parts, " ")
		}
	}
	lower := strings.ToLower(gitArgs)

	for _, sub := range gitNetworkSubstrings {
		if strings.Contains(lower, sub) {
			return Result{NeedApproval: true, Reason: "network: " + sub}
		}
	}
	for _, sub := range gitWriteSubstrings {
		if strings.Contains(lower, sub) {
			return Result{NeedApproval: true, Reason: "write: " + sub}
		}
	}
	return Result{NeedApproval: false, Reason: "safe"}
}
