package tools

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// tmuxTool shells out to tmux for session management. The "send" action
// passes both the command and the literal token "Enter" as argv to
// "tmux send-keys"; argv is built directly rather than shell-interpolated.
func tmuxTool(ctx context.Context, tctx Context, args map[string]any) map[string]any {
	action := argString(args, "action")
	name := argString(args, "name")

	timeout := tctx.ToolTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	switch action {
	case "ensure":
		has := exec.CommandContext(runCtx, "tmux", "has-session", "-t", name)
		if err := has.Run(); err == nil {
			return map[string]any{"created": false, "name": name}
		}
		newArgv := []string{"new-session", "-d", "-s", name}
		if cwd := argString(args, "cwd"); cwd != "" {
			resolved, err := resolveWorkspacePath(tctx.WorkspaceRoot, cwd)
			if err != nil {
				return errMap(err.Error())
			}
			newArgv = append(newArgv, "-c", resolved)
		}
		out, errOut, _, err := runTmux(runCtx, newArgv)
		if err != nil {
			return errMap(err.Error() + ": " + errOut)
		}
		_ = out
		return map[string]any{"created": true, "name": name}
	case "send":
		command := argString(args, "command")
		out, errOut, exit, err := runTmux(runCtx, []string{"send-keys", "-t", name, command, "Enter"})
		if err != nil {
			return errMap(err.Error() + ": " + errOut)
		}
		return map[string]any{"sent": command, "stdout": out, "exit_status": exit}
	case "capture":
		lastLines := argInt(args, "last_lines", 200)
		out, errOut, exit, err := runTmux(runCtx, []string{"capture-pane", "-t", name, "-p", "-S", "-" + itoa(lastLines)})
		if err != nil {
			return errMap(err.Error() + ": " + errOut)
		}
		return map[string]any{"output": out, "exit_status": exit}
	case "list":
		out, errOut, exit, err := runTmux(runCtx, []string{"list-sessions"})
		if err != nil {
			return errMap(err.Error() + ": " + errOut)
		}
		return map[string]any{"sessions": out, "exit_status": exit}
	default:
		return errMap("unknown tmux action: " + action)
	}
}

func runTmux(ctx context.Context, argv []string) (stdout, stderr string, exitStatus int, err error) {
	cmd := exec.CommandContext(ctx, "tmux", argv...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	runErr := cmd.Run()
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitStatus = exitErr.ExitCode()
			return outBuf.String(), errBuf.String(), exitStatus, nil
		}
		return "", "", 0, runErr
	}
	return outBuf.String(), errBuf.String(), 0, nil
}

func itoa(n int) string {
	if n <= 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
