package tools

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"al.essio.dev/pkg/shellescape"
)

// gitTool shells out to the git binary with argv-built invocations, never
// through a shell. When args.stat is set, it first runs "git diff --stat"
// as a convenience preview and discards any error from that preview step.
func gitTool(ctx context.Context, tctx Context, args map[string]any) map[string]any {
	argLine := argString(args, "args")
	if argLine == "" {
		return errMap("args is required")
	}
	argv, err := splitArgv(argLine)
	if err != nil {
		return errMap(err.Error())
	}

	cwd := tctx.WorkspaceRoot
	if rel := argString(args, "cwd"); rel != "" {
		resolved, err := resolveWorkspacePath(tctx.WorkspaceRoot, rel)
		if err != nil {
			return errMap(err.Error())
		}
		cwd = resolved
	}

	timeout := tctx.ToolTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var statOut string
	if argBool(args, "stat") {
		out, _, _, _ := runGit(runCtx, cwd, []string{"diff", "--stat"})
		statOut = out
	}

	stdout, stderr, exit, runErr := runGit(runCtx, cwd, argv)
	if runErr != nil {
		return errMap(runErr.Error())
	}
	result := map[string]any{
		"stdout":       stdout,
		"stderr":       stderr,
		"exit_status":  exit,
		"command_line": "git " + shellescape.QuoteCommand(argv),
	}
	if statOut != "" {
		result["stat"] = statOut
	}
	return result
}

func runGit(ctx context.Context, cwd string, argv []string) (stdout, stderr string, exitStatus int, err error) {
	cmd := exec.CommandContext(ctx, "git", argv...)
	cmd.Dir = cwd
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	runErr := cmd.Run()
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitStatus = exitErr.ExitCode()
		} else {
			return "", "", 0, runErr
		}
	}
	o, _ := truncateTail(outBuf.String(), maxOutputBytes)
	e, _ := truncateTail(errBuf.String(), maxOutputBytes)
	return o, e, exitStatus, nil
}
