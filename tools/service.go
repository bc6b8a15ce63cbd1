package tools

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// manageService shells out to systemctl. The user flag targets the
// invoking user's service manager instead of the system one.
func manageService(ctx context.Context, tctx Context, args map[string]any) map[string]any {
	action := argString(args, "action")
	unit := argString(args, "unit")
	if action == "" || unit == "" {
		return errMap("action and unit are required")
	}
	switch action {
	case "start", "stop", "restart", "reload", "enable", "disable", "status":
	default:
		return errMap("unknown service action: " + action)
	}

	timeout := tctx.ToolTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	argv := []string{}
	if argBool(args, "user") {
		argv = append(argv, "--user")
	}
	argv = append(argv, action, unit)

	stdout, stderr, exit, err := runSystemctl(runCtx, argv)
	if err != nil {
		return errMap(err.Error())
	}
	return map[string]any{"stdout": stdout, "stderr": stderr, "exit_status": exit}
}

func runSystemctl(ctx context.Context, argv []string) (stdout, stderr string, exitStatus int, err error) {
	cmd := exec.CommandContext(ctx, "systemctl", argv...)
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
