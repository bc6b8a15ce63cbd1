package tools

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// candidateBrowsers are tried in order when no engine is requested.
var candidateBrowsers = []string{"chromium", "chromium-browser", "google-chrome", "chrome"}

// browserHeadless shells out to a chromium-family binary to render a page
// and dump its DOM. No example repo wires a browser automation library, so
// this uses the same generic exec.Command subprocess pattern as the
// git/tmux wrappers. When no usable binary is found, or the dump fails,
// the handler degrades to a plain web_get fetch.
func browserHeadless(deps Deps) Handler {
	return func(ctx context.Context, tctx Context, args map[string]any) map[string]any {
		url := argString(args, "url")
		if url == "" {
			return errMap("url is required")
		}

		timeout := tctx.ToolTimeout
		if secs := argInt(args, "timeout", 0); secs > 0 {
			timeout = time.Duration(secs) * time.Second
		}
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		runCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		var candidates []string
		if engine := argString(args, "engine"); engine != "" {
			candidates = []string{engine}
		} else if deps.BrowserBin != "" {
			candidates = []string{deps.BrowserBin}
		} else {
			candidates = candidateBrowsers
		}

		for _, bin := range candidates {
			if _, err := exec.LookPath(bin); err != nil {
				continue
			}
			out, _, exit, err := runBrowser(runCtx, bin, []string{"--headless", "--disable-gpu", "--dump-dom", url})
			if err != nil || exit != 0 {
				continue
			}
			text, truncated := truncateTail(out, maxOutputBytes)
			return map[string]any{"engine": bin, "dom": text, "truncated": truncated}
		}

		result := webGet(ctx, tctx, map[string]any{"url": url, "max_bytes": args["max_bytes"]})
		result["fallback"] = "web_get"
		return result
	}
}

func runBrowser(ctx context.Context, bin string, argv []string) (stdout, stderr string, exitStatus int, err error) {
	cmd := exec.CommandContext(ctx, bin, argv...)
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
	return outBuf.String(), errBuf.String(), exitStatus, nil
}
