package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const defaultMaxBytes = 50_000

func readFile(_ context.Context, tctx Context, args map[string]any) map[string]any {
	path, err := resolveWorkspacePath(tctx.WorkspaceRoot, argString(args, "path"))
	if err != nil {
		return errMap(err.Error())
	}
	maxBytes := argInt(args, "max_bytes", defaultMaxBytes)
	data, err := os.ReadFile(path)
	if err != nil {
		return errMap(err.Error())
	}
	truncated := false
	if len(data) > maxBytes {
		data = data[:maxBytes]
		truncated = true
	}
	return map[string]any{
		"bytes":     len(data),
		"content":   string(data),
		"truncated": truncated,
	}
}

func writeFile(_ context.Context, tctx Context, args map[string]any) map[string]any {
	path, err := resolveWorkspacePath(tctx.WorkspaceRoot, argString(args, "path"))
	if err != nil {
		return errMap(err.Error())
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errMap(err.Error())
	}
	content := argString(args, "content")
	if argBool(args, "append") {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return errMap(err.Error())
		}
		defer f.Close()
		if _, err := f.WriteString(content); err != nil {
			return errMap(err.Error())
		}
	} else if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return errMap(err.Error())
	}
	return map[string]any{"bytes": len(content)}
}

func listDir(_ context.Context, tctx Context, args map[string]any) map[string]any {
	path, err := resolveWorkspacePath(tctx.WorkspaceRoot, argString(args, "path"))
	if err != nil {
		return errMap(err.Error())
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return errMap(err.Error())
	}
	items := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		size := int64(0)
		modTime := ""
		if err == nil {
			size = info.Size()
			modTime = info.ModTime().UTC().Format("2006-01-02T15:04:05Z")
		}
		items = append(items, map[string]any{
			"name":     e.Name(),
			"is_dir":   e.IsDir(),
			"size":     size,
			"mod_time": modTime,
		})
	}
	return map[string]any{"entries": items}
}

func deletePath(_ context.Context, tctx Context, args map[string]any) map[string]any {
	path, err := resolveWorkspacePath(tctx.WorkspaceRoot, argString(args, "path"))
	if err != nil {
		return errMap(err.Error())
	}
	if err := os.RemoveAll(path); err != nil {
		return errMap(err.Error())
	}
	return map[string]any{"deleted": path}
}

func movePath(_ context.Context, tctx Context, args map[string]any) map[string]any {
	src, err := resolveWorkspacePath(tctx.WorkspaceRoot, argString(args, "src"))
	if err != nil {
		return errMap(err.Error())
	}
	dst, err := resolveWorkspacePath(tctx.WorkspaceRoot, argString(args, "dst"))
	if err != nil {
		return errMap(err.Error())
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errMap(err.Error())
	}
	if err := os.Rename(src, dst); err != nil {
		return errMap(err.Error())
	}
	return map[string]any{"moved": dst}
}

func copyPath(_ context.Context, tctx Context, args map[string]any) map[string]any {
	src, err := resolveWorkspacePath(tctx.WorkspaceRoot, argString(args, "src"))
	if err != nil {
		return errMap(err.Error())
	}
	dst, err := resolveWorkspacePath(tctx.WorkspaceRoot, argString(args, "dst"))
	if err != nil {
		return errMap(err.Error())
	}
	info, err := os.Stat(src)
	if err != nil {
		return errMap(err.Error())
	}
	if info.IsDir() {
		return errMap("copy_path does not support directories")
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return errMap(err.Error())
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errMap(err.Error())
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return errMap(err.Error())
	}
	return map[string]any{"copied": dst, "bytes": len(data)}
}

func makeDir(_ context.Context, tctx Context, args map[string]any) map[string]any {
	path, err := resolveWorkspacePath(tctx.WorkspaceRoot, argString(args, "path"))
	if err != nil {
		return errMap(err.Error())
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return errMap(err.Error())
	}
	return map[string]any{"created": path}
}

func replaceInFile(_ context.Context, tctx Context, args map[string]any) map[string]any {
	path, err := resolveWorkspacePath(tctx.WorkspaceRoot, argString(args, "path"))
	if err != nil {
		return errMap(err.Error())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errMap(err.Error())
	}
	pattern := argString(args, "pattern")
	replacement := argString(args, "replacement")
	count := argInt(args, "count", -1)

	var result string
	var n int
	if argBool(args, "regex") {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return errMap(fmt.Sprintf("invalid regex: %v", err))
		}
		n = len(re.FindAllIndex(data, -1))
		if count >= 0 && n > count {
			n = count
		}
		if count < 0 {
			result = re.ReplaceAllString(string(data), replacement)
		} else {
			result = replaceAllRegexN(re, string(data), replacement, count)
		}
	} else {
		if count < 0 {
			n = strings.Count(string(data), pattern)
			result = strings.ReplaceAll(string(data), pattern, replacement)
		} else {
			result = strings.Replace(string(data), pattern, replacement, count)
			n = countBounded(string(data), pattern, count)
		}
	}
	if err := os.WriteFile(path, []byte(result), 0o644); err != nil {
		return errMap(err.Error())
	}
	return map[string]any{"replacements": n}
}

func countBounded(s, substr string, max int) int {
	if substr == "" {
		return 0
	}
	n := strings.Count(s, substr)
	if n > max {
		return max
	}
	return n
}

func replaceAllRegexN(re *regexp.Regexp, s, replacement string, n int) string {
	count := 0
	return re.ReplaceAllStringFunc(s, func(match string) string {
		if count >= n {
			return match
		}
		count++
		return re.ReplaceAllString(match, replacement)
	})
}
