package tools

import "context"

// Handler is the uniform tool signature: it accepts
// the decoded argument map and a Context, and never propagates an error
// across the dispatch boundary; failures are reified as {"error": ...}.
type Handler func(ctx context.Context, tctx Context, args map[string]any) map[string]any

// Registry is the flat name -> handler mapping.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry builds the registry with the full closed tool set wired in.
func NewRegistry(deps Deps) *Registry {
	r := &Registry{handlers: map[string]Handler{}}
	r.handlers["run_shell"] = runShell
	r.handlers["read_file"] = readFile
	r.handlers["write_file"] = writeFile
	r.handlers["list_dir"] = listDir
	r.handlers["delete_path"] = deletePath
	r.handlers["move_path"] = movePath
	r.handlers["copy_path"] = copyPath
	r.handlers["make_dir"] = makeDir
	r.handlers["replace_in_file"] = replaceInFile
	r.handlers["web_get"] = webGet
	r.handlers["web_search"] = webSearch
	r.handlers["tmux"] = tmuxTool
	r.handlers["manage_service"] = manageService
	r.handlers["git"] = gitTool
	r.handlers["browser_headless"] = browserHeadless(deps)
	r.handlers["memory_add"] = memoryAdd
	r.handlers["memory_search"] = memorySearch
	r.handlers["memory_delete"] = memoryDelete
	r.handlers["memory_list"] = memoryList
	r.handlers["memory_update"] = memoryUpdate
	r.handlers["plan"] = planTool
	r.handlers["mcp"] = mcpTool(deps)
	return r
}

// Dispatch runs the named tool, returning {"error": "unknown tool ..."} for
// an unregistered name.
func (r *Registry) Dispatch(ctx context.Context, tctx Context, name string, args map[string]any) map[string]any {
	h, ok := r.handlers[name]
	if !ok {
		return errMap("unknown tool " + name)
	}
	if args == nil {
		args = map[string]any{}
	}
	return h(ctx, tctx, args)
}

func errMap(msg string) map[string]any {
	return map[string]any{"error": msg}
}

func argString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func argBool(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}

func argInt(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}
