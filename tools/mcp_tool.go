package tools

import (
	"context"
	"strings"

	"github.com/sidedotdev/agentic/mcpclient"
)

// mcpTool dispatches the mcp meta-tool's actions to the shared registry in
// deps: register/unregister/list_servers/list_tools/
// call_tool/get_config/set_config.
func mcpTool(deps Deps) Handler {
	return func(ctx context.Context, tctx Context, args map[string]any) map[string]any {
		if deps.MCPRegistry == nil {
			return errMap("no mcp registry configured")
		}
		action := argString(args, "action")

		switch action {
		case "register", "set_config":
			name := argString(args, "name")
			if name == "" {
				return errMap("name is required")
			}
			command := strings.Fields(argString(args, "command"))
			if len(command) == 0 {
				return errMap("command is required")
			}
			cfg := mcpclient.ServerConfig{
				Name:      name,
				Transport: "stdio",
				Command:   command,
				Cwd:       argString(args, "cwd"),
				Enabled:   true,
			}
			if v, ok := args["enabled"].(bool); ok {
				cfg.Enabled = v
			}
			if err := deps.MCPRegistry.Register(cfg); err != nil {
				return errMap(err.Error())
			}
			return map[string]any{"registered": name}

		case "unregister":
			name := argString(args, "name")
			if name == "" {
				return errMap("name is required")
			}
			if err := deps.MCPRegistry.Unregister(name); err != nil {
				return errMap(err.Error())
			}
			return map[string]any{"unregistered": name}

		case "get_config":
			name := argString(args, "name")
			if name == "" {
				return errMap("name is required")
			}
			cfg, err := deps.MCPRegistry.Get(name)
			if err != nil {
				return errMap(err.Error())
			}
			return serverConfigToMap(cfg)

		case "list_servers":
			servers, err := deps.MCPRegistry.List()
			if err != nil {
				return errMap(err.Error())
			}
			out := make([]map[string]any, 0, len(servers))
			for _, s := range servers {
				out = append(out, serverConfigToMap(s))
			}
			return map[string]any{"servers": out}

		case "list_tools":
			name := argString(args, "name")
			if name == "" {
				return errMap("name is required")
			}
			client, err := deps.MCPRegistry.Client(ctx, name)
			if err != nil {
				return errMap(err.Error())
			}
			tools, err := client.ListTools(ctx)
			if err != nil {
				return errMap(err.Error())
			}
			out := make([]map[string]any, 0, len(tools))
			for _, t := range tools {
				out = append(out, map[string]any{
					"name":         t.Name,
					"description":  t.Description,
					"input_schema": t.InputSchema,
				})
			}
			return map[string]any{"tools": out}

		case "call_tool":
			name := argString(args, "name")
			toolName := argString(args, "tool")
			if name == "" || toolName == "" {
				return errMap("name and tool are required")
			}
			toolArgs, _ := args["args"].(map[string]any)
			client, err := deps.MCPRegistry.Client(ctx, name)
			if err != nil {
				return errMap(err.Error())
			}
			result, err := client.CallTool(ctx, toolName, toolArgs)
			if err != nil {
				return errMap(err.Error())
			}
			return result

		default:
			return errMap("unknown mcp action: " + action)
		}
	}
}

func serverConfigToMap(cfg mcpclient.ServerConfig) map[string]any {
	return map[string]any{
		"name":      cfg.Name,
		"transport": cfg.Transport,
		"command":   cfg.Command,
		"cwd":       cfg.Cwd,
		"enabled":   cfg.Enabled,
	}
}
