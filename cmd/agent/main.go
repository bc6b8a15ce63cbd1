// Command agent runs a natural-language task through the deliberation
// engine, either one-shot, as an interactive chat, or as an HTTP server.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/sidedotdev/agentic/config"
	"github.com/sidedotdev/agentic/engine"
	"github.com/sidedotdev/agentic/logger"
	"github.com/sidedotdev/agentic/mcpclient"
	"github.com/sidedotdev/agentic/prompt"
	"github.com/sidedotdev/agentic/provider"
	"github.com/sidedotdev/agentic/server"
	"github.com/sidedotdev/agentic/session"
	"github.com/sidedotdev/agentic/tools"
)

func main() {
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:      "agent",
		Usage:     "run a natural-language task through an LLM-driven tool loop",
		ArgsUsage: "<task>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "provider", Usage: "LLM backend: ollama, openai, anthropic, openrouter, lmstudio"},
			&cli.StringFlag{Name: "model", Usage: "model name passed to the provider"},
			&cli.StringFlag{Name: "approval", Usage: "approval policy: never, on-request, always"},
			&cli.StringFlag{Name: "safe-mode", Usage: "safe, extended, unrestricted"},
			&cli.StringFlag{Name: "ollama-url", Usage: "base URL for the ollama provider"},
			&cli.StringFlag{Name: "lmstudio-url", Usage: "base URL for the lmstudio provider"},
			&cli.StringFlag{Name: "workspace", Usage: "workspace root for filesystem tools"},
			&cli.StringFlag{Name: "config-dir", Usage: "directory for persisted stores"},
			&cli.IntFlag{Name: "max-steps", Usage: "deliberation step budget"},
			&cli.IntFlag{Name: "request-timeout", Usage: "provider request timeout in seconds"},
			&cli.IntFlag{Name: "tool-timeout", Usage: "tool dispatch timeout in seconds"},
			&cli.BoolFlag{Name: "verbose", Usage: "enable debug logging"},
			&cli.StringFlag{Name: "reasoning", Usage: "off, on, auto"},
			&cli.StringFlag{Name: "reasoning-effort", Usage: "low, medium, high"},
			&cli.BoolFlag{Name: "stream", Usage: "stream assistant output"},
			&cli.BoolFlag{Name: "no-stream", Usage: "disable streaming"},
			&cli.BoolFlag{Name: "chat", Usage: "interactive chat loop instead of a one-shot task"},
			&cli.BoolFlag{Name: "serve", Usage: "run the HTTP server"},
			&cli.IntFlag{Name: "port", Usage: "HTTP server port"},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

// buildConfig layers defaults, config.yaml, approval.toml, AGENT_* env
// vars, and finally explicit CLI flags, in increasing precedence.
func buildConfig(cmd *cli.Command) (config.Config, error) {
	cfg := config.Defaults()

	if cmd.IsSet("config-dir") {
		cfg.ConfigDir = cmd.String("config-dir")
	} else if v := os.Getenv("AGENT_CONFIG_DIR"); v != "" {
		cfg.ConfigDir = v
	}

	cfg, err := config.LoadFile(cfg, cfg.ConfigDir)
	if err != nil {
		return cfg, err
	}
	cfg, err = config.LoadApprovalOverride(cfg, cfg.ConfigDir)
	if err != nil {
		return cfg, err
	}
	cfg = config.ApplyEnv(cfg)

	if cmd.IsSet("config-dir") {
		cfg.ConfigDir = cmd.String("config-dir")
	}
	if cmd.IsSet("provider") {
		cfg.Provider = cmd.String("provider")
	}
	if cmd.IsSet("model") {
		cfg.Model = cmd.String("model")
	}
	if cmd.IsSet("approval") {
		cfg.ApprovalPolicy = config.ApprovalPolicy(cmd.String("approval"))
	}
	if cmd.IsSet("safe-mode") {
		cfg.SafeMode = config.SafeMode(cmd.String("safe-mode"))
	}
	if cmd.IsSet("ollama-url") {
		cfg.OllamaURL = cmd.String("ollama-url")
	}
	if cmd.IsSet("lmstudio-url") {
		cfg.LMStudioURL = cmd.String("lmstudio-url")
	}
	if cmd.IsSet("workspace") {
		cfg.WorkspaceRoot = cmd.String("workspace")
	}
	if cmd.IsSet("max-steps") {
		cfg.MaxSteps = int(cmd.Int("max-steps"))
	}
	if cmd.IsSet("request-timeout") {
		cfg.RequestTimeout = time.Duration(cmd.Int("request-timeout")) * time.Second
	}
	if cmd.IsSet("tool-timeout") {
		cfg.ToolTimeout = time.Duration(cmd.Int("tool-timeout")) * time.Second
	}
	if cmd.IsSet("verbose") {
		cfg.Verbose = cmd.Bool("verbose")
	}
	if cmd.IsSet("reasoning") {
		cfg.ReasoningMode = config.ReasoningMode(cmd.String("reasoning"))
	}
	if cmd.IsSet("reasoning-effort") {
		cfg.ReasoningEffort = config.ReasoningEffort(cmd.String("reasoning-effort"))
	}
	if cmd.IsSet("stream") {
		cfg.Stream = cmd.Bool("stream")
	}
	if cmd.IsSet("no-stream") && cmd.Bool("no-stream") {
		cfg.Stream = false
	}
	if cmd.IsSet("port") {
		cfg.ServePort = int(cmd.Int("port"))
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return cli.Exit(err, 2)
	}
	logger.Init(cfg.Verbose)
	log := logger.Get()

	prov, err := provider.NewProvider(cfg.Provider, cfg.OllamaURL, cfg.LMStudioURL)
	if err != nil {
		return cli.Exit(err, 2)
	}

	mcpRegistry := mcpclient.NewRegistryAt(cfg.MCPRegistryPath)
	defer mcpRegistry.CloseAll()
	registry := tools.NewRegistry(tools.Deps{MCPRegistry: mcpRegistry})

	var llmAudit, toolAudit *logger.AuditSink
	if cfg.LogDir != "" {
		if llmAudit, err = logger.NewAuditSink(cfg.LogDir, "llm.jsonl"); err != nil {
			log.Warn().Err(err).Msg("llm audit log disabled")
		}
		if toolAudit, err = logger.NewAuditSink(cfg.LogDir, "tool.jsonl"); err != nil {
			log.Warn().Err(err).Msg("tool audit log disabled")
		}
	}

	sess := session.New(prompt.RenderSystem(cfg.WorkspaceRoot))
	eng := engine.New(cfg, prov, registry, sess, llmAudit, toolAudit)

	if cmd.Bool("serve") {
		return server.New(cfg, eng, sess).Run()
	}

	if cmd.Bool("chat") {
		return chatLoop(ctx, cfg, eng)
	}

	task := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if task == "" {
		return cli.Exit(fmt.Errorf("no task given; pass one as an argument or use --chat/--serve"), 2)
	}
	return runTask(ctx, cfg, eng, task)
}

func runTask(ctx context.Context, cfg config.Config, eng *engine.Engine, task string) error {
	sink := newTerminalSink(os.Stdout, os.Stdin)
	var out string
	var err error
	if cfg.Stream {
		out, err = eng.ChatStream(ctx, sink, task)
	} else {
		out, err = eng.ChatOnce(ctx, sink, task)
	}
	if err != nil {
		return err
	}
	if out == "" && eng.HasPendingApproval() {
		return fmt.Errorf("a tool call is still pending approval; this should not happen with a terminal sink")
	}
	return nil
}

func chatLoop(ctx context.Context, cfg config.Config, eng *engine.Engine) error {
	sink := newTerminalSink(os.Stdout, os.Stdin)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			return nil
		}
		var err error
		if cfg.Stream {
			_, err = eng.ChatStream(ctx, sink, input)
		} else {
			_, err = eng.ChatOnce(ctx, sink, input)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}
