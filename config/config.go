// Package config loads and merges the engine's configuration from, in
// increasing precedence: a YAML file under the config directory, AGENT_*
// environment variables, and explicit CLI flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ApprovalPolicy mirrors the Config.approval_policy enum
type ApprovalPolicy string

const (
	ApprovalNever     ApprovalPolicy = "never"
	ApprovalOnRequest ApprovalPolicy = "on-request"
	ApprovalAlways    ApprovalPolicy = "always"
)

// SafeMode mirrors --safe-mode.
type SafeMode string

const (
	SafeModeSafe       SafeMode = "safe"
	SafeModeExtended   SafeMode = "extended"
	SafeModeUnrestrict SafeMode = "unrestricted"
)

// ReasoningMode mirrors --reasoning.
type ReasoningMode string

const (
	ReasoningOff  ReasoningMode = "off"
	ReasoningOn   ReasoningMode = "on"
	ReasoningAuto ReasoningMode = "auto"
)

// ReasoningEffort mirrors --reasoning-effort.
type ReasoningEffort string

const (
	EffortLow    ReasoningEffort = "low"
	EffortMedium ReasoningEffort = "medium"
	EffortHigh   ReasoningEffort = "high"
)

// Config is immutable once constructed.
type Config struct {
	Provider        string
	Model           string
	ApprovalPolicy  ApprovalPolicy
	SafeMode        SafeMode
	WorkspaceRoot   string
	MaxSteps        int
	RequestTimeout  time.Duration
	ToolTimeout     time.Duration
	ReasoningMode   ReasoningMode
	ReasoningEffort ReasoningEffort
	Stream          bool
	ConfigDir       string
	MCPRegistryPath string
	OllamaURL       string
	LMStudioURL     string
	LogDir          string
	Verbose         bool
	ServePort       int
}

// Defaults returns the baseline configuration before any file, env, or flag
// override is applied.
func Defaults() Config {
	return Config{
		Provider:        "ollama",
		Model:           "",
		ApprovalPolicy:  ApprovalOnRequest,
		SafeMode:        SafeModeSafe,
		WorkspaceRoot:   ".",
		MaxSteps:        12,
		RequestTimeout:  120 * time.Second,
		ToolTimeout:     60 * time.Second,
		ReasoningMode:   ReasoningAuto,
		ReasoningEffort: EffortMedium,
		Stream:          true,
		ConfigDir:       DefaultConfigDir(),
		OllamaURL:       "http://localhost:11434",
		LMStudioURL:     "http://localhost:1234",
		ServePort:       8787,
	}
}

// DefaultConfigDir resolves ~/.config/agentic (or the platform xdg
// equivalent).
func DefaultConfigDir() string {
	dir, err := xdg.ConfigFile("agentic")
	if err != nil {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".agentic")
	}
	return dir
}

// yamlFile is the on-disk shape of <config_dir>/config.yaml. Only fields
// present are applied; zero-value fields leave the prior layer untouched.
type yamlFile struct {
	Provider        string `koanf:"provider"`
	Model           string `koanf:"model"`
	ApprovalPolicy  string `koanf:"approval_policy"`
	SafeMode        string `koanf:"safe_mode"`
	WorkspaceRoot   string `koanf:"workspace_root"`
	MaxSteps        int    `koanf:"max_steps"`
	RequestTimeout  int    `koanf:"request_timeout"`
	ToolTimeout     int    `koanf:"tool_timeout"`
	ReasoningMode   string `koanf:"reasoning"`
	ReasoningEffort string `koanf:"reasoning_effort"`
	Stream          *bool  `koanf:"stream"`
	OllamaURL       string `koanf:"ollama_url"`
	LMStudioURL     string `koanf:"lmstudio_url"`
	LogDir          string `koanf:"log_dir"`
}

// LoadFile merges <configDir>/config.yaml into cfg. A missing file is not
// an error.
func LoadFile(cfg Config, configDir string) (Config, error) {
	path := filepath.Join(configDir, "config.yaml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return cfg, fmt.Errorf("loading config.yaml: %w", err)
	}
	var yf yamlFile
	if err := k.Unmarshal("", &yf); err != nil {
		return cfg, fmt.Errorf("parsing config.yaml: %w", err)
	}
	applyYAML(&cfg, yf)
	return cfg, nil
}

func applyYAML(cfg *Config, yf yamlFile) {
	if yf.Provider != "" {
		cfg.Provider = yf.Provider
	}
	if yf.Model != "" {
		cfg.Model = yf.Model
	}
	if yf.ApprovalPolicy != "" {
		cfg.ApprovalPolicy = ApprovalPolicy(yf.ApprovalPolicy)
	}
	if yf.SafeMode != "" {
		cfg.SafeMode = SafeMode(yf.SafeMode)
	}
	if yf.WorkspaceRoot != "" {
		cfg.WorkspaceRoot = yf.WorkspaceRoot
	}
	if yf.MaxSteps > 0 {
		cfg.MaxSteps = yf.MaxSteps
	}
	if yf.RequestTimeout > 0 {
		cfg.RequestTimeout = time.Duration(yf.RequestTimeout) * time.Second
	}
	if yf.ToolTimeout > 0 {
		cfg.ToolTimeout = time.Duration(yf.ToolTimeout) * time.Second
	}
	if yf.ReasoningMode != "" {
		cfg.ReasoningMode = ReasoningMode(yf.ReasoningMode)
	}
	if yf.ReasoningEffort != "" {
		cfg.ReasoningEffort = ReasoningEffort(yf.ReasoningEffort)
	}
	if yf.Stream != nil {
		cfg.Stream = *yf.Stream
	}
	if yf.OllamaURL != "" {
		cfg.OllamaURL = yf.OllamaURL
	}
	if yf.LMStudioURL != "" {
		cfg.LMStudioURL = yf.LMStudioURL
	}
	if yf.LogDir != "" {
		cfg.LogDir = yf.LogDir
	}
}

// ApprovalOverride is the optional <config_dir>/approval.toml file letting an
// operator pin the approval policy without a flag.
type ApprovalOverride struct {
	Policy string `toml:"approval_policy,omitempty"`
}

// LoadApprovalOverride merges an optional approval.toml into cfg.
func LoadApprovalOverride(cfg Config, configDir string) (Config, error) {
	path := filepath.Join(configDir, "approval.toml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	var ov ApprovalOverride
	if _, err := toml.Decode(string(data), &ov); err != nil {
		return cfg, fmt.Errorf("parsing approval.toml: %w", err)
	}
	if ov.Policy != "" {
		cfg.ApprovalPolicy = ApprovalPolicy(ov.Policy)
	}
	return cfg, nil
}

// ApplyEnv overlays AGENT_* environment variables onto cfg.
func ApplyEnv(cfg Config) Config {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str("AGENT_PROVIDER", &cfg.Provider)
	str("AGENT_MODEL", &cfg.Model)
	if v := os.Getenv("AGENT_APPROVAL"); v != "" {
		cfg.ApprovalPolicy = ApprovalPolicy(v)
	}
	if v := os.Getenv("AGENT_SAFE_MODE"); v != "" {
		cfg.SafeMode = SafeMode(v)
	}
	str("AGENT_WORKSPACE", &cfg.WorkspaceRoot)
	str("AGENT_CONFIG_DIR", &cfg.ConfigDir)
	if v := os.Getenv("AGENT_MAX_STEPS"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.MaxSteps)
	}
	if v := os.Getenv("AGENT_REQUEST_TIMEOUT"); v != "" {
		var secs int
		if _, err := fmt.Sscanf(v, "%d", &secs); err == nil {
			cfg.RequestTimeout = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("AGENT_TOOL_TIMEOUT"); v != "" {
		var secs int
		if _, err := fmt.Sscanf(v, "%d", &secs); err == nil {
			cfg.ToolTimeout = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("AGENT_SERVE_PORT"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.ServePort)
	}
	if v := os.Getenv("AGENT_REASONING"); v != "" {
		cfg.ReasoningMode = ReasoningMode(v)
	}
	if v := os.Getenv("AGENT_REASONING_EFFORT"); v != "" {
		cfg.ReasoningEffort = ReasoningEffort(v)
	}
	if v := os.Getenv("AGENT_STREAM"); v != "" {
		cfg.Stream = v != "false" && v != "0"
	}
	if v := os.Getenv("AGENT_VERBOSE"); v != "" {
		cfg.Verbose = v != "false" && v != "0"
	}
	str("AGENT_LOG_DIR", &cfg.LogDir)
	return cfg
}

// Validate normalizes the workspace root to an absolute path and reports
// any UsageError-class problem.
func (c *Config) Validate() error {
	if c.MaxSteps < 1 {
		return fmt.Errorf("max_steps must be >= 1")
	}
	if !filepath.IsAbs(c.WorkspaceRoot) {
		abs, err := filepath.Abs(c.WorkspaceRoot)
		if err != nil {
			return fmt.Errorf("resolving workspace root: %w", err)
		}
		c.WorkspaceRoot = abs
	}
	switch c.ApprovalPolicy {
	case ApprovalNever, ApprovalOnRequest, ApprovalAlways:
	default:
		return fmt.Errorf("invalid approval policy: %s", c.ApprovalPolicy)
	}
	if c.MCPRegistryPath == "" {
		c.MCPRegistryPath = filepath.Join(c.ConfigDir, "mcp_registry.json")
	}
	return nil
}
