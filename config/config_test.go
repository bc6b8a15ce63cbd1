package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ApprovalOnRequest, cfg.ApprovalPolicy)
	assert.True(t, cfg.MaxSteps >= 1)
}

func TestLoadFileMergesYAML(t *testing.T) {
	dir := t.TempDir()
	yaml := "provider: openai\nmodel: gpt-test\nmax_steps: 3\nrequest_timeout: 30\nstream: false\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := LoadFile(Defaults(), dir)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-test", cfg.Model)
	assert.Equal(t, 3, cfg.MaxSteps)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.Stream)
}

func TestLoadFileMissingIsNotAnError(t *testing.T) {
	cfg, err := LoadFile(Defaults(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Defaults().Provider, cfg.Provider)
}

func TestLoadApprovalOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "approval.toml"), []byte(`approval_policy = "always"`), 0o644))

	cfg, err := LoadApprovalOverride(Defaults(), dir)
	require.NoError(t, err)
	assert.Equal(t, ApprovalAlways, cfg.ApprovalPolicy)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("AGENT_PROVIDER", "anthropic")
	t.Setenv("AGENT_MAX_STEPS", "5")
	t.Setenv("AGENT_STREAM", "false")
	t.Setenv("AGENT_TOOL_TIMEOUT", "7")

	cfg := ApplyEnv(Defaults())
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, 5, cfg.MaxSteps)
	assert.False(t, cfg.Stream)
	assert.Equal(t, 7*time.Second, cfg.ToolTimeout)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Defaults()
	cfg.MaxSteps = 0
	assert.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.ApprovalPolicy = "sometimes"
	assert.Error(t, cfg.Validate())
}

func TestValidateNormalizesWorkspaceRoot(t *testing.T) {
	cfg := Defaults()
	cfg.WorkspaceRoot = "."
	require.NoError(t, cfg.Validate())
	assert.True(t, filepath.IsAbs(cfg.WorkspaceRoot))
	assert.NotEmpty(t, cfg.MCPRegistryPath)
}
