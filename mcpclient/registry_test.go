package mcpclient

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterListGetUnregister(t *testing.T) {
	dir := t.TempDir()

	reg := NewRegistry(dir)
	cfg := ServerConfig{Name: "fs", Transport: "stdio", Command: []string{"mcp-server-fs"}, Enabled: true}
	require.NoError(t, reg.Register(cfg))

	got, err := reg.Get("fs")
	require.NoError(t, err)
	assert.Equal(t, "fs", got.Name)
	assert.Equal(t, []string{"mcp-server-fs"}, got.Command)

	list, err := reg.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, reg.Unregister("fs"))
	_, err = reg.Get("fs")
	assert.Error(t, err)
}

func TestRegistryFileShape(t *testing.T) {
	dir := t.TempDir()

	reg := NewRegistry(dir)
	require.NoError(t, reg.Register(ServerConfig{Name: "b", Transport: "stdio", Command: []string{"b-server"}, Enabled: true}))
	require.NoError(t, reg.Register(ServerConfig{Name: "a", Transport: "stdio", Command: []string{"a-server"}, Enabled: false}))

	data, err := os.ReadFile(filepath.Join(dir, "mcp_registry.json"))
	require.NoError(t, err)

	var rf struct {
		Servers []ServerConfig `json:"servers"`
	}
	require.NoError(t, json.Unmarshal(data, &rf))
	require.Len(t, rf.Servers, 2)
	assert.Equal(t, "a", rf.Servers[0].Name)
	assert.Equal(t, "b", rf.Servers[1].Name)

	// reload through a fresh registry and save again: contents are stable
	reg2 := NewRegistry(dir)
	list, err := reg2.List()
	require.NoError(t, err)
	assert.Len(t, list, 2)

	servers, err := reg2.load()
	require.NoError(t, err)
	require.NoError(t, reg2.save(servers))
	resaved, err := os.ReadFile(filepath.Join(dir, "mcp_registry.json"))
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(resaved))
}

func TestRegistryUnregisterUnknown(t *testing.T) {
	reg := NewRegistry(t.TempDir())
	assert.Error(t, reg.Unregister("does-not-exist"))
}
