package mcpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ServerConfig is one registered MCP server definition, persisted across
// runs as a single JSON file under the config directory,
// rewritten atomically on every mutation.
type ServerConfig struct {
	Name      string   `json:"name"`
	Transport string   `json:"transport"`
	Command   []string `json:"command"`
	Cwd       string   `json:"cwd,omitempty"`
	Env       []string `json:"env,omitempty"`
	Enabled   bool     `json:"enabled"`
}

// Registry persists named server configs to config_dir/mcp_registry.json.
type Registry struct {
	mu        sync.Mutex
	path      string
	clients   map[string]*Client
	configDir string
}

func NewRegistry(configDir string) *Registry {
	return NewRegistryAt(filepath.Join(configDir, "mcp_registry.json"))
}

// NewRegistryAt uses an explicit registry file path instead of the default
// location under the config directory.
func NewRegistryAt(path string) *Registry {
	return &Registry{
		path:      path,
		clients:   map[string]*Client{},
		configDir: filepath.Dir(path),
	}
}

// registryFile is the on-disk shape: {"servers": [...]}.
type registryFile struct {
	Servers []ServerConfig `json:"servers"`
}

func (r *Registry) load() (map[string]ServerConfig, error) {
	servers := map[string]ServerConfig{}
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return servers, nil
		}
		return nil, err
	}
	var rf registryFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, err
	}
	for _, s := range rf.Servers {
		servers[s.Name] = s
	}
	return servers, nil
}

func (r *Registry) save(servers map[string]ServerConfig) error {
	if err := os.MkdirAll(r.configDir, 0o755); err != nil {
		return err
	}
	rf := registryFile{Servers: make([]ServerConfig, 0, len(servers))}
	names := make([]string, 0, len(servers))
	for name := range servers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rf.Servers = append(rf.Servers, servers[name])
	}
	data, err := json.MarshalIndent(rf, "", "  ")
	if err != nil {
		return err
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}

// Register persists or replaces a server's config.
func (r *Registry) Register(cfg ServerConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	servers, err := r.load()
	if err != nil {
		return err
	}
	servers[cfg.Name] = cfg
	return r.save(servers)
}

// Unregister removes a server's config and closes any live client for it.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	servers, err := r.load()
	if err != nil {
		return err
	}
	if _, ok := servers[name]; !ok {
		return fmt.Errorf("no mcp server registered as %q", name)
	}
	delete(servers, name)
	if client, ok := r.clients[name]; ok {
		_ = client.Close()
		delete(r.clients, name)
	}
	return r.save(servers)
}

// List returns all registered server configs.
func (r *Registry) List() ([]ServerConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	servers, err := r.load()
	if err != nil {
		return nil, err
	}
	out := make([]ServerConfig, 0, len(servers))
	for _, s := range servers {
		out = append(out, s)
	}
	return out, nil
}

func (r *Registry) Get(name string) (ServerConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	servers, err := r.load()
	if err != nil {
		return ServerConfig{}, err
	}
	cfg, ok := servers[name]
	if !ok {
		return ServerConfig{}, fmt.Errorf("no mcp server registered as %q", name)
	}
	return cfg, nil
}

// Client lazily starts (and caches) a live Client for the named server.
func (r *Registry) Client(ctx context.Context, name string) (*Client, error) {
	r.mu.Lock()
	if client, ok := r.clients[name]; ok {
		r.mu.Unlock()
		return client, nil
	}
	r.mu.Unlock()

	cfg, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return nil, fmt.Errorf("mcp server %q is disabled", name)
	}
	client, err := Start(ctx, cfg.Command, cfg.Cwd, cfg.Env)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.clients[name] = client
	r.mu.Unlock()
	return client, nil
}

// CloseAll terminates every live client, used on engine shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, client := range r.clients {
		_ = client.Close()
		delete(r.clients, name)
	}
}
