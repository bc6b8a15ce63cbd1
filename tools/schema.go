package tools

import (
	"github.com/invopop/jsonschema"
)

// Spec describes one tool for prompt construction and the HTTP tool
// listing: its name, a short usage description, and a JSON schema for its
// arguments reflected from the param struct.
type Spec struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
}

type runShellParams struct {
	Cmd     string `json:"cmd" jsonschema:"description=The command to run\\, tokenized like a POSIX shell but executed without one"`
	Timeout int    `json:"timeout,omitempty" jsonschema:"description=Optional per-command timeout in seconds"`
	Cwd     string `json:"cwd,omitempty" jsonschema:"description=Optional working directory relative to the workspace root"`
}

type readFileParams struct {
	Path     string `json:"path" jsonschema:"description=File path relative to the workspace root"`
	MaxBytes int    `json:"max_bytes,omitempty" jsonschema:"description=Truncate content beyond this many bytes"`
}

type writeFileParams struct {
	Path    string `json:"path" jsonschema:"description=File path relative to the workspace root"`
	Content string `json:"content" jsonschema:"description=Content to write"`
	Append  bool   `json:"append,omitempty" jsonschema:"description=Append instead of overwrite"`
}

type listDirParams struct {
	Path string `json:"path" jsonschema:"description=Directory path relative to the workspace root"`
}

type deletePathParams struct {
	Path string `json:"path" jsonschema:"description=Path to delete\\, recursively for directories"`
}

type movePathParams struct {
	Src string `json:"src" jsonschema:"description=Source path"`
	Dst string `json:"dst" jsonschema:"description=Destination path"`
}

type copyPathParams struct {
	Src string `json:"src" jsonschema:"description=Source file"`
	Dst string `json:"dst" jsonschema:"description=Destination file"`
}

type makeDirParams struct {
	Path string `json:"path" jsonschema:"description=Directory to create\\, including parents"`
}

type replaceInFileParams struct {
	Path        string `json:"path" jsonschema:"description=File path relative to the workspace root"`
	Pattern     string `json:"pattern" jsonschema:"description=Literal text or regular expression to replace"`
	Replacement string `json:"replacement" jsonschema:"description=Replacement text"`
	Regex       bool   `json:"regex,omitempty" jsonschema:"description=Treat pattern as a regular expression"`
	Count       int    `json:"count,omitempty" jsonschema:"description=Maximum number of replacements\\, unlimited when omitted"`
}

type webGetParams struct {
	URL      string `json:"url" jsonschema:"description=URL to fetch"`
	MaxBytes int    `json:"max_bytes,omitempty" jsonschema:"description=Cap on the returned body size"`
}

type webSearchParams struct {
	Query      string `json:"query" jsonschema:"description=Search query"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"description=Maximum number of results"`
}

type tmuxParams struct {
	Action    string `json:"action" jsonschema:"description=One of ensure\\, send\\, capture\\, list"`
	Name      string `json:"name,omitempty" jsonschema:"description=tmux session name"`
	Cwd       string `json:"cwd,omitempty" jsonschema:"description=Working directory for a new session"`
	Command   string `json:"command,omitempty" jsonschema:"description=Command text for the send action"`
	LastLines int    `json:"last_lines,omitempty" jsonschema:"description=Line count for the capture action"`
}

type manageServiceParams struct {
	Unit   string `json:"unit" jsonschema:"description=systemd unit name"`
	Action string `json:"action" jsonschema:"description=One of start\\, stop\\, restart\\, reload\\, enable\\, disable\\, status"`
	User   bool   `json:"user,omitempty" jsonschema:"description=Operate on the user manager instead of the system one"`
}

type gitParams struct {
	Args string `json:"args" jsonschema:"description=Arguments passed to the git binary"`
	Cwd  string `json:"cwd,omitempty" jsonschema:"description=Repository directory relative to the workspace root"`
	Stat bool   `json:"stat,omitempty" jsonschema:"description=Include a git diff --stat preview"`
}

type browserHeadlessParams struct {
	URL     string `json:"url" jsonschema:"description=URL to dump"`
	Engine  string `json:"engine,omitempty" jsonschema:"description=Preferred chromium-family binary"`
	Timeout int    `json:"timeout,omitempty" jsonschema:"description=Timeout in seconds"`
}

type memoryAddParams struct {
	Text string         `json:"text" jsonschema:"description=Text to remember"`
	Tags []string       `json:"tags,omitempty" jsonschema:"description=Optional tags"`
	Meta map[string]any `json:"meta,omitempty" jsonschema:"description=Open metadata bag stored verbatim"`
}

type memorySearchParams struct {
	Query string `json:"query" jsonschema:"description=Search text"`
	Limit int    `json:"limit,omitempty" jsonschema:"description=Number of results"`
}

type memoryDeleteParams struct {
	ID string `json:"id" jsonschema:"description=Entry id to delete"`
}

type memoryListParams struct{}

type memoryUpdateParams struct {
	ID   string   `json:"id" jsonschema:"description=Entry id to update"`
	Text string   `json:"text,omitempty" jsonschema:"description=Replacement text"`
	Tags []string `json:"tags,omitempty" jsonschema:"description=Replacement tags"`
}

type planParams struct {
	Action string `json:"action" jsonschema:"description=One of create\\, get\\, list\\, delete\\, add_step\\, update_step"`
	ID     string `json:"id,omitempty" jsonschema:"description=Plan id"`
	Title  string `json:"title,omitempty" jsonschema:"description=Plan title for create"`
	Step   int    `json:"step,omitempty" jsonschema:"description=Step index for update_step"`
	Text   string `json:"text,omitempty" jsonschema:"description=Step text for add_step"`
	Status string `json:"status,omitempty" jsonschema:"description=New step status for update_step"`
}

type mcpParams struct {
	Action  string         `json:"action" jsonschema:"description=One of register\\, unregister\\, list_servers\\, list_tools\\, call_tool\\, get_config\\, set_config"`
	Name    string         `json:"name,omitempty" jsonschema:"description=Registered server name"`
	Command string         `json:"command,omitempty" jsonschema:"description=Server launch command for register"`
	Cwd     string         `json:"cwd,omitempty" jsonschema:"description=Server working directory"`
	Tool    string         `json:"tool,omitempty" jsonschema:"description=Remote tool name for call_tool"`
	Args    map[string]any `json:"args,omitempty" jsonschema:"description=Arguments forwarded to the remote tool"`
}

func reflectSchema(v any) *jsonschema.Schema {
	return (&jsonschema.Reflector{DoNotReference: true}).Reflect(v)
}

// Specs returns the closed tool set in registration order, each with its
// reflected argument schema.
func Specs() []Spec {
	return []Spec{
		{Name: "run_shell", Description: "Run a command without a shell, capturing stdout and stderr", Parameters: reflectSchema(&runShellParams{})},
		{Name: "read_file", Description: "Read a file inside the workspace", Parameters: reflectSchema(&readFileParams{})},
		{Name: "write_file", Description: "Write or append a file inside the workspace", Parameters: reflectSchema(&writeFileParams{})},
		{Name: "list_dir", Description: "List a directory inside the workspace", Parameters: reflectSchema(&listDirParams{})},
		{Name: "delete_path", Description: "Delete a file or directory inside the workspace", Parameters: reflectSchema(&deletePathParams{})},
		{Name: "move_path", Description: "Move or rename a path inside the workspace", Parameters: reflectSchema(&movePathParams{})},
		{Name: "copy_path", Description: "Copy a file inside the workspace", Parameters: reflectSchema(&copyPathParams{})},
		{Name: "make_dir", Description: "Create a directory inside the workspace", Parameters: reflectSchema(&makeDirParams{})},
		{Name: "replace_in_file", Description: "Replace literal or regex matches in a file", Parameters: reflectSchema(&replaceInFileParams{})},
		{Name: "web_get", Description: "Fetch a URL and return its body", Parameters: reflectSchema(&webGetParams{})},
		{Name: "web_search", Description: "Search the web", Parameters: reflectSchema(&webSearchParams{})},
		{Name: "tmux", Description: "Manage tmux sessions: ensure, send, capture, list", Parameters: reflectSchema(&tmuxParams{})},
		{Name: "manage_service", Description: "Control a systemd unit via systemctl", Parameters: reflectSchema(&manageServiceParams{})},
		{Name: "git", Description: "Run a git command in the workspace", Parameters: reflectSchema(&gitParams{})},
		{Name: "browser_headless", Description: "Dump a page with a headless browser, falling back to a plain fetch", Parameters: reflectSchema(&browserHeadlessParams{})},
		{Name: "memory_add", Description: "Store a note in the vector memory", Parameters: reflectSchema(&memoryAddParams{})},
		{Name: "memory_search", Description: "Search the vector memory by similarity", Parameters: reflectSchema(&memorySearchParams{})},
		{Name: "memory_delete", Description: "Delete a memory entry by id", Parameters: reflectSchema(&memoryDeleteParams{})},
		{Name: "memory_list", Description: "List all memory entries", Parameters: reflectSchema(&memoryListParams{})},
		{Name: "memory_update", Description: "Update a memory entry's text or tags", Parameters: reflectSchema(&memoryUpdateParams{})},
		{Name: "plan", Description: "Create and track step-by-step plans", Parameters: reflectSchema(&planParams{})},
		{Name: "mcp", Description: "Manage and call external MCP tool servers", Parameters: reflectSchema(&mcpParams{})},
	}
}
