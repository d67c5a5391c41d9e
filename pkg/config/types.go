// Package config loads the declarative swarm YAML of spec §6 into
// typed AgentDefinition/MCPServerSpec/HookSpec structs: env
// interpolation, yaml.v3 parsing, godotenv loading, and mapstructure
// decoding, the same pipeline the teacher's pkg/config/loader.go uses.
// Full JSON-Schema config validation and the CLI/REPL/TUI front-end
// are explicit Non-goals; this package only produces the structs
// pkg/builder needs.
package config

import "time"

// SwarmFile is the root of one swarm YAML document (spec §6).
type SwarmFile struct {
	Version int        `yaml:"version"`
	Swarm   SwarmBlock `yaml:"swarm"`
}

// SwarmBlock is the `swarm:` section of a SwarmFile.
type SwarmBlock struct {
	Name   string                      `yaml:"name"`
	ID     string                      `yaml:"id"`
	Lead   string                      `yaml:"lead"`
	Agents map[string]*AgentDefinition `yaml:"agents"`
}

// AgentDefinition is the declarative configuration for one agent
// (spec §3's AgentDefinition entity).
type AgentDefinition struct {
	Name        string `yaml:"-"` // set from the agents map key, not a yaml field
	Description string `yaml:"description"`

	Model      string `yaml:"model"`
	Provider   string `yaml:"provider"`
	BaseURL    string `yaml:"base_url"`
	APIVersion string `yaml:"api_version"`

	Directory           string  `yaml:"directory"`
	ContextWindow       int     `yaml:"context_window"`
	CompactionThreshold float64 `yaml:"compaction_threshold"`

	Parameters map[string]any    `yaml:"parameters"`
	Headers    map[string]string `yaml:"headers"`
	Timeout    time.Duration     `yaml:"timeout"`

	CodingAgent bool `yaml:"coding_agent"`

	// DisableDefaultTools is one of: nil (all default tools enabled),
	// true (all disabled), or a list of tool names to disable --
	// spec §9's "Tool parameter polymorphism" applies here too.
	DisableDefaultTools *DisableDefaultTools `yaml:"disable_default_tools"`

	Tools       []ToolSpec       `yaml:"tools"`
	DelegatesTo []DelegateSpec   `yaml:"delegates_to"`
	MCPServers  []MCPServerSpec  `yaml:"mcp_servers"`
	Hooks       map[string][]HookSpec `yaml:"hooks"`

	SharedAcrossDelegations bool `yaml:"shared_across_delegations"`

	// PluginConfigs holds every unrecognized top-level key under one
	// agent entry, keyed by plugin name (spec §3: "plugin_configs
	// (opaque per-plugin blob addressed by plugin name)"), e.g.
	// `memory: {directory: ..., mode: researcher}`. Populated by
	// Load's post-decode pass, since mapstructure has no "everything
	// else" capture for a fixed struct target.
	PluginConfigs map[string]map[string]any `yaml:"-"`
}

// DisableDefaultTools models the polymorphic `true | [names] | omit`
// field (spec §9).
type DisableDefaultTools struct {
	All   bool
	Names []string
}

// DelegateSpec is one entry of `delegates_to` (spec §3 AgentDefinition
// attribute), polymorphic between a bare agent name and an expanded
// form with a custom tool name / preserve_context flag.
type DelegateSpec struct {
	Agent           string `yaml:"agent"`
	ToolName        string `yaml:"tool_name"`
	PreserveContext bool   `yaml:"preserve_context"`
}

// MCPServerSpec is one entry of `mcp_servers` (spec §4.6), decoded
// here and handed to pkg/mcp.ServerSpec's fields by the builder (kept
// as its own type so pkg/config does not import pkg/mcp's Transport
// enum decoding concerns directly).
type MCPServerSpec struct {
	Name    string            `yaml:"name"`
	Type    string            `yaml:"type"`
	Command string            `yaml:"command"`
	URL     string            `yaml:"url"`
	Args    []string          `yaml:"args"`
	Headers map[string]string `yaml:"headers"`
	Env     map[string]string `yaml:"env"`

	// Tools, when nil, means discovery mode; when non-nil (including
	// empty), optimized/stub mode (spec §4.6).
	Tools   []string      `yaml:"tools"`
	Timeout time.Duration `yaml:"timeout"`
}

// HookSpec is one entry of `hooks.<event>` (spec §3 HookDefinition,
// shell-command form only -- native Go hooks are registered
// programmatically, not through YAML).
type HookSpec struct {
	Matcher string        `yaml:"matcher"`
	Type    string        `yaml:"type"`
	Command string        `yaml:"command"`
	Timeout time.Duration `yaml:"timeout"`
}
