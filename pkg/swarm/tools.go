package swarm

import (
	"github.com/parruda/swarm-sub004/pkg/config"
	"github.com/parruda/swarm-sub004/pkg/tool"
)

// writeClassTools names the built-ins that get DefaultWritePermissions
// injected when an agent configured them with no explicit permissions
// (spec §3 AgentDefinition invariant).
var writeClassTools = map[string]bool{
	"Write": true, "Edit": true, "MultiEdit": true,
}

// permissionBoundTool overrides ctx.Permissions with a per-agent/
// per-tool resolved envelope before delegating to the real tool. It
// exists because agentchat.Chat.invokeTool builds a tool.Context with
// AgentName/AgentDirectory/Digests/Todos but leaves Permissions at its
// zero value — permission resolution is a builder-time, per-agent
// concern (Directory and ToolSpec both live in config.AgentDefinition),
// not something the stateless built-in tools (tool.NewWrite() etc.)
// can know about themselves.
type permissionBoundTool struct {
	tool.CallableTool
	perms tool.Permissions
}

func (p permissionBoundTool) Call(ctx tool.Context, args map[string]any) (map[string]any, error) {
	ctx.Permissions = p.perms
	return p.CallableTool.Call(ctx, args)
}

func bindPermissions(t tool.CallableTool, perms tool.Permissions) tool.CallableTool {
	return permissionBoundTool{CallableTool: t, perms: perms}
}

// builtinFactories lists every built-in tool constructor in a fixed
// order, so registry registration order (and therefore the LLM-facing
// tool list before any MCP/plugin/delegation tools are added) is
// deterministic.
var builtinFactories = []func() tool.CallableTool{
	tool.NewRead, tool.NewWrite, tool.NewEdit, tool.NewMultiEdit, tool.NewBash, tool.NewTodoWrite,
}

// disabled reports whether name is excluded by def's
// disable_default_tools setting.
func disabled(def *config.DisableDefaultTools, name string) bool {
	if def == nil {
		return false
	}
	if def.All {
		return true
	}
	for _, n := range def.Names {
		if n == name {
			return true
		}
	}
	return false
}

// resolvedPermissions returns the ToolSpec-configured permissions for
// name, falling back to DefaultWritePermissions for write-class tools
// left unconfigured (spec §3), or the zero-value envelope otherwise
// (under which Bash's CheckCommand allows every command).
func resolvedPermissions(specs []config.ToolSpec, name string) tool.Permissions {
	for _, spec := range specs {
		if spec.Name == name && spec.Permissions != nil {
			return *spec.Permissions
		}
	}
	if writeClassTools[name] {
		return tool.DefaultWritePermissions()
	}
	return tool.Permissions{}
}

// buildToolRegistry constructs the full built-in tool set for one
// agent, applying disable_default_tools gating and per-tool permission
// resolution (spec §4.2 Pass 1, §4.4). MCP, delegation, and plugin
// tools are registered afterward by the initializer.
func buildToolRegistry(def *config.AgentDefinition) (*tool.Registry, error) {
	registry := tool.NewRegistry()
	for _, factory := range builtinFactories {
		base := factory()
		name := base.Name()
		if disabled(def.DisableDefaultTools, name) {
			continue
		}
		bound := bindPermissions(base, resolvedPermissions(def.Tools, name))
		if err := registry.Register(bound, tool.SourceBuiltin, nil); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
