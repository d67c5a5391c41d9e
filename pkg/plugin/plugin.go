// Package plugin defines the extension point spec §4.2/§4.3/§9
// describe: a typed Plugin interface (create_storage,
// on_agent_initialized, on_user_message) plus lifecycle, a Registry
// keyed by plugin name, and an out-of-process go-plugin transport for
// plugins that ship as a separate binary.
package plugin

import (
	"context"
	"fmt"

	"github.com/parruda/swarm-sub004/pkg/hook"
	"github.com/parruda/swarm-sub004/pkg/tool"
)

// Storage is the opaque per-agent handle a Plugin manages; the core
// treats it as a weak reference (spec §3: "Plugin storages are weak
// references from the core's perspective — plugins manage their own
// internals").
type Storage interface {
	// Close releases whatever the plugin allocated for this agent, if
	// anything. Most in-process plugins can no-op this.
	Close() error
}

// Plugin is the exact extension surface spec §4.2/§4.3 name, in place
// of the source corpus's duck typing (spec §9).
type Plugin interface {
	// Name identifies the plugin; it is the key addressed by
	// AgentDefinition.plugin_configs.
	Name() string

	// CreateStorage builds this agent's Storage from its opaque
	// plugin_configs blob (spec §4.2 Pass 1).
	CreateStorage(ctx context.Context, agentName string, config map[string]any) (Storage, error)

	// OnAgentInitialized runs after an agent's AgentChat and
	// ToolRegistry exist, letting the plugin register further tools
	// (spec §4.2 Pass 1: "e.g., a plugin's LoadSkill").
	OnAgentInitialized(ctx context.Context, agentName string, storage Storage, registry *tool.Registry, hooks *hook.Registry) error

	// OnUserMessage contributes ephemeral reminder strings for one
	// user turn (spec §4.3 step 4, e.g. semantic memory suggestions).
	// It satisfies pkg/agentchat.UserMessageReminder structurally.
	OnUserMessage(ctx context.Context, agentName, prompt string) ([]string, error)

	// Shutdown releases any process-wide state the plugin holds,
	// called once per swarm teardown.
	Shutdown(ctx context.Context) error
}

// Error is the plugin-specific error shape, generalized from the
// teacher's PluginError into swarmerr's taxonomy at the call site
// (callers wrap with swarmerr.Wrap(swarmerr.Configuration, ...) rather
// than this package defining its own parallel error family).
type Error struct {
	PluginName string
	Operation  string
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("plugin %q: %s: %s: %v", e.PluginName, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("plugin %q: %s: %s", e.PluginName, e.Operation, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(name, op, msg string, err error) *Error {
	return &Error{PluginName: name, Operation: op, Message: msg, Err: err}
}
