package tool

import "context"

// Context is the execution environment a CallableTool runs with. It
// embeds context.Context so tools can use it directly for
// cancellation and deadlines, and carries the agent-scoped state a
// built-in tool needs without reaching into the broader swarm.
type Context struct {
	context.Context

	// AgentName/AgentDirectory identify the calling agent, used for
	// permission-envelope resolution and digest bookkeeping.
	AgentName      string
	AgentDirectory string

	// Permissions governs file-touching tools (spec §4.4).
	Permissions Permissions

	// Digests tracks per-path content digests for the read family, so
	// post-tool hooks can detect whether a write changed a file a prior
	// read had already seen.
	Digests *DigestTracker

	// Todos backs the TodoWrite tool; one store per chat.
	Todos *TodoStore
}
