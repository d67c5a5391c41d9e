package hook

// Event is a closed enumeration of hook lifecycle events (spec §4.7).
// Config loaders must reject any event name outside this set.
type Event string

const (
	SwarmStart     Event = "swarm_start"
	SwarmStop      Event = "swarm_stop"
	FirstMessage   Event = "first_message"
	UserPrompt     Event = "user_prompt"
	AgentStep      Event = "agent_step"
	AgentStop      Event = "agent_stop"
	PreToolUse     Event = "pre_tool_use"
	PostToolUse    Event = "post_tool_use"
	PreDelegation  Event = "pre_delegation"
	PostDelegation Event = "post_delegation"
	ContextWarning Event = "context_warning"
)

// Events lists every valid Event, for config-load validation.
var Events = []Event{
	SwarmStart, SwarmStop, FirstMessage, UserPrompt, AgentStep, AgentStop,
	PreToolUse, PostToolUse, PreDelegation, PostDelegation, ContextWarning,
}

// Valid reports whether e is one of the closed set of Events.
func (e Event) Valid() bool {
	for _, v := range Events {
		if v == e {
			return true
		}
	}
	return false
}

// toolScoped reports whether a Matcher applies to this event. Only the
// tool-use events carry a tool name to match against.
func (e Event) toolScoped() bool {
	return e == PreToolUse || e == PostToolUse
}
