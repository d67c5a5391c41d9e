package agentchat

import "github.com/parruda/swarm-sub004/pkg/agentctx"

// Snapshot is this chat's contribution to the swarm-wide persisted
// document of spec §4.3: `agents:{name:{conversation, system_prompt,
// context_state}}`. The outer document (version, type, delegations,
// scratchpad, plugin_states, read_tracking, metadata) is assembled by
// the swarm/executor layer, which owns every agent's name.
type Snapshot struct {
	Conversation []agentctx.Message `json:"conversation"`
	SystemPrompt string             `json:"system_prompt"`
	ContextState ContextState       `json:"context_state"`
}

// ContextState is the persisted subset of agentctx.Context: the
// warning thresholds already fired, so a restored chat doesn't re-fire
// context_limit_warning for a percentage it already reported.
type ContextState struct {
	ThresholdsFired []int `json:"thresholds_fired"`
}

// Snapshot captures this chat's current state for persistence.
func (c *Chat) Snapshot() Snapshot {
	c.turnMu.Lock()
	defer c.turnMu.Unlock()

	snap := Snapshot{
		Conversation: append([]agentctx.Message{}, c.messages...),
		SystemPrompt: c.cfg.SystemPrompt,
	}
	for _, t := range agentctx.WarningThresholds {
		if c.cfg.Context != nil && c.cfg.Context.ThresholdHit(t) {
			snap.ContextState.ThresholdsFired = append(snap.ContextState.ThresholdsFired, t)
		}
	}
	return snap
}

// Restore replaces this chat's conversation and context state from a
// previously captured Snapshot. The caller is responsible for schema
// version/type validation before calling Restore (spec §4.3:
// "Restore validates schema version... checks type match").
func (c *Chat) Restore(snap Snapshot) {
	c.turnMu.Lock()
	defer c.turnMu.Unlock()

	c.messages = append([]agentctx.Message{}, snap.Conversation...)
	c.lastTodoWriteMessageIndex = -1
	for i, m := range c.messages {
		if m.Role == agentctx.RoleTool {
			continue
		}
		for _, tc := range m.ToolCalls {
			if tc.Name == "TodoWrite" {
				c.lastTodoWriteMessageIndex = i
			}
		}
	}

	if c.cfg.Context != nil {
		for _, t := range snap.ContextState.ThresholdsFired {
			c.cfg.Context.MarkThresholdHit(t)
		}
	}
}
