package hook

import "sort"

// Registry holds swarm-wide default hooks plus per-agent hooks, and
// resolves the ordered callback chain for one (event, agent) pair
// (spec §4.7).
type Registry struct {
	defaults map[Event][]*Definition
	agent    map[string]map[Event][]*Definition
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		defaults: make(map[Event][]*Definition),
		agent:    make(map[string]map[Event][]*Definition),
	}
}

// AddDefault registers a swarm-wide hook, applying to every agent.
func (r *Registry) AddDefault(def *Definition) {
	r.defaults[def.Event] = append(r.defaults[def.Event], def)
}

// AddAgent registers a hook scoped to one agent.
func (r *Registry) AddAgent(agentName string, def *Definition) {
	if r.agent[agentName] == nil {
		r.agent[agentName] = make(map[Event][]*Definition)
	}
	r.agent[agentName][def.Event] = append(r.agent[agentName][def.Event], def)
}

// Lookup returns the ordered callback chain for event at agentName:
// defaults first, then agent-scoped hooks for the same event (spec
// §4.7: "default (swarm) hooks run before agent hooks in the same
// event"), the whole chain then sorted by priority descending with
// registration order breaking ties.
func (r *Registry) Lookup(event Event, agentName string) []*Definition {
	// defaults is appended before agent-scoped hooks, and the sort below
	// is stable, so equal-priority defaults keep their lead over
	// equal-priority agent hooks regardless of registration seq.
	combined := append([]*Definition{}, r.defaults[event]...)
	if scoped, ok := r.agent[agentName]; ok {
		combined = append(combined, scoped[event]...)
	}
	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].Priority > combined[j].Priority
	})
	return combined
}
