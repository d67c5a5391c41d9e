package builder

import "github.com/parruda/swarm-sub004/pkg/config"

// generalBasePrompt frames a default assistant agent: no tool-calling
// conventions assumed, conversational tone.
const generalBasePrompt = `You are a helpful AI assistant. Answer the user's questions directly
and concisely. When you are unsure, say so rather than guessing.`

// codingAgentBasePrompt frames an agent whose tools read and write a
// project directory (spec §3 AgentDefinition: "coding_agent flag
// (selects base prompt)").
const codingAgentBasePrompt = `You are a careful, senior software engineer working inside a project
directory. Read before you write, prefer the smallest change that
satisfies the request, and explain non-obvious decisions briefly.
Use your tools to inspect the codebase rather than guessing at its
contents.`

// ResolveSystemPrompt picks the base prompt for def's coding_agent flag
// and appends its description as framing for any agent other agents
// might delegate to, so the same text that appears in a delegation
// tool's description is also visible to the agent itself.
func ResolveSystemPrompt(def *config.AgentDefinition) string {
	base := generalBasePrompt
	if def.CodingAgent {
		base = codingAgentBasePrompt
	}
	if def.Description == "" {
		return base
	}
	return base + "\n\nYour role in this swarm: " + def.Description
}
