package swarm

import (
	"context"
	"time"

	"github.com/parruda/swarm-sub004/pkg/agentchat"
	"github.com/parruda/swarm-sub004/pkg/delegate"
	"github.com/parruda/swarm-sub004/pkg/swarmerr"
)

// Checkpoint captures enough state to resume one halted agent rather
// than restarting the whole swarm from the lead (SPEC_FULL.md's
// Checkpoint/recovery supplement, grounded on the teacher's
// pkg/agent/checkpoint.go: a halted agent's name plus the call stack
// it was delegated through). It is additive to Execute's halt/
// cancellation semantics, not a replacement: a caller that doesn't
// need HITL-style resume can ignore this file entirely.
type Checkpoint struct {
	AgentName string
	CallStack []string
	Prompt    string
	Reason    string
	Message   string
}

// NewCheckpoint captures a Checkpoint for agentName at ctx's current
// delegation depth, typically built by a caller that observed an
// "agent_stop" LogEntry with reason "halt" and wants to resume later
// rather than treating the halt as final.
func NewCheckpoint(ctx context.Context, agentName, prompt, reason, message string) Checkpoint {
	return Checkpoint{
		AgentName: agentName,
		CallStack: delegate.CallStack(ctx),
		Prompt:    prompt,
		Reason:    reason,
		Message:   message,
	}
}

// checkpointChat resolves cp.AgentName against both Pass 1 survivors
// and already-built isolated delegate instances (spec §4.2), since a
// halt can occur just as plausibly inside a delegate's turn as inside
// the lead's.
func (s *Swarm) checkpointChat(name string) (*agentchat.Chat, bool) {
	if chat, ok := s.agents[name]; ok {
		return chat, true
	}
	for key, lazy := range s.delegateInstances {
		delegateName, _, _ := splitDelegateKey(key)
		if delegateName != name {
			continue
		}
		if chat, built := lazy.Peek(); built {
			return chat, true
		}
	}
	return nil, false
}

// Resume re-drives the checkpointed agent directly with a new prompt,
// re-establishing the delegation call stack the halt occurred at so
// cycle detection on any further delegation picks up where it left
// off. Unlike Execute, Resume does not run the lead's swarm_stop/
// reprompt loop: it resumes exactly the agent that halted.
func (s *Swarm) Resume(ctx context.Context, cp Checkpoint, prompt string) (Result, error) {
	if !s.initialized {
		return Result{}, swarmerr.New(swarmerr.Configuration, "swarm", "resume", "swarm has not been initialized")
	}

	chat, ok := s.checkpointChat(cp.AgentName)
	if !ok {
		return Result{}, swarmerr.New(swarmerr.Configuration, "swarm", "resume",
			"checkpointed agent \""+cp.AgentName+"\" is not a live agent in this swarm")
	}

	s.executing.Lock()
	defer s.executing.Unlock()

	start := time.Now()
	ctx = delegate.WithCallStack(ctx, cp.CallStack)

	s.stream.Emit(ctx, "swarm_resume", map[string]any{
		"agent": cp.AgentName, "reason": cp.Reason, "prompt": prompt,
	})

	content, err := chat.Ask(ctx, prompt)

	s.stream.Emit(ctx, "swarm_stop", map[string]any{"agent": cp.AgentName, "resumed": true})

	result := Result{
		Content:        content,
		Agent:          cp.AgentName,
		Duration:       time.Since(start),
		Error:          err,
		AgentsInvolved: s.involvedAgents(),
	}
	result.TotalCost, result.TotalTokens = s.aggregateUsage()
	return result, err
}

// splitDelegateKey reverses the "<delegate>@<primary>" format
// delegateInstances is keyed by.
func splitDelegateKey(key string) (delegateName, primary string, ok bool) {
	for i := 0; i < len(key); i++ {
		if key[i] == '@' {
			return key[:i], key[i+1:], true
		}
	}
	return key, "", false
}
