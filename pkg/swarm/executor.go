package swarm

import (
	"context"
	"errors"
	"time"

	"github.com/parruda/swarm-sub004/pkg/agentchat"
	"github.com/parruda/swarm-sub004/pkg/delegate"
	"github.com/parruda/swarm-sub004/pkg/hook"
	"github.com/parruda/swarm-sub004/pkg/logstream"
	"github.com/parruda/swarm-sub004/pkg/swarmerr"
)

// Result is the outcome of one Swarm.Execute call (spec §4.1/§4.9).
type Result struct {
	Content        string
	Agent          string
	Logs           []logstream.Entry
	Duration       time.Duration
	Error          error
	TotalCost      float64
	TotalTokens    int
	AgentsInvolved []string
}

// Execute runs the Executor run loop of spec §4.9 against s's lead
// agent. It is reentrant only after a previous call has resolved
// (spec §4.1): a second concurrent call blocks on s.executing until
// the first finishes.
func (s *Swarm) Execute(ctx context.Context, prompt string) (Result, error) {
	if !s.initialized {
		return Result{}, swarmerr.New(swarmerr.Configuration, "swarm", "execute", "swarm has not been initialized")
	}

	s.executing.Lock()
	defer s.executing.Unlock()

	start := time.Now()

	previous, hadPrevious := logstream.FromContext(ctx)
	executionID := logstream.NewExecutionID(s.ID)
	execCtx := logstream.ExecContext{ExecutionID: executionID, SwarmID: s.ID, ParentSwarmID: previous.ParentSwarmID}
	ctx = logstream.WithExecContext(ctx, execCtx)

	var unsubscribe func()
	var entries []logstream.Entry
	if s.collector != nil {
		id := s.collector.Subscribe(logstream.Filter{"execution_id": executionID}, func(e logstream.Entry) {
			entries = append(entries, e)
		})
		unsubscribe = func() { s.collector.Unsubscribe(id) }
	}

	lead, ok := s.agents[s.lead]
	if !ok {
		return Result{}, swarmerr.New(swarmerr.Configuration, "swarm", "execute",
			"lead agent was not initialized")
	}

	s.stream.Emit(ctx, "swarm_start", map[string]any{"agent": s.lead, "prompt": prompt})

	// Seed the delegation call stack with the lead's own name so a
	// delegation chain that loops back to it (a -> b -> a) is caught as
	// a cycle by pushCallStack rather than re-entering the lead's Chat
	// (spec.md §4, Testable Property #10: every delegation cycle,
	// including one closing back on the originating agent, must be
	// detected).
	ctx = delegate.WithCallStack(ctx, []string{s.lead})

	content, execErr := s.runLoop(ctx, lead, prompt)

	s.emitSwarmStopFinal(ctx)

	if cleanupErr := s.cleanupAll(); cleanupErr != nil && execErr == nil {
		execErr = cleanupErr
	}

	if hadPrevious {
		ctx = logstream.WithExecContext(ctx, previous)
	}
	if unsubscribe != nil {
		unsubscribe()
	}

	result := Result{
		Content:        content,
		Agent:          s.lead,
		Logs:           entries,
		Duration:       time.Since(start),
		Error:          execErr,
		AgentsInvolved: s.involvedAgents(),
	}
	result.TotalCost, result.TotalTokens = s.aggregateUsage()
	return result, nil
}

// runLoop implements spec §4.9's loop body: ask the lead, honor a
// finish_swarm bubble as an immediate break, otherwise fire swarm_stop
// and continue with a reprompt if one was requested.
func (s *Swarm) runLoop(ctx context.Context, lead *agentchat.Chat, prompt string) (string, error) {
	currentPrompt := prompt
	for {
		content, err := lead.Ask(ctx, currentPrompt)
		if err != nil {
			var finish *agentchat.FinishSwarmSignal
			if errors.As(err, &finish) {
				return finish.Message, nil
			}
			return "", swarmerr.Wrap(swarmerr.LLM, "swarm", "execute", "lead agent ask failed", err)
		}

		hctx := hook.Context{Event: hook.SwarmStop, AgentName: s.lead, SwarmID: s.ID}
		stopResult := s.hookExecutor.ExecuteSafe(ctx, hctx, s.hookRegistry.Lookup(hook.SwarmStop, s.lead))
		if stopResult.Kind == hook.KindReprompt {
			currentPrompt = stopResult.Value
			continue
		}
		return content, nil
	}
}

// emitSwarmStopFinal guarantees exactly one terminal swarm_stop event
// fires even when runLoop exits through an error path (spec §4.9:
// "fire swarm_stop_final (ensures exactly one swarm_stop event even on
// error)").
func (s *Swarm) emitSwarmStopFinal(ctx context.Context) {
	s.stream.Emit(ctx, "swarm_stop", map[string]any{"agent": s.lead})
}

// cleanupAll closes every MCP client opened for any agent this swarm
// built (spec §4.1 cleanup, §4.6).
func (s *Swarm) cleanupAll() error {
	var firstErr error
	for name := range s.definitions {
		if err := s.mcpConfigurator.Cleanup(name); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Swarm) involvedAgents() []string {
	names := make([]string, 0, len(s.agents))
	for name := range s.agents {
		names = append(names, name)
	}
	return names
}

func (s *Swarm) aggregateUsage() (float64, int) {
	var totalTokens int
	for _, chat := range s.agents {
		usage := chat.Usage()
		totalTokens += usage.CumulativeTotalTokens
	}
	return 0, totalTokens
}
