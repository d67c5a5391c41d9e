package swarm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/invopop/jsonschema"

	"github.com/parruda/swarm-sub004/pkg/logstream"
	"github.com/parruda/swarm-sub004/pkg/swarmerr"
	"github.com/parruda/swarm-sub004/pkg/tool"
)

// swarmDelegateArgs mirrors delegate.Args field for field, with schema
// descriptions that name the target swarm rather than a delegate agent.
type swarmDelegateArgs struct {
	TaskDescription string `json:"task_description" jsonschema:"required,description=What the target swarm should accomplish"`
	ContextHints    string `json:"context_hints,omitempty" jsonschema:"description=Optional extra context for the target swarm"`
}

// swarmDelegateTool is the Pass 2(a) "external registered swarm" case
// (spec §4.2): delegation binds to a swarm-delegation path rather than
// a single AgentChat, so the call re-enters the target Swarm's own
// Execute loop (its own swarm_start/swarm_stop, its own lead agent)
// instead of Chat.Ask on one agent.
type swarmDelegateTool struct {
	toolName    string
	description string
	fromAgent   string
	toSwarm     string
	target      *Swarm
	stream      *logstream.Stream
}

func newSwarmDelegateTool(toolName, description, fromAgent, toSwarm string, target *Swarm, stream *logstream.Stream) *swarmDelegateTool {
	return &swarmDelegateTool{
		toolName: toolName, description: description,
		fromAgent: fromAgent, toSwarm: toSwarm,
		target: target, stream: stream,
	}
}

func (t *swarmDelegateTool) Name() string        { return t.toolName }
func (t *swarmDelegateTool) Description() string { return t.description }

func (t *swarmDelegateTool) InputSchema() map[string]any {
	reflector := &jsonschema.Reflector{RequiredFromJSONSchemaTags: true, ExpandedStruct: true, DoNotReference: true}
	schema := reflector.Reflect(new(swarmDelegateArgs))
	data, err := json.Marshal(schema)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]any{"type": "object"}
	}
	delete(m, "$schema")
	delete(m, "$id")
	return m
}

func (t *swarmDelegateTool) Call(ctx tool.Context, args map[string]any) (map[string]any, error) {
	data, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	var a swarmDelegateArgs
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	content, err := t.Delegate(ctx, a.TaskDescription, a.ContextHints)
	if err != nil {
		return nil, err
	}
	return map[string]any{"content": content}, nil
}

func (t *swarmDelegateTool) Delegate(ctx context.Context, taskDescription, contextHints string) (string, error) {
	start := time.Now()
	t.stream.Emit(ctx, "pre_delegation", map[string]any{
		"from": t.fromAgent, "to_swarm": t.toSwarm, "prompt": taskDescription,
	})

	prompt := taskDescription
	if contextHints != "" {
		prompt = taskDescription + "\n\n" + contextHints
	}

	result, err := t.target.Execute(ctx, prompt)

	t.stream.Emit(ctx, "post_delegation", map[string]any{
		"from": t.fromAgent, "to_swarm": t.toSwarm, "duration_ms": time.Since(start).Milliseconds(),
		"error": err != nil,
	})

	if err != nil {
		return "", swarmerr.Wrap(swarmerr.ToolExecution, "swarm", "delegate_to_swarm",
			fmt.Sprintf("delegation to swarm %q failed", t.toSwarm), err)
	}
	return result.Content, nil
}

var _ tool.DelegationTool = (*swarmDelegateTool)(nil)
