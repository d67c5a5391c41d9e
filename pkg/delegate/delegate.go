// Package delegate implements agent-to-agent delegation (spec §4.5):
// the Delegate calling convention exposed to an AgentChat as an
// ordinary tool, backed by a LazyDelegateChat for the target agent.
package delegate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/invopop/jsonschema"

	"github.com/parruda/swarm-sub004/pkg/agentchat"
	"github.com/parruda/swarm-sub004/pkg/hook"
	"github.com/parruda/swarm-sub004/pkg/logstream"
	"github.com/parruda/swarm-sub004/pkg/swarmerr"
	"github.com/parruda/swarm-sub004/pkg/tool"
)

// Args is the Delegate tool's input (spec §4.5: "(task_description:
// string, context_hints?: string) -> string").
type Args struct {
	TaskDescription string `json:"task_description" jsonschema:"required,description=What the delegate should accomplish"`
	ContextHints    string `json:"context_hints,omitempty" jsonschema:"description=Optional extra context for the delegate"`
}

// Tool is a CallableTool + tool.DelegationTool wrapping one delegation
// edge (fromAgent -> toAgent). Builder wiring determines sharing: for
// a shared delegate, each delegator's Tool holds a *LazyDelegateChat
// that returns the same already-built primary chat; an isolated
// delegate gets a distinct *LazyDelegateChat per (delegate, delegator)
// pair that builds its own chat.
type Tool struct {
	toolName        string
	description     string
	fromAgent       string
	toAgent         string
	target          *LazyDelegateChat
	preserveContext bool

	stream       *logstream.Stream
	hookRegistry *hook.Registry
	hookExecutor *hook.Executor
}

// NewTool builds a Delegate tool. toolName is typically derived from
// toAgent (e.g. "WorkWithB") per the builder's naming convention.
func NewTool(toolName, description, fromAgent, toAgent string, target *LazyDelegateChat, preserveContext bool,
	stream *logstream.Stream, hookRegistry *hook.Registry, hookExecutor *hook.Executor) *Tool {
	return &Tool{
		toolName: toolName, description: description,
		fromAgent: fromAgent, toAgent: toAgent,
		target: target, preserveContext: preserveContext,
		stream: stream, hookRegistry: hookRegistry, hookExecutor: hookExecutor,
	}
}

func (t *Tool) Name() string        { return t.toolName }
func (t *Tool) Description() string { return t.description }

func (t *Tool) InputSchema() map[string]any {
	reflector := &jsonschema.Reflector{RequiredFromJSONSchemaTags: true, ExpandedStruct: true, DoNotReference: true}
	schema := reflector.Reflect(new(Args))
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

// Call implements tool.CallableTool so a Delegate tool can still be
// activated and schema-advertised like any other tool; AgentChat's
// dispatch loop detects Source == SourceDelegation and calls Delegate
// directly instead, so this path is only exercised by callers that
// bypass that special-casing (e.g. direct tests).
func (t *Tool) Call(ctx tool.Context, args map[string]any) (map[string]any, error) {
	data, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	var a Args
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	content, err := t.Delegate(ctx, a.TaskDescription, a.ContextHints)
	if err != nil {
		return nil, err
	}
	return map[string]any{"content": content}, nil
}

// Delegate implements tool.DelegationTool and the full sequence of
// spec §4.5 steps 1-7.
func (t *Tool) Delegate(ctx context.Context, taskDescription, contextHints string) (string, error) {
	start := time.Now()
	t.stream.Emit(ctx, "pre_delegation", map[string]any{
		"from": t.fromAgent, "to": t.toAgent, "prompt": taskDescription, "preserve_context": t.preserveContext,
	})
	if pre := t.runHook(ctx, hook.PreDelegation, taskDescription, ""); pre != nil && pre.Kind == hook.KindHalt {
		return pre.Message, nil
	}

	next, err := pushCallStack(ctx, t.toAgent)
	if err != nil {
		return "", err
	}

	chat, err := t.target.Get()
	if err != nil {
		return "", swarmerr.Wrap(swarmerr.Configuration, "delegate", "acquire_target",
			fmt.Sprintf("failed to initialize delegate chat for %q", t.toAgent), err)
	}

	if !t.preserveContext {
		chat.ResetToBaseline()
	}

	prompt := taskDescription
	if contextHints != "" {
		prompt = taskDescription + "\n\n" + contextHints
	}

	content, err := chat.Ask(next, prompt)

	t.stream.Emit(ctx, "post_delegation", map[string]any{
		"from": t.fromAgent, "to": t.toAgent, "duration_ms": time.Since(start).Milliseconds(),
		"error": err != nil,
	})
	t.runHook(ctx, hook.PostDelegation, taskDescription, content)

	if err != nil {
		return "", swarmerr.Wrap(swarmerr.ToolExecution, "delegate", "ask", "delegate chat failed", err)
	}
	return content, nil
}

// runHook fires the pre_delegation/post_delegation hook chain for
// observability and side effects. Spec §4.5 assigns these events no
// control-flow outcome of their own (unlike pre_tool_use/
// post_tool_use); only halt is honored here, substituting its message
// for the delegation result, for symmetry with every other hook-gated
// operation (see DESIGN.md Open Question decisions).
func (t *Tool) runHook(ctx context.Context, event hook.Event, prompt, result string) *hook.Result {
	if t.hookRegistry == nil || t.hookExecutor == nil {
		return nil
	}
	hctx := hook.Context{
		Event: event, AgentName: t.fromAgent, SwarmID: "",
		Metadata: map[string]any{"from": t.fromAgent, "to": t.toAgent, "prompt": prompt, "result": result},
	}
	hooks := t.hookRegistry.Lookup(event, t.fromAgent)
	res := t.hookExecutor.ExecuteSafe(ctx, hctx, hooks)
	return &res
}

var _ tool.DelegationTool = (*Tool)(nil)
