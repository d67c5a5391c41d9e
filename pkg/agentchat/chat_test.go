package agentchat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parruda/swarm-sub004/pkg/agentctx"
	"github.com/parruda/swarm-sub004/pkg/hook"
	"github.com/parruda/swarm-sub004/pkg/llmprovider"
	"github.com/parruda/swarm-sub004/pkg/tool"
)

// scriptedProvider returns one canned Response per call, in order.
type scriptedProvider struct {
	responses []llmprovider.Response
	calls     int
	requests  []llmprovider.Request
}

func (p *scriptedProvider) Complete(ctx context.Context, req llmprovider.Request) (llmprovider.Response, error) {
	p.requests = append(p.requests, req)
	resp := p.responses[p.calls]
	p.calls++
	return resp, nil
}

type echoTool struct{}

func (echoTool) Name() string                   { return "Echo" }
func (echoTool) Description() string            { return "echoes its input" }
func (echoTool) InputSchema() map[string]any    { return map[string]any{"type": "object"} }
func (echoTool) Call(ctx tool.Context, args map[string]any) (map[string]any, error) {
	return map[string]any{"echoed": args["text"]}, nil
}

func newTestChat(t *testing.T, provider llmprovider.Provider, registry *tool.Registry) *Chat {
	t.Helper()
	if registry == nil {
		registry = tool.NewRegistry()
	}
	return New(Config{
		AgentName:          "tester",
		SwarmID:            "swarm1",
		SystemPrompt:       "you are a test agent",
		Model:              "test-model",
		Provider:           provider,
		Tools:              registry,
		Context:            agentctx.NewContext("tester", "swarm1", ""),
		MaxConcurrentTools: 4,
	})
}

// recordingTelemetry captures which Telemetry methods Chat calls,
// without depending on pkg/telemetry (agentchat must not import it).
type recordingTelemetry struct {
	llmCalls        int
	llmSpansStarted int
}

func (r *recordingTelemetry) StartLLMSpan(ctx context.Context, agent, model string) (context.Context, func(error)) {
	r.llmSpansStarted++
	return ctx, func(error) {}
}
func (r *recordingTelemetry) RecordLLMCall(agent, model string, dur time.Duration, inputTokens, outputTokens int, err error) {
	r.llmCalls++
}
func (r *recordingTelemetry) StartToolSpan(ctx context.Context, agent, tool string) (context.Context, func(error)) {
	return ctx, func(error) {}
}
func (r *recordingTelemetry) RecordToolCall(agent, tool string, dur time.Duration, err error) {}
func (r *recordingTelemetry) StartDelegationSpan(ctx context.Context, fromAgent, toAgent string) (context.Context, func(error)) {
	return ctx, func(error) {}
}
func (r *recordingTelemetry) RecordDelegation(fromAgent, toAgent string, dur time.Duration, err error) {
}
func (r *recordingTelemetry) RecordContextWarning(agent string, percent int) {}

func TestAskRecordsLLMCallThroughTelemetry(t *testing.T) {
	provider := &scriptedProvider{responses: []llmprovider.Response{{Content: "hi"}}}
	chat := newTestChat(t, provider, nil)
	rec := &recordingTelemetry{}
	chat.cfg.Telemetry = rec

	_, err := chat.Ask(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.llmCalls)
	assert.Equal(t, 1, rec.llmSpansStarted)
}

func TestAskReturnsContentWhenNoToolCalls(t *testing.T) {
	provider := &scriptedProvider{responses: []llmprovider.Response{{Content: "hello there"}}}
	chat := newTestChat(t, provider, nil)

	out, err := chat.Ask(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello there", out)
	assert.Equal(t, 1, provider.calls)
}

func TestAskPersistsSystemPromptFirst(t *testing.T) {
	provider := &scriptedProvider{responses: []llmprovider.Response{{Content: "ok"}}}
	chat := newTestChat(t, provider, nil)

	_, err := chat.Ask(context.Background(), "hi")
	require.NoError(t, err)

	msgs := chat.Messages()
	require.NotEmpty(t, msgs)
	assert.Equal(t, agentctx.RoleSystem, msgs[0].Role)
}

func TestAskDispatchesToolCallsAndLoops(t *testing.T) {
	registry := tool.NewRegistry()
	require.NoError(t, registry.Register(echoTool{}, tool.SourceBuiltin, nil))

	provider := &scriptedProvider{responses: []llmprovider.Response{
		{ToolCalls: []agentctx.ToolCall{{ID: "c1", Name: "Echo", Arguments: map[string]any{"text": "x"}}}},
		{Content: "done"},
	}}
	chat := newTestChat(t, provider, registry)

	out, err := chat.Ask(context.Background(), "go")
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.Equal(t, 2, provider.calls)

	msgs := chat.Messages()
	var sawToolResult bool
	for _, m := range msgs {
		if m.Role == agentctx.RoleTool && m.ToolCallID == "c1" {
			sawToolResult = true
		}
	}
	assert.True(t, sawToolResult)
}

func TestAskHonorsUserPromptHalt(t *testing.T) {
	registry := hook.NewRegistry()
	registry.AddDefault(hook.NewNativeHook(hook.UserPrompt, 0, nil, func(ctx context.Context, hctx hook.Context) hook.Result {
		return hook.Halt("nope")
	}))
	provider := &scriptedProvider{responses: []llmprovider.Response{{Content: "should not be called"}}}
	chat := newTestChat(t, provider, nil)
	chat.cfg.HookRegistry = registry
	chat.cfg.HookExecutor = hook.NewExecutor(nil, nil)

	out, err := chat.Ask(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "nope", out)
	assert.Equal(t, 0, provider.calls)
}

func TestAskFinishAgentHookShortCircuits(t *testing.T) {
	registry := tool.NewRegistry()
	require.NoError(t, registry.Register(echoTool{}, tool.SourceBuiltin, nil))

	hookRegistry := hook.NewRegistry()
	hookRegistry.AddAgent("tester", hook.NewNativeHook(hook.PreToolUse, 0, nil, func(ctx context.Context, hctx hook.Context) hook.Result {
		return hook.FinishAgent("stopped early")
	}))

	provider := &scriptedProvider{responses: []llmprovider.Response{
		{ToolCalls: []agentctx.ToolCall{{ID: "c1", Name: "Echo", Arguments: map[string]any{"text": "x"}}}},
	}}
	chat := newTestChat(t, provider, registry)
	chat.cfg.HookRegistry = hookRegistry
	chat.cfg.HookExecutor = hook.NewExecutor(nil, nil)

	out, err := chat.Ask(context.Background(), "go")
	require.NoError(t, err)
	assert.Equal(t, "stopped early", out)
}

func TestAskSkipsToolHooksForDelegationTools(t *testing.T) {
	registry := tool.NewRegistry()
	dt := &fakeDelegationTool{result: "delegated-result"}
	require.NoError(t, registry.Register(dt, tool.SourceDelegation, nil))

	hookRegistry := hook.NewRegistry()
	var preToolFired bool
	hookRegistry.AddDefault(hook.NewNativeHook(hook.PreToolUse, 0, nil, func(ctx context.Context, hctx hook.Context) hook.Result {
		preToolFired = true
		return hook.Continue()
	}))

	provider := &scriptedProvider{responses: []llmprovider.Response{
		{ToolCalls: []agentctx.ToolCall{{ID: "c1", Name: "WorkWithB", Arguments: map[string]any{"task_description": "do X"}}}},
		{Content: "final:delegated-result"},
	}}
	chat := newTestChat(t, provider, registry)
	chat.cfg.HookRegistry = hookRegistry
	chat.cfg.HookExecutor = hook.NewExecutor(nil, nil)

	out, err := chat.Ask(context.Background(), "go")
	require.NoError(t, err)
	assert.Equal(t, "final:delegated-result", out)
	assert.False(t, preToolFired, "pre_tool_use must not fire for delegation tools")
	assert.True(t, dt.called)
}

type fakeDelegationTool struct {
	result string
	called bool
}

func (f *fakeDelegationTool) Name() string                { return "WorkWithB" }
func (f *fakeDelegationTool) Description() string          { return "delegates to b" }
func (f *fakeDelegationTool) InputSchema() map[string]any  { return map[string]any{"type": "object"} }
func (f *fakeDelegationTool) Call(ctx tool.Context, args map[string]any) (map[string]any, error) {
	return nil, nil
}
func (f *fakeDelegationTool) Delegate(ctx context.Context, taskDescription, contextHints string) (string, error) {
	f.called = true
	return f.result, nil
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	provider := &scriptedProvider{responses: []llmprovider.Response{{Content: "hello"}}}
	chat := newTestChat(t, provider, nil)
	_, err := chat.Ask(context.Background(), "hi")
	require.NoError(t, err)

	snap := chat.Snapshot()
	assert.Equal(t, "you are a test agent", snap.SystemPrompt)

	restored := newTestChat(t, provider, nil)
	restored.Restore(snap)
	assert.Equal(t, chat.Messages(), restored.Messages())
}
