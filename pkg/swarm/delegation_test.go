package swarm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parruda/swarm-sub004/pkg/agentctx"
	"github.com/parruda/swarm-sub004/pkg/config"
	"github.com/parruda/swarm-sub004/pkg/llmprovider"
	"github.com/parruda/swarm-sub004/pkg/logstream"
)

// TestSharedDelegateIsBuiltEagerlyAndReused verifies Pass 1/2's
// classification: a shared_across_delegations delegate is a Pass 1
// survivor, so wireDelegations must bind to the already-built primary
// rather than a lazy loader.
func TestSharedDelegateIsBuiltEagerlyAndReused(t *testing.T) {
	s := New("test-swarm", logstream.New(nil))

	bProvider := &scriptedProvider{responses: []llmprovider.Response{{Content: "b-done"}}}
	lead := echoDef("a", "lead", &scriptedProvider{responses: []llmprovider.Response{{Content: "a-done"}}})
	lead.Config.DelegatesTo = []config.DelegateSpec{{Agent: "b"}}
	shared := echoDef("b", "shared delegate", bProvider)
	shared.Config.SharedAcrossDelegations = true

	require.NoError(t, s.AddAgent(lead))
	require.NoError(t, s.AddAgent(shared))
	s.SetLead("a")
	require.NoError(t, s.Initialize(nil))

	chat, ok := s.Agent("b")
	require.True(t, ok)
	assert.NotNil(t, chat)

	// A shared delegate has no isolated-instance entry: it lives in
	// s.agents, not s.delegateInstances.
	_, hasIsolatedInstance := s.delegateInstances["b@a"]
	assert.False(t, hasIsolatedInstance)
}

// TestIsolatedDelegateIsNotBuiltUntilInvoked verifies an isolated
// (non-shared, non-lead) delegate is excluded from Pass 1 and only
// materializes through its LazyDelegateChat.
func TestIsolatedDelegateIsNotBuiltUntilInvoked(t *testing.T) {
	s := New("test-swarm", logstream.New(nil))

	lead := echoDef("a", "lead", &scriptedProvider{responses: []llmprovider.Response{{Content: "a-done"}}})
	lead.Config.DelegatesTo = []config.DelegateSpec{{Agent: "b"}}
	isolated := echoDef("b", "isolated delegate", &scriptedProvider{responses: []llmprovider.Response{{Content: "b-done"}}})

	require.NoError(t, s.AddAgent(lead))
	require.NoError(t, s.AddAgent(isolated))
	s.SetLead("a")
	require.NoError(t, s.Initialize(nil))

	_, ok := s.Agent("b")
	assert.False(t, ok, "isolated delegate must not be built eagerly")

	lazy, ok := s.delegateInstances["b@a"]
	require.True(t, ok)
	_, built := lazy.Peek()
	assert.False(t, built)

	chat, err := lazy.Get()
	require.NoError(t, err)
	require.NotNil(t, chat)
	_, built = lazy.Peek()
	assert.True(t, built)
}

// TestSwarmDelegateToolCallsExecute checks swarmDelegateTool.Delegate
// re-enters the target swarm's own Execute run loop (spec §4.2 Pass
// 2(a): "no direct chat"), rather than Chat.Ask on a single agent.
func TestSwarmDelegateToolCallsExecute(t *testing.T) {
	inner := New("inner-swarm", logstream.New(nil))
	innerProvider := &scriptedProvider{responses: []llmprovider.Response{{Content: "inner-done"}}}
	require.NoError(t, inner.AddAgent(echoDef("inner-lead", "inner lead", innerProvider)))
	inner.SetLead("inner-lead")
	require.NoError(t, inner.Initialize(nil))

	delegateTool := newSwarmDelegateTool("WorkWithInner", "delegate to inner", "a", "inner-swarm", inner, logstream.New(nil))
	content, err := delegateTool.Delegate(context.Background(), "do the thing", "")
	require.NoError(t, err)
	assert.Equal(t, "inner-done", content)
}

// TestExternalSwarmDelegateRegisteredAsTool verifies wireDelegations
// recognizes a RegisterSwarm target and binds a swarmDelegateTool
// rather than a delegate.Tool.
func TestExternalSwarmDelegateRegisteredAsTool(t *testing.T) {
	inner := New("inner-swarm", logstream.New(nil))
	innerProvider := &scriptedProvider{responses: []llmprovider.Response{{Content: "inner-done"}}}
	require.NoError(t, inner.AddAgent(echoDef("inner-lead", "inner lead", innerProvider)))
	inner.SetLead("inner-lead")
	require.NoError(t, inner.Initialize(nil))

	outer := New("outer-swarm", logstream.New(nil))
	outerLead := echoDef("a", "outer lead", &scriptedProvider{responses: []llmprovider.Response{{Content: "outer-done"}}})
	outerLead.Config.DelegatesTo = []config.DelegateSpec{{Agent: "inner-swarm"}}
	require.NoError(t, outer.AddAgent(outerLead))
	outer.RegisterSwarm("inner-swarm", inner)
	outer.SetLead("a")
	require.NoError(t, outer.Initialize(nil))

	_, ok := outer.delegateInstances["inner-swarm@a"]
	assert.False(t, ok, "external swarm delegation does not use a LazyDelegateChat")
}

// TestExecuteDetectsCycleBackToLead drives a real a->b->a delegation
// through Execute (not a manually pre-seeded call stack) and checks
// b's callback into the lead surfaces a delegation-cycle tool error
// instead of re-entering the lead's own Chat.Ask a second time.
func TestExecuteDetectsCycleBackToLead(t *testing.T) {
	s := New("test-swarm", logstream.New(nil))

	aProvider := &scriptedProvider{responses: []llmprovider.Response{
		{ToolCalls: []agentctx.ToolCall{{ID: "c1", Name: "WorkWithB", Arguments: map[string]any{"task_description": "help"}}}},
		{Content: "a-final"},
	}}
	bProvider := &scriptedProvider{responses: []llmprovider.Response{
		{ToolCalls: []agentctx.ToolCall{{ID: "c2", Name: "WorkWithA", Arguments: map[string]any{"task_description": "callback"}}}},
		{Content: "b-final"},
	}}

	lead := echoDef("a", "lead", aProvider)
	lead.Config.DelegatesTo = []config.DelegateSpec{{Agent: "b"}}
	// The lead must be SharedAcrossDelegations so b's callback resolves
	// wireDelegations' shared branch to the real s.agents["a"] instance
	// rather than lazily building a second, isolated "a".
	lead.Config.SharedAcrossDelegations = true
	b := echoDef("b", "isolated delegate", bProvider)
	b.Config.DelegatesTo = []config.DelegateSpec{{Agent: "a"}}

	require.NoError(t, s.AddAgent(lead))
	require.NoError(t, s.AddAgent(b))
	s.SetLead("a")
	require.NoError(t, s.Initialize(nil))

	result, err := s.Execute(context.Background(), "start")
	require.NoError(t, err)
	assert.Equal(t, "a-final", result.Content)
}
