package logstream

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamEmitCarriesExecContext(t *testing.T) {
	collector := NewCollector(nil)
	stream := New(collector)

	var got Entry
	collector.Subscribe(nil, func(e Entry) { got = e })

	ctx := WithExecContext(context.Background(), ExecContext{
		ExecutionID: "exec_s_1", SwarmID: "s", ParentSwarmID: "",
	})
	stream.Emit(ctx, "swarm_start", map[string]any{"agent": "lead"})

	assert.Equal(t, "swarm_start", got.Type)
	assert.Equal(t, "exec_s_1", got.ExecutionID)
	assert.Equal(t, "s", got.SwarmID)
	assert.Equal(t, "lead", got.Agent)
}

func TestCollectorDeliversInRegistrationOrder(t *testing.T) {
	collector := NewCollector(nil)
	stream := New(collector)

	var order []string
	collector.Subscribe(nil, func(e Entry) { order = append(order, "first") })
	collector.Subscribe(nil, func(e Entry) { order = append(order, "second") })

	stream.Emit(context.Background(), "agent_step", nil)

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestCollectorIsolatesPanickingSubscriber(t *testing.T) {
	collector := NewCollector(nil)
	stream := New(collector)

	var sawSecond bool
	collector.Subscribe(nil, func(e Entry) { panic("boom") })
	collector.Subscribe(nil, func(e Entry) { sawSecond = true })

	require.NotPanics(t, func() {
		stream.Emit(context.Background(), "tool_call", nil)
	})
	assert.True(t, sawSecond)
}

func TestFilterEquality(t *testing.T) {
	collector := NewCollector(nil)
	stream := New(collector)

	var matched int
	collector.Subscribe(Filter{"type": "tool_call"}, func(e Entry) { matched++ })

	stream.Emit(context.Background(), "tool_call", nil)
	stream.Emit(context.Background(), "tool_result", nil)

	assert.Equal(t, 1, matched)
}

func TestFilterMembership(t *testing.T) {
	collector := NewCollector(nil)
	stream := New(collector)

	var matched int
	collector.Subscribe(Filter{"type": []any{"pre_tool_use", "post_tool_use"}}, func(e Entry) { matched++ })

	stream.Emit(context.Background(), "pre_tool_use", nil)
	stream.Emit(context.Background(), "post_tool_use", nil)
	stream.Emit(context.Background(), "agent_step", nil)

	assert.Equal(t, 2, matched)
}

func TestFilterRegex(t *testing.T) {
	collector := NewCollector(nil)
	stream := New(collector)

	var matched int
	collector.Subscribe(Filter{"agent": regexp.MustCompile(`^work`)}, func(e Entry) { matched++ })

	stream.Emit(context.Background(), "agent_step", map[string]any{"agent": "worker-1"})
	stream.Emit(context.Background(), "agent_step", map[string]any{"agent": "lead"})

	assert.Equal(t, 1, matched)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	collector := NewCollector(nil)
	stream := New(collector)

	var matched int
	id := collector.Subscribe(nil, func(e Entry) { matched++ })
	collector.Unsubscribe(id)

	stream.Emit(context.Background(), "agent_step", nil)

	assert.Equal(t, 0, matched)
}

func TestExecutionIDsDiffer(t *testing.T) {
	a := NewExecutionID("swarm-1")
	b := NewExecutionID("swarm-1")
	assert.NotEqual(t, a, b)
}
