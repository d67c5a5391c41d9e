package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerDisabledIsFullyUsableNoOp(t *testing.T) {
	m, err := NewManager(context.Background(), Config{})
	require.NoError(t, err)
	require.NotNil(t, m)

	ctx, end := m.StartLLMSpan(context.Background(), "a", "gpt")
	assert.NotNil(t, ctx)
	end(nil)

	m.RecordLLMCall("a", "gpt", time.Millisecond, 10, 5, nil)
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.Shutdown(context.Background()))
}

func TestNilManagerMethodsAreNoOps(t *testing.T) {
	var m *Manager
	ctx, end := m.StartLLMSpan(context.Background(), "a", "gpt")
	assert.NotNil(t, ctx)
	end(errors.New("boom"))
	m.RecordLLMCall("a", "gpt", time.Millisecond, 1, 1, nil)
	m.RecordToolCall("a", "Bash", time.Millisecond, nil)
	m.RecordDelegation("a", "b", time.Millisecond, nil)
	m.RecordContextWarning("a", 80)
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.Shutdown(context.Background()))
}

func TestMetricsEnabledRegistersLLMCallCounter(t *testing.T) {
	m, err := NewManager(context.Background(), Config{MetricsEnabled: true, MetricsNamespace: "test"})
	require.NoError(t, err)

	m.RecordLLMCall("lead", "gpt-4", 10*time.Millisecond, 100, 50, nil)
	require.NotNil(t, m.Registry())

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	var found bool
	for _, fam := range families {
		if fam.GetName() == "test_llm_calls_total" {
			found = true
		}
	}
	assert.True(t, found, "expected test_llm_calls_total metric family to be registered")
}

func TestMetricsEnabledRegistersToolErrorCounter(t *testing.T) {
	m, err := NewManager(context.Background(), Config{MetricsEnabled: true})
	require.NoError(t, err)

	m.RecordToolCall("a", "Bash", time.Millisecond, errors.New("boom"))

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	var found bool
	for _, fam := range families {
		if fam.GetName() == "swarm_tool_errors_total" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestMetricsDisabledRegistryIsNil(t *testing.T) {
	m, err := NewManager(context.Background(), Config{})
	require.NoError(t, err)
	assert.Nil(t, m.Registry())
}
