package builder

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parruda/swarm-sub004/pkg/config"
	"github.com/parruda/swarm-sub004/pkg/llmprovider"
)

type fixedProvider struct{ content string }

func (p *fixedProvider) Complete(ctx context.Context, req llmprovider.Request) (llmprovider.Response, error) {
	return llmprovider.Response{Content: p.content}, nil
}

func minimalFile() *config.SwarmFile {
	return &config.SwarmFile{
		Version: 1,
		Swarm: config.SwarmBlock{
			Name: "greeter",
			Lead: "a",
			Agents: map[string]*config.AgentDefinition{
				"a": {Name: "a", Description: "the lead", Model: "test-model", Directory: "/tmp"},
			},
		},
	}
}

func TestBuildWiresLeadAndReturnsInitializedSwarm(t *testing.T) {
	b := New(minimalFile(), func(def *config.AgentDefinition) (llmprovider.Provider, error) {
		return &fixedProvider{content: "hi"}, nil
	})

	s, collector, err := b.Build()
	require.NoError(t, err)
	require.NotNil(t, collector)

	result, err := s.Execute(context.Background(), "say hi")
	require.NoError(t, err)
	assert.Equal(t, "hi", result.Content)
}

func TestBuildRejectsNilFile(t *testing.T) {
	b := New(nil, func(def *config.AgentDefinition) (llmprovider.Provider, error) {
		return &fixedProvider{}, nil
	})
	_, _, err := b.Build()
	require.Error(t, err)
}

func TestBuildPropagatesProviderFactoryError(t *testing.T) {
	b := New(minimalFile(), func(def *config.AgentDefinition) (llmprovider.Provider, error) {
		return nil, assert.AnError
	})
	_, _, err := b.Build()
	require.Error(t, err)
}

func TestWithLogLevelInstallsProcessDefaultLogger(t *testing.T) {
	b := New(minimalFile(), func(def *config.AgentDefinition) (llmprovider.Provider, error) {
		return &fixedProvider{content: "hi"}, nil
	}).WithLogLevel(slog.LevelError, "json")

	_, collector, err := b.Build()
	require.NoError(t, err)
	assert.NotNil(t, collector)
	assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelWarn))
}

func TestCodingAgentFlagSelectsCodingBasePrompt(t *testing.T) {
	file := minimalFile()
	file.Swarm.Agents["a"].CodingAgent = true

	var capturedPrompt string
	b := New(file, func(def *config.AgentDefinition) (llmprovider.Provider, error) {
		return &fixedProvider{content: "hi"}, nil
	})
	s, _, err := b.Build()
	require.NoError(t, err)

	capturedPrompt = ResolveSystemPrompt(file.Swarm.Agents["a"])
	assert.Contains(t, capturedPrompt, "senior software engineer")
	assert.NotNil(t, s)
}
