package agentchat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parruda/swarm-sub004/pkg/agentctx"
	"github.com/parruda/swarm-sub004/pkg/llmprovider"
	"github.com/parruda/swarm-sub004/pkg/logstream"
)

// TestAskAutoCompactsOnceThresholdCrossed checks the SPEC_FULL §3
// automatic trigger: once context_usage_percentage crosses
// CompactionThreshold, Ask compacts in place without a separate
// Compact call.
func TestAskAutoCompactsOnceThresholdCrossed(t *testing.T) {
	var dropped []agentctx.Message
	compactor := agentctx.NewCompactor(func(messages []agentctx.Message) (string, error) {
		dropped = messages
		return "summary of earlier turns", nil
	})

	provider := &scriptedProvider{responses: []llmprovider.Response{
		{Content: "hi", InputTokens: 95, OutputTokens: 5},
	}}
	chat := newTestChat(t, provider, nil)
	chat.cfg.Context.ContextWindowOverride = 100
	chat.cfg.Compactor = compactor

	var events []string
	collector := logstream.NewCollector(nil)
	collector.Subscribe(nil, func(e logstream.Entry) { events = append(events, e.Type) })
	chat.cfg.Stream = logstream.New(collector)

	out, err := chat.Ask(context.Background(), "go")
	require.NoError(t, err)
	assert.Equal(t, "hi", out)

	assert.NotEmpty(t, dropped, "compactor should have received the dropped messages")
	assert.Contains(t, events, "context_compacted")

	msgs := chat.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, agentctx.RoleSystem, msgs[0].Role)
	assert.Equal(t, "summary of earlier turns", msgs[1].Content)
}

// TestAskDoesNotAutoCompactBelowThreshold checks a low-usage turn
// leaves the Compactor untouched.
func TestAskDoesNotAutoCompactBelowThreshold(t *testing.T) {
	called := false
	compactor := agentctx.NewCompactor(func(messages []agentctx.Message) (string, error) {
		called = true
		return "summary", nil
	})

	provider := &scriptedProvider{responses: []llmprovider.Response{
		{Content: "hi", InputTokens: 1, OutputTokens: 1},
	}}
	chat := newTestChat(t, provider, nil)
	chat.cfg.Context.ContextWindowOverride = 100
	chat.cfg.Compactor = compactor

	_, err := chat.Ask(context.Background(), "go")
	require.NoError(t, err)
	assert.False(t, called, "compaction must not fire below CompactionThreshold")
}

// TestCompactRunsExplicitlyViaAPI checks spec §4.3's "requested via
// hook or API" path: a caller can force compaction directly, without
// waiting for usage to cross a threshold.
func TestCompactRunsExplicitlyViaAPI(t *testing.T) {
	compactor := agentctx.NewCompactor(func(messages []agentctx.Message) (string, error) {
		return "forced summary", nil
	})

	provider := &scriptedProvider{responses: []llmprovider.Response{{Content: "hi"}}}
	chat := newTestChat(t, provider, nil)
	chat.cfg.Compactor = compactor

	_, err := chat.Ask(context.Background(), "go")
	require.NoError(t, err)

	require.NoError(t, chat.Compact(context.Background()))

	msgs := chat.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "forced summary", msgs[1].Content)
}

// TestCompactWithoutCompactorIsNoop checks a Chat with no configured
// Compactor tolerates an explicit Compact call.
func TestCompactWithoutCompactorIsNoop(t *testing.T) {
	chat := newTestChat(t, &scriptedProvider{responses: []llmprovider.Response{{Content: "hi"}}}, nil)
	require.NoError(t, chat.Compact(context.Background()))
}
