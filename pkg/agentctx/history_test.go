package agentctx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateOldToolResultsLeavesSmallPayloadsAlone(t *testing.T) {
	messages := []Message{
		{Role: RoleTool, Content: "small result"},
	}
	out := TruncateOldToolResults(messages, 100)
	assert.Equal(t, "small result", out[0].Content)
}

func TestTruncateOldToolResultsTruncatesOversizedOlderPayload(t *testing.T) {
	big := strings.Repeat("x", 1000)
	messages := []Message{
		{Role: RoleTool, Content: big},
		{Role: RoleAssistant, Content: "reply", ToolCalls: []ToolCall{{ID: "c2", Name: "Foo"}}},
		{Role: RoleTool, Content: "recent result", ToolCallID: "c2"},
	}
	out := TruncateOldToolResults(messages, 100)

	assert.Contains(t, out[0].Content, "bytes truncated")
	assert.Less(t, len(out[0].Content), len(big))
}

func TestTruncateOldToolResultsNeverTouchesLastToolPair(t *testing.T) {
	big := strings.Repeat("y", 1000)
	messages := []Message{
		{Role: RoleAssistant, Content: "call", ToolCalls: []ToolCall{{ID: "c1", Name: "Foo"}}},
		{Role: RoleTool, Content: big, ToolCallID: "c1"},
	}
	out := TruncateOldToolResults(messages, 100)
	assert.Equal(t, big, out[1].Content)
}

func TestTruncateOldToolResultsDefaultsThreshold(t *testing.T) {
	messages := []Message{{Role: RoleTool, Content: "short"}}
	out := TruncateOldToolResults(messages, 0)
	assert.Equal(t, "short", out[0].Content)
}
