package agentctx

import "fmt"

// DefaultToolResultTruncationThreshold bounds how large an older
// tool-result payload may be before TruncateOldToolResults replaces
// its middle with a marker (SPEC_FULL §3 supplemented feature,
// grounded on the wider corpus's token-budget trimming approach to
// keeping conversation history within an LLM call's budget).
const DefaultToolResultTruncationThreshold = 4096

// TruncateOldToolResults returns a copy of messages where tool-role
// messages preceding the last tool-call/tool-result pair have their
// Content truncated to a "[... N bytes truncated ...]" marker once it
// exceeds thresholdBytes. The most recent tool-call/tool-result pair
// is left untouched, same as Compactor.Compact's preserved tail.
// Messages are kept (never dropped), preserving the tool-call/
// tool-result pairing invariant of spec.md §8.
func TruncateOldToolResults(messages []Message, thresholdBytes int) []Message {
	if thresholdBytes <= 0 {
		thresholdBytes = DefaultToolResultTruncationThreshold
	}
	protectedFrom := findLastToolPairStart(messages)

	out := make([]Message, len(messages))
	copy(out, messages)
	for i := range out {
		if i >= protectedFrom || out[i].Role != RoleTool {
			continue
		}
		if len(out[i].Content) <= thresholdBytes {
			continue
		}
		out[i].Content = truncatePayload(out[i].Content, thresholdBytes)
	}
	return out
}

// truncatePayload keeps the first and last thresholdBytes/4 bytes of
// content and replaces the middle with a byte-count marker.
func truncatePayload(content string, thresholdBytes int) string {
	keepEdge := thresholdBytes / 4
	if keepEdge <= 0 {
		return content
	}
	dropped := len(content) - 2*keepEdge
	if dropped <= 0 {
		return content
	}
	marker := fmt.Sprintf("\n[... %d bytes truncated ...]\n", dropped)
	return content[:keepEdge] + marker + content[len(content)-keepEdge:]
}
