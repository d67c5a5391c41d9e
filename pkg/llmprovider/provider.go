// Package llmprovider declares the boundary interface Chat.Ask calls
// into for the actual model request/response cycle. Implementing a
// concrete provider (OpenAI, Anthropic, a proxy) is explicitly out of
// scope (spec §1 Non-goals): "assumed to be a preexisting capability
// accepting {model, messages, tools, params, headers, timeout} and
// returning messages, tool-call requests, and token counts".
package llmprovider

import (
	"context"
	"time"

	"github.com/parruda/swarm-sub004/pkg/agentctx"
)

// ToolSpec is the tool-facing shape a Provider sends to the model:
// name, description, and JSON-schema-shaped input description.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Request is everything Chat.Ask assembles for one completion call.
type Request struct {
	Model    string
	Messages []agentctx.Message
	Tools    []ToolSpec
	Params   map[string]any
	Headers  map[string]string
	Timeout  time.Duration
}

// Response is one assistant turn: either final content, or tool calls
// the loop must dispatch before continuing.
type Response struct {
	Content             string
	ToolCalls           []agentctx.ToolCall
	InputTokens         int
	OutputTokens        int
	CachedTokens        int
	CacheCreationTokens int
}

// HasToolCalls reports whether the model asked for tool calls rather
// than returning final content.
func (r Response) HasToolCalls() bool { return len(r.ToolCalls) > 0 }

// Provider is the LLM boundary Chat.Ask consumes.
type Provider interface {
	Complete(ctx context.Context, req Request) (Response, error)
}
