// Package mcp implements McpConfigurator (spec §4.6): wiring an
// agent's configured MCP servers into its ToolRegistry, either by
// eager discovery (tools/list) or as lazy-schema stubs.
package mcp

import "time"

// Transport is the closed set of MCP transports spec §4.6 maps:
// stdio -> {command, args, env}; sse -> {url, headers, version};
// streamable/http -> {url, headers, version, rate_limit?}.
type Transport string

const (
	TransportStdio      Transport = "stdio"
	TransportSSE        Transport = "sse"
	TransportStreamable Transport = "streamable"
)

// DefaultRequestTimeout is the MCP client-layer default (spec §4.6:
// "minimum reasonable request timeout is large (5 minutes default)
// because SSE streams can outlive normal request budgets").
const DefaultRequestTimeout = 5 * time.Minute

// RetryPolicy is the bounded exponential backoff spec §4.6 requires
// for sse/streamable reconnection.
type RetryPolicy struct {
	MaxRetries int
	Initial    time.Duration
	Factor     float64
	Max        time.Duration
}

// DefaultRetryPolicy matches spec §4.6's stated defaults exactly.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 5, Initial: 2 * time.Second, Factor: 2.0, Max: 60 * time.Second}
}

// ServerSpec configures one MCP server for one agent.
type ServerSpec struct {
	Name      string
	Transport Transport

	// stdio
	Command string
	Args    []string
	Env     map[string]string

	// sse / streamable
	URL     string
	Headers map[string]string
	Version string

	// Tools, when non-nil, puts this server in optimized/stub mode
	// (spec §4.6): register a stub per listed name without calling
	// tools/list. A nil Tools (vs. empty, non-nil) means discovery mode.
	Tools []string

	RequestTimeout time.Duration
	Retry          RetryPolicy
}
