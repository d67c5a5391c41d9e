package mcp

import (
	"context"
	"fmt"
)

// ToolInfo is what tools/list reports about one remote tool.
type ToolInfo struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Client is the transport-agnostic MCP client boundary; stdioClient
// and httpClient are its two implementations.
type Client interface {
	ListTools(ctx context.Context) ([]ToolInfo, error)
	CallTool(ctx context.Context, name string, args map[string]any) (map[string]any, error)
	Close() error
}

// Dial builds the right Client implementation for spec.Transport.
func Dial(ctx context.Context, spec ServerSpec) (Client, error) {
	switch spec.Transport {
	case TransportStdio:
		return dialStdio(ctx, spec)
	case TransportSSE, TransportStreamable:
		return dialHTTP(ctx, spec)
	default:
		return nil, fmt.Errorf("mcp: unknown transport %q", spec.Transport)
	}
}
