package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// stdioClient wraps mark3labs/mcp-go's subprocess client, the exact
// library and call sequence the teacher uses for stdio MCP transport.
type stdioClient struct {
	inner *client.Client
}

func dialStdio(ctx context.Context, spec ServerSpec) (Client, error) {
	inner, err := client.NewStdioMCPClient(spec.Command, envSlice(spec.Env), spec.Args...)
	if err != nil {
		return nil, fmt.Errorf("create mcp stdio client: %w", err)
	}
	if err := inner.Start(ctx); err != nil {
		return nil, fmt.Errorf("start mcp stdio client: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ClientInfo = mcp.Implementation{Name: "swarm-engine", Version: "1.0.0"}
	initReq.Params.ProtocolVersion = "2024-11-05"
	if _, err := inner.Initialize(ctx, initReq); err != nil {
		inner.Close()
		return nil, fmt.Errorf("initialize mcp stdio client: %w", err)
	}

	return &stdioClient{inner: inner}, nil
}

func (c *stdioClient) ListTools(ctx context.Context) ([]ToolInfo, error) {
	resp, err := c.inner.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("mcp tools/list: %w", err)
	}
	out := make([]ToolInfo, 0, len(resp.Tools))
	for _, t := range resp.Tools {
		out = append(out, ToolInfo{Name: t.Name, Description: t.Description, InputSchema: schemaToMap(t.InputSchema)})
	}
	return out, nil
}

func (c *stdioClient) CallTool(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	resp, err := c.inner.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("mcp tools/call %q: %w", name, err)
	}
	return parseCallResult(resp.IsError, textContents(resp.Content)), nil
}

func (c *stdioClient) Close() error { return c.inner.Close() }

func envSlice(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}

func textContents(content []mcp.Content) []string {
	var texts []string
	for _, c := range content {
		if tc, ok := c.(mcp.TextContent); ok {
			texts = append(texts, tc.Text)
		}
	}
	return texts
}

func parseCallResult(isError bool, texts []string) map[string]any {
	result := make(map[string]any)
	if isError {
		if len(texts) > 0 {
			result["error"] = texts[0]
		} else {
			result["error"] = "unknown error"
		}
		return result
	}
	switch len(texts) {
	case 0:
	case 1:
		result["result"] = texts[0]
	default:
		result["results"] = texts
	}
	return result
}
