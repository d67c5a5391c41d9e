package mcp

import (
	"context"
	"fmt"
	"sync"

	"github.com/parruda/swarm-sub004/pkg/logstream"
	"github.com/parruda/swarm-sub004/pkg/swarmerr"
	"github.com/parruda/swarm-sub004/pkg/tool"
)

// Configurator wires an agent's configured MCP servers into its
// ToolRegistry (spec §4.6) and tracks every Client it opened so
// Cleanup can close them all.
type Configurator struct {
	stream *logstream.Stream

	mu      sync.Mutex
	clients map[string][]Client // agentName -> clients opened for it
}

// NewConfigurator builds a Configurator. A nil stream makes logging a
// no-op.
func NewConfigurator(stream *logstream.Stream) *Configurator {
	return &Configurator{stream: stream, clients: make(map[string][]Client)}
}

// Configure connects to spec and registers its tools into registry,
// in discovery mode (spec.Tools == nil) or optimized/stub mode
// (spec.Tools non-nil).
func (c *Configurator) Configure(ctx context.Context, agentName string, spec ServerSpec, registry *tool.Registry) error {
	c.stream.Emit(ctx, "mcp_server_init_start", map[string]any{"agent": agentName, "server": spec.Name})

	client, err := Dial(ctx, spec)
	if err != nil {
		return swarmerr.Wrap(swarmerr.Mcp, "mcp", "configure",
			fmt.Sprintf("failed to connect to mcp server %q", spec.Name), err)
	}

	c.mu.Lock()
	c.clients[agentName] = append(c.clients[agentName], client)
	c.mu.Unlock()

	if spec.Tools != nil {
		return c.configureOptimized(ctx, agentName, spec, client, registry)
	}
	return c.configureDiscovery(ctx, agentName, spec, client, registry)
}

func (c *Configurator) configureDiscovery(ctx context.Context, agentName string, spec ServerSpec, client Client, registry *tool.Registry) error {
	infos, err := client.ListTools(ctx)
	if err != nil {
		return swarmerr.Wrap(swarmerr.Mcp, "mcp", "discover", fmt.Sprintf("tools/list failed for %q", spec.Name), err)
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		wrapped := &discoveredTool{info: info, client: client, serverName: spec.Name}
		if err := registry.Register(wrapped, tool.SourceMCP, map[string]string{"server_name": spec.Name}); err != nil {
			return err
		}
		names = append(names, info.Name)
	}

	c.stream.Emit(ctx, "mcp_server_init_complete", map[string]any{
		"agent": agentName, "server": spec.Name, "tools": names,
	})
	return nil
}

func (c *Configurator) configureOptimized(ctx context.Context, agentName string, spec ServerSpec, client Client, registry *tool.Registry) error {
	for _, name := range spec.Tools {
		stub := newToolStub(name, spec.Name, client)
		if err := registry.Register(stub, tool.SourceMCP, map[string]string{"server_name": spec.Name}); err != nil {
			return err
		}
	}
	c.stream.Emit(ctx, "mcp_server_init_complete", map[string]any{
		"agent": agentName, "server": spec.Name, "tools": spec.Tools, "mode": "optimized",
	})
	return nil
}

// Cleanup closes every Client opened for agentName (spec §4.6:
// "Cleanup must terminate all clients registered under an agent").
func (c *Configurator) Cleanup(agentName string) error {
	c.mu.Lock()
	clients := c.clients[agentName]
	delete(c.clients, agentName)
	c.mu.Unlock()

	var firstErr error
	for _, client := range clients {
		if err := client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// discoveredTool wraps one tools/list entry as a CallableTool.
type discoveredTool struct {
	info       ToolInfo
	client     Client
	serverName string
}

func (t *discoveredTool) Name() string                { return t.info.Name }
func (t *discoveredTool) Description() string         { return t.info.Description }
func (t *discoveredTool) InputSchema() map[string]any { return t.info.InputSchema }

func (t *discoveredTool) Call(ctx tool.Context, args map[string]any) (map[string]any, error) {
	out, err := t.client.CallTool(ctx, t.info.Name, args)
	if err != nil {
		return nil, swarmerr.Wrap(swarmerr.Mcp, "mcp", "call_tool",
			fmt.Sprintf("call to %q on %q failed", t.info.Name, t.serverName), err)
	}
	return out, nil
}

var _ tool.CallableTool = (*discoveredTool)(nil)
