package mcp

import (
	"fmt"
	"sync"

	"github.com/parruda/swarm-sub004/pkg/swarmerr"
	"github.com/parruda/swarm-sub004/pkg/tool"
)

// toolStub is the optimized-mode tool registration of spec §4.6: it
// is registered without a tools/list round trip, fetches its real
// input schema lazily on first use, and fails with a tool-execution
// error naming the tool if the server turns out not to expose it.
type toolStub struct {
	name       string
	serverName string
	client     Client

	mu       sync.Mutex
	resolved bool
	schema   map[string]any
	missing  bool
}

func newToolStub(name, serverName string, client Client) *toolStub {
	return &toolStub{name: name, serverName: serverName, client: client}
}

func (s *toolStub) Name() string        { return s.name }
func (s *toolStub) Description() string { return fmt.Sprintf("MCP tool %q on server %q", s.name, s.serverName) }

func (s *toolStub) InputSchema() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resolved {
		return s.schema
	}
	return map[string]any{"type": "object"}
}

// resolve fetches tools/list exactly once to confirm the server
// actually exposes this tool and to learn its real schema.
func (s *toolStub) resolve(ctx tool.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resolved {
		if s.missing {
			return swarmerr.New(swarmerr.ToolExecution, "mcp", "resolve_stub",
				fmt.Sprintf("mcp server %q does not expose tool %q", s.serverName, s.name))
		}
		return nil
	}

	infos, err := s.client.ListTools(ctx)
	if err != nil {
		return swarmerr.Wrap(swarmerr.Mcp, "mcp", "resolve_stub", "tools/list failed during lazy schema fetch", err)
	}
	for _, info := range infos {
		if info.Name == s.name {
			s.schema = info.InputSchema
			s.resolved = true
			return nil
		}
	}
	s.resolved = true
	s.missing = true
	return swarmerr.New(swarmerr.ToolExecution, "mcp", "resolve_stub",
		fmt.Sprintf("mcp server %q does not expose tool %q", s.serverName, s.name))
}

func (s *toolStub) Call(ctx tool.Context, args map[string]any) (map[string]any, error) {
	if err := s.resolve(ctx); err != nil {
		return nil, err
	}
	out, err := s.client.CallTool(ctx, s.name, args)
	if err != nil {
		return nil, swarmerr.Wrap(swarmerr.Mcp, "mcp", "call_tool", fmt.Sprintf("call to %q failed", s.name), err)
	}
	return out, nil
}

var _ tool.CallableTool = (*toolStub)(nil)
