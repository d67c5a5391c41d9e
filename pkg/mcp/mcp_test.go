package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/parruda/swarm-sub004/pkg/swarmerr"
	"github.com/parruda/swarm-sub004/pkg/tool"
)

// fakeClient is an in-memory Client double standing in for a real MCP
// connection in these tests.
type fakeClient struct {
	tools      []ToolInfo
	calls      []string
	closed     bool
	listErr    error
	callResult map[string]any
	callErr    error
}

func (f *fakeClient) ListTools(ctx context.Context) ([]ToolInfo, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.tools, nil
}

func (f *fakeClient) CallTool(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	f.calls = append(f.calls, name)
	if f.callErr != nil {
		return nil, f.callErr
	}
	return f.callResult, nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func testToolContext() tool.Context {
	return tool.Context{Context: context.Background()}
}

func TestDiscoveryModeRegistersEachListedTool(t *testing.T) {
	client := &fakeClient{tools: []ToolInfo{
		{Name: "search", Description: "search the web", InputSchema: map[string]any{"type": "object"}},
		{Name: "fetch", Description: "fetch a url"},
	}}

	reg := tool.NewRegistry()
	cfg := &Configurator{clients: make(map[string][]Client)}

	if err := cfg.configureDiscovery(context.Background(), "researcher", ServerSpec{Name: "web"}, client, reg); err != nil {
		t.Fatalf("configureDiscovery: %v", err)
	}

	if _, ok := reg.Get("search"); !ok {
		t.Fatalf("expected search tool to be registered")
	}
	if _, ok := reg.Get("fetch"); !ok {
		t.Fatalf("expected fetch tool to be registered")
	}
}

func TestOptimizedModeRegistersStubsWithoutListingTools(t *testing.T) {
	client := &fakeClient{tools: []ToolInfo{{Name: "search"}}}
	reg := tool.NewRegistry()
	cfg := &Configurator{clients: make(map[string][]Client)}

	spec := ServerSpec{Name: "web", Tools: []string{"search"}}
	if err := cfg.configureOptimized(context.Background(), "researcher", spec, client, reg); err != nil {
		t.Fatalf("configureOptimized: %v", err)
	}
	if len(client.calls) != 0 {
		t.Fatalf("optimized mode must not call ListTools eagerly, got calls %v", client.calls)
	}

	got, ok := reg.Get("search")
	if !ok {
		t.Fatalf("expected stub registered for search")
	}
	stub, ok := got.Tool.(*toolStub)
	if !ok {
		t.Fatalf("expected *toolStub, got %T", got.Tool)
	}
	if stub.resolved {
		t.Fatalf("stub must not be resolved before first call")
	}
}

func TestStubResolvesSchemaLazilyOnFirstCall(t *testing.T) {
	client := &fakeClient{
		tools:      []ToolInfo{{Name: "search", InputSchema: map[string]any{"type": "object", "properties": map[string]any{"q": map[string]any{"type": "string"}}}}},
		callResult: map[string]any{"result": "ok"},
	}
	stub := newToolStub("search", "web", client)

	if _, err := stub.Call(testToolContext(), map[string]any{"q": "go"}); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !stub.resolved {
		t.Fatalf("expected stub to be resolved after first call")
	}
	if stub.schema == nil {
		t.Fatalf("expected schema to be populated after resolution")
	}

	// Second call must not hit ListTools again.
	client.listErr = errAlreadyCalled
	if _, err := stub.Call(testToolContext(), map[string]any{"q": "rust"}); err != nil {
		t.Fatalf("second Call should not re-resolve: %v", err)
	}
}

var errAlreadyCalled = &staticErr{"ListTools should not be called again"}

type staticErr struct{ msg string }

func (e *staticErr) Error() string { return e.msg }

func TestStubFailsWithNamedErrorWhenToolMissing(t *testing.T) {
	client := &fakeClient{tools: []ToolInfo{{Name: "other"}}}
	stub := newToolStub("search", "web", client)

	_, err := stub.Call(testToolContext(), nil)
	if err == nil {
		t.Fatalf("expected error for missing tool")
	}
	kind, ok := swarmerr.KindOf(err)
	if !ok || kind != swarmerr.ToolExecution {
		t.Fatalf("expected ToolExecution error kind, got %v (ok=%v)", kind, ok)
	}

	// The failure must be sticky, not retried on every call.
	client.tools = []ToolInfo{{Name: "search"}}
	_, err = stub.Call(testToolContext(), nil)
	if err == nil {
		t.Fatalf("expected missing-tool error to persist even if server now exposes it")
	}
}

func TestConfiguratorCleanupClosesAllClientsForAgent(t *testing.T) {
	a := &fakeClient{}
	b := &fakeClient{}
	cfg := &Configurator{clients: map[string][]Client{
		"researcher": {a, b},
	}}

	if err := cfg.Cleanup("researcher"); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if !a.closed || !b.closed {
		t.Fatalf("expected both clients to be closed")
	}
	if _, ok := cfg.clients["researcher"]; ok {
		t.Fatalf("expected agent entry to be removed after cleanup")
	}
}

func TestBackoffDelayIsBoundedByMax(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 5, Initial: 2 * time.Second, Factor: 2.0, Max: 10 * time.Second}

	if got := backoffDelay(policy, 0); got != 2*time.Second {
		t.Fatalf("attempt 0: expected 2s, got %v", got)
	}
	if got := backoffDelay(policy, 1); got != 4*time.Second {
		t.Fatalf("attempt 1: expected 4s, got %v", got)
	}
	if got := backoffDelay(policy, 5); got != 10*time.Second {
		t.Fatalf("attempt 5: expected capped at 10s, got %v", got)
	}
}

func TestDefaultRetryPolicyMatchesSpecDefaults(t *testing.T) {
	p := DefaultRetryPolicy()
	if p.MaxRetries != 5 || p.Initial != 2*time.Second || p.Factor != 2.0 || p.Max != 60*time.Second {
		t.Fatalf("unexpected default retry policy: %+v", p)
	}
}
