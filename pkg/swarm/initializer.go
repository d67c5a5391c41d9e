package swarm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/parruda/swarm-sub004/pkg/agentchat"
	"github.com/parruda/swarm-sub004/pkg/agentctx"
	"github.com/parruda/swarm-sub004/pkg/config"
	"github.com/parruda/swarm-sub004/pkg/delegate"
	"github.com/parruda/swarm-sub004/pkg/hook"
	"github.com/parruda/swarm-sub004/pkg/mcp"
	"github.com/parruda/swarm-sub004/pkg/plugin"
	"github.com/parruda/swarm-sub004/pkg/swarmerr"
	"github.com/parruda/swarm-sub004/pkg/tool"
)

// Initialize runs the six-pass wiring of spec §4.2 over every
// definition added to s. shellExec backs any shell-command hooks
// (a nil value falls back to hook.OSShellExecutor{}). It is not safe
// to call twice on the same Swarm.
func (s *Swarm) Initialize(shellExec hook.ShellExecutor) error {
	if s.initialized {
		return swarmerr.New(swarmerr.Configuration, "swarm", "initialize", "swarm already initialized")
	}
	if s.lead == "" {
		return swarmerr.New(swarmerr.Configuration, "swarm", "initialize", "swarm has no lead agent set")
	}
	if _, ok := s.definitions[s.lead]; !ok {
		return swarmerr.New(swarmerr.Configuration, "swarm", "initialize",
			fmt.Sprintf("lead agent %q is not a registered definition", s.lead))
	}

	s.hookExecutor = hook.NewExecutor(shellExec, s.stream)

	ctx := context.Background()

	// Pass 1: create primaries in parallel.
	survivors := s.survivorNames()
	type built struct {
		chat *agentchat.Chat
		reg  *tool.Registry
		ctxO *agentctx.Context
	}
	results := make(map[string]*built, len(survivors))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range survivors {
		name := name
		g.Go(func() error {
			chat, reg, actx, err := s.constructChat(gctx, name)
			if err != nil {
				s.stream.EmitError(gctx, "agent_initialization_error", err, map[string]any{"agent": name})
				return fmt.Errorf("initialize agent %q: %w", name, err)
			}
			mu.Lock()
			results[name] = &built{chat: chat, reg: reg, ctxO: actx}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for name, b := range results {
		s.agents[name] = b.chat
	}

	// Pass 2: wire delegation tools onto every primary now that all of
	// them exist.
	for _, name := range survivors {
		b := results[name]
		if err := s.wireDelegations(ctx, name, b.chat, b.reg, b.ctxO); err != nil {
			return fmt.Errorf("wire delegations for %q: %w", name, err)
		}
	}

	// Passes 3-5 already happened inside constructChat/wireDelegations
	// for each primary (context creation, hook executor wiring,
	// declarative hooks, delegation_tools population); Pass 6 activates.
	for _, name := range survivors {
		results[name].reg.ActivateToolsForPrompt()
	}

	s.initialized = true
	return nil
}

// survivorNames computes Pass 1's survivor set (spec §4.2): every
// definition except those that are only referenced as a delegate, have
// shared_across_delegations=false, and are not the lead.
func (s *Swarm) survivorNames() []string {
	delegateTargets := make(map[string]bool)
	for _, def := range s.definitions {
		for _, d := range def.Config.DelegatesTo {
			delegateTargets[d.Agent] = true
		}
	}

	var names []string
	for name, def := range s.definitions {
		if delegateTargets[name] && !def.Config.SharedAcrossDelegations && name != s.lead {
			continue
		}
		names = append(names, name)
	}
	return names
}

// constructChat performs Pass 1's per-agent work (tool registry,
// plugin storages + on_agent_initialized, MCP server wiring) plus
// Pass 3's context creation and Pass 4/5's hook wiring, stopping short
// of delegation-tool wiring and activation so callers (eager Pass 1,
// or a lazy delegate's first use) can finish the sequence themselves.
func (s *Swarm) constructChat(ctx context.Context, name string) (*agentchat.Chat, *tool.Registry, *agentctx.Context, error) {
	def, ok := s.definitions[name]
	if !ok {
		return nil, nil, nil, swarmerr.New(swarmerr.Configuration, "swarm", "construct_chat",
			fmt.Sprintf("agent %q is not defined", name))
	}

	registry, err := buildToolRegistry(def.Config)
	if err != nil {
		return nil, nil, nil, swarmerr.Wrap(swarmerr.Configuration, "swarm", "construct_chat",
			fmt.Sprintf("building tool registry for %q", name), err)
	}

	for _, spec := range def.Config.MCPServers {
		mcpSpec, err := translateMCPSpec(spec)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := s.mcpConfigurator.Configure(ctx, name, mcpSpec, registry); err != nil {
			return nil, nil, nil, err
		}
	}

	storages := make(map[string]plugin.Storage)
	for pluginName, cfg := range def.Config.PluginConfigs {
		p, ok := s.pluginRegistry.Get(pluginName)
		if !ok {
			continue
		}
		storage, err := p.CreateStorage(ctx, name, cfg)
		if err != nil {
			return nil, nil, nil, swarmerr.Wrap(swarmerr.Configuration, "swarm", "create_storage",
				fmt.Sprintf("plugin %q failed to create storage for agent %q", pluginName, name), err)
		}
		storages[pluginName] = storage
		if err := p.OnAgentInitialized(ctx, name, storage, registry, s.hookRegistry); err != nil {
			return nil, nil, nil, swarmerr.Wrap(swarmerr.Configuration, "swarm", "on_agent_initialized",
				fmt.Sprintf("plugin %q failed to initialize agent %q", pluginName, name), err)
		}
	}
	s.pluginStorages[name] = storages

	actx := agentctx.NewContext(name, s.ID, "")
	actx.ContextWindowOverride = def.Config.ContextWindow
	if def.Config.Model == "" {
		s.stream.Emit(ctx, "agent_validation_warning", map[string]any{
			"agent": name, "message": "no model configured",
		})
	}

	applyDeclarativeHooks(s.hookRegistry, name, def.Config.Hooks)

	chat := agentchat.New(agentchat.Config{
		AgentName:    name,
		SwarmID:      s.ID,
		SystemPrompt: def.SystemPrompt,
		Model:        def.Config.Model,
		Provider:     def.Provider,
		Tools:        registry,
		Context:      actx,
		HookRegistry: s.hookRegistry,
		HookExecutor: s.hookExecutor,
		Stream:       s.stream,

		GlobalSemaphore: s.globalSemaphore,

		Params:  def.Config.Parameters,
		Headers: def.Config.Headers,
		Timeout: def.Config.Timeout,

		AgentDirectory: def.Config.Directory,
		Digests:        tool.NewDigestTracker(),
		Todos:          tool.NewTodoStore(),

		Compactor:           agentctx.NewCompactor(agentchat.DefaultSummarizer(def.Provider, def.Config.Model)),
		CompactionThreshold: def.Config.CompactionThreshold,

		Telemetry: s.telemetry,
	})

	return chat, registry, actx, nil
}

// wireDelegations performs Pass 2 for one agent: for every
// delegates_to edge, resolve the target (external swarm, shared local
// primary, or isolated local delegate) and register the resulting
// delegation tool. It also finishes Pass 3's AgentContext by recording
// the actual delegation tool names chosen here.
func (s *Swarm) wireDelegations(ctx context.Context, name string, chat *agentchat.Chat, registry *tool.Registry, actx *agentctx.Context) error {
	def := s.definitions[name]
	var toolNames []string

	for _, spec := range def.Config.DelegatesTo {
		toolName := spec.ToolName
		if toolName == "" {
			toolName = "WorkWith" + capitalize(spec.Agent)
		}

		var delegationTool tool.CallableTool
		switch {
		case s.swarmRegistry[spec.Agent] != nil:
			target := s.swarmRegistry[spec.Agent]
			description := fmt.Sprintf("Delegate a task to the %q swarm.", spec.Agent)
			delegationTool = newSwarmDelegateTool(toolName, description, name, spec.Agent, target, s.stream)

		default:
			targetDef, ok := s.definitions[spec.Agent]
			if !ok {
				return swarmerr.New(swarmerr.Configuration, "swarm", "wire_delegations",
					fmt.Sprintf("agent %q delegates to unknown target %q", name, spec.Agent))
			}
			description := fmt.Sprintf("Delegate a task to %s: %s", spec.Agent, targetDef.Config.Description)

			var lazy *delegate.LazyDelegateChat
			if targetDef.Config.SharedAcrossDelegations {
				targetChat, ok := s.agents[spec.Agent]
				if !ok {
					return swarmerr.New(swarmerr.Configuration, "swarm", "wire_delegations",
						fmt.Sprintf("shared delegate %q was not built as a primary", spec.Agent))
				}
				lazy = delegate.NewLazyDelegateChat(func() (*agentchat.Chat, error) { return targetChat, nil })
			} else {
				targetName := spec.Agent
				lazy = delegate.NewLazyDelegateChat(func() (*agentchat.Chat, error) {
					return s.buildAgentFully(context.Background(), targetName)
				})
				s.delegateInstances[spec.Agent+"@"+name] = lazy
			}

			delegationTool = delegate.NewTool(toolName, description, name, spec.Agent, lazy, spec.PreserveContext,
				s.stream, s.hookRegistry, s.hookExecutor)
		}

		if err := registry.Register(delegationTool, tool.SourceDelegation, map[string]string{"delegate": spec.Agent}); err != nil {
			return err
		}
		toolNames = append(toolNames, toolName)
	}

	actx.DelegationTools = toolNames
	return nil
}

// buildAgentFully runs the complete per-agent pipeline (construction,
// delegation wiring, activation) for one isolated lazy delegate or a
// nested delegation target, invoked from inside a LazyDelegateChat's
// factory on first use (spec §4.2 Pass 2(c): "Nested delegation...is
// wired inside the lazy loader on first initialization").
func (s *Swarm) buildAgentFully(ctx context.Context, name string) (*agentchat.Chat, error) {
	chat, registry, actx, err := s.constructChat(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.wireDelegations(ctx, name, chat, registry, actx); err != nil {
		return nil, err
	}
	registry.ActivateToolsForPrompt()
	return chat, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func translateMCPSpec(spec config.MCPServerSpec) (mcp.ServerSpec, error) {
	var transport mcp.Transport
	switch spec.Type {
	case "stdio", "":
		transport = mcp.TransportStdio
	case "sse":
		transport = mcp.TransportSSE
	case "streamable":
		transport = mcp.TransportStreamable
	default:
		return mcp.ServerSpec{}, swarmerr.New(swarmerr.Configuration, "swarm", "translate_mcp_spec",
			fmt.Sprintf("mcp server %q: unknown transport %q", spec.Name, spec.Type))
	}
	return mcp.ServerSpec{
		Name:           spec.Name,
		Transport:      transport,
		Command:        spec.Command,
		Args:           spec.Args,
		Env:            spec.Env,
		URL:            spec.URL,
		Headers:        spec.Headers,
		Tools:          spec.Tools,
		RequestTimeout: spec.Timeout,
	}, nil
}

func applyDeclarativeHooks(registry *hook.Registry, agentName string, specs map[string][]config.HookSpec) {
	for event, entries := range specs {
		for _, spec := range entries {
			matcher := buildMatcher(spec.Matcher)
			def := hook.NewShellHook(hook.Event(event), 0, matcher, spec.Command, spec.Timeout)
			registry.AddAgent(agentName, def)
		}
	}
}

func buildMatcher(pattern string) *hook.Matcher {
	if pattern == "" {
		return nil
	}
	if m, err := hook.NewRegexMatcher(pattern); err == nil {
		return &m
	}
	m := hook.NewExactMatcher(pattern)
	return &m
}
