// Package swarm assembles declarative AgentDefinitions into a running
// Swarm: per-agent tool registries, hook wiring, delegation graphs,
// and the Executor run loop (spec §3 Swarm, §4.1-§4.2, §4.9).
package swarm

import (
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/parruda/swarm-sub004/pkg/agentchat"
	"github.com/parruda/swarm-sub004/pkg/config"
	"github.com/parruda/swarm-sub004/pkg/delegate"
	"github.com/parruda/swarm-sub004/pkg/hook"
	"github.com/parruda/swarm-sub004/pkg/llmprovider"
	"github.com/parruda/swarm-sub004/pkg/logstream"
	"github.com/parruda/swarm-sub004/pkg/mcp"
	"github.com/parruda/swarm-sub004/pkg/plugin"
	"github.com/parruda/swarm-sub004/pkg/swarmerr"

	"github.com/google/uuid"
)

// AgentDefinition pairs one declarative config.AgentDefinition with
// the runtime collaborators the initializer needs to build its
// AgentChat: the resolved Provider and the fully-expanded system
// prompt (templates and coding_agent framing already applied, spec
// §4.2 Pass 1 step 1).
type AgentDefinition struct {
	Config       *config.AgentDefinition
	Provider     llmprovider.Provider
	SystemPrompt string
}

// DefaultMaxConcurrentLLMCalls bounds the swarm-wide semaphore guarding
// concurrent LLM requests when a caller doesn't override it (spec §5:
// "a swarm-global semaphore bounds concurrent LLM calls").
const DefaultMaxConcurrentLLMCalls = 8

// Swarm is the Swarm entity of spec §3: a named collection of wired
// AgentChats plus the shared collaborators every agent's tools and
// hooks draw on.
type Swarm struct {
	Name string
	ID   string

	definitions map[string]*AgentDefinition
	lead        string

	agents         map[string]*agentchat.Chat
	pluginStorages map[string]map[string]plugin.Storage

	// delegateInstances holds the per-(delegate,primary) lazy chat for
	// every isolated (non-shared) local delegation edge wired in Pass 2,
	// keyed "<delegate>@<primary>" (spec §4.3 snapshot delegations map).
	// Shared delegates need no separate entry: they live in agents.
	delegateInstances map[string]*delegate.LazyDelegateChat

	scratchpad *Scratchpad

	hookRegistry    *hook.Registry
	hookExecutor    *hook.Executor
	globalSemaphore *semaphore.Weighted

	// swarmRegistry resolves a delegates_to target naming another
	// swarm (spec §4.2 Pass 2(a): "external swarm case").
	swarmRegistry map[string]*Swarm

	mcpConfigurator *mcp.Configurator
	pluginRegistry  *plugin.Registry
	stream          *logstream.Stream
	collector       *logstream.Collector

	// telemetry records LLM/tool/delegation spans and metrics (spec
	// §4.9 ambient observability); nil means agentchat.Config.Telemetry
	// stays nil too, so every call site is skipped.
	telemetry agentchat.Telemetry

	// executing serializes Execute calls (spec §4.1: "reentrant only
	// after the previous call has resolved").
	executing sync.Mutex

	initialized bool
}

// New builds an empty Swarm ready to receive AddAgent/SetLead calls.
// A nil stream makes every LogStream emission a no-op.
func New(name string, stream *logstream.Stream) *Swarm {
	return &Swarm{
		Name:               name,
		ID:                 uuid.NewString(),
		definitions:        make(map[string]*AgentDefinition),
		agents:             make(map[string]*agentchat.Chat),
		pluginStorages:     make(map[string]map[string]plugin.Storage),
		delegateInstances:  make(map[string]*delegate.LazyDelegateChat),
		scratchpad:         NewScratchpad(),
		hookRegistry:       hook.NewRegistry(),
		globalSemaphore:    semaphore.NewWeighted(DefaultMaxConcurrentLLMCalls),
		swarmRegistry:      make(map[string]*Swarm),
		mcpConfigurator:    mcp.NewConfigurator(stream),
		pluginRegistry:     plugin.NewRegistry(),
		stream:             stream,
	}
}

// AddAgent registers one agent's declarative definition. It fails on a
// duplicate name (spec §3: agent names are unique within a swarm).
func (s *Swarm) AddAgent(def *AgentDefinition) error {
	if def == nil || def.Config == nil {
		return swarmerr.New(swarmerr.Configuration, "swarm", "add_agent", "nil agent definition")
	}
	name := def.Config.Name
	if _, exists := s.definitions[name]; exists {
		return swarmerr.New(swarmerr.Configuration, "swarm", "add_agent",
			"agent \""+name+"\" already registered")
	}
	s.definitions[name] = def
	return nil
}

// SetLead designates the swarm's entry-point agent (spec §3 Swarm.lead).
func (s *Swarm) SetLead(name string) {
	s.lead = name
}

// Lead returns the swarm's configured lead agent name.
func (s *Swarm) Lead() string { return s.lead }

// Definition returns the declarative definition registered under name.
func (s *Swarm) Definition(name string) (*AgentDefinition, bool) {
	def, ok := s.definitions[name]
	return def, ok
}

// Definitions returns every registered agent definition, keyed by name.
func (s *Swarm) Definitions() map[string]*AgentDefinition {
	return s.definitions
}

// Agent returns the live AgentChat for an already-initialized primary
// agent (a survivor of Pass 1, or one bound directly in Pass 2(b)).
func (s *Swarm) Agent(name string) (*agentchat.Chat, bool) {
	chat, ok := s.agents[name]
	return chat, ok
}

// RegisterSwarm makes another Swarm resolvable as an external
// delegation target under name (spec §4.2 Pass 2(a)).
func (s *Swarm) RegisterSwarm(name string, other *Swarm) {
	s.swarmRegistry[name] = other
}

// AddDefaultCallback registers a swarm-wide hook, applying to every
// agent (spec §4.7).
func (s *Swarm) AddDefaultCallback(def *hook.Definition) {
	s.hookRegistry.AddDefault(def)
}

// Plugins returns the plugin registry new plugins should be added to
// before Initialize runs.
func (s *Swarm) Plugins() *plugin.Registry { return s.pluginRegistry }

// Scratchpad returns the swarm-shared key/value store any tool or
// plugin can read and write during an execution (spec §3 "scratchpad"
// glossary entry).
func (s *Swarm) Scratchpad() *Scratchpad { return s.scratchpad }

// HookRegistry exposes the shared hook registry, e.g. for a builder
// wiring swarm-wide native hooks before Initialize runs.
func (s *Swarm) HookRegistry() *hook.Registry { return s.hookRegistry }

// SetCollector attaches the concrete Collector backing this swarm's
// Stream, so Execute can gather the LogEntry list for Result.Logs.
// Builder wires this when it constructs both together; a swarm built
// around some other Emitter implementation simply leaves Result.Logs
// empty.
func (s *Swarm) SetCollector(collector *logstream.Collector) { s.collector = collector }

// SetID overrides the auto-generated swarm_id, for callers that want a
// stable composable id rather than a random one (spec §3: "swarm_id
// (stable per instance, auto-generated unless composable)").
func (s *Swarm) SetID(id string) { s.ID = id }

// SetGlobalSemaphore overrides the default LLM-call concurrency bound.
func (s *Swarm) SetGlobalSemaphore(max int64) {
	s.globalSemaphore = semaphore.NewWeighted(max)
}

// SetTelemetry attaches the Manager every agent built from this point
// onward records LLM/tool/delegation spans and metrics through; nil is
// valid and restores the no-op default.
func (s *Swarm) SetTelemetry(t agentchat.Telemetry) {
	s.telemetry = t
}
