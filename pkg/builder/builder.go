// Package builder translates one config.SwarmFile into a fully wired,
// initialized *swarm.Swarm: the Builder entity of spec §3/§4.1, which
// owns provider resolution, system-prompt selection, and the
// LogStream/Collector pairing the rest of the engine observes through.
package builder

import (
	"fmt"
	"log/slog"

	"github.com/parruda/swarm-sub004/pkg/agentchat"
	"github.com/parruda/swarm-sub004/pkg/config"
	"github.com/parruda/swarm-sub004/pkg/hook"
	"github.com/parruda/swarm-sub004/pkg/llmprovider"
	"github.com/parruda/swarm-sub004/pkg/logging"
	"github.com/parruda/swarm-sub004/pkg/logstream"
	"github.com/parruda/swarm-sub004/pkg/plugin"
	"github.com/parruda/swarm-sub004/pkg/swarm"
	"github.com/parruda/swarm-sub004/pkg/swarmerr"
)

// ProviderFactory resolves the llmprovider.Provider one agent's
// AgentDefinition should run against, usually branching on
// def.Provider/def.BaseURL/def.APIVersion. The caller supplies this
// rather than Builder guessing at API keys and transports, the same
// division of responsibility the teacher's provider factory functions
// use (spec §9: provider wiring is a host concern, not the core's).
type ProviderFactory func(def *config.AgentDefinition) (llmprovider.Provider, error)

// Builder assembles a Swarm from a SwarmFile. Zero value is not usable;
// construct with New.
type Builder struct {
	file            *config.SwarmFile
	providerFactory ProviderFactory

	plugins   []plugin.Plugin
	hooks     []*hook.Definition
	shellExec hook.ShellExecutor
	logger    *slog.Logger
	logLevel  *slog.Level
	logFormat string
	telemetry agentchat.Telemetry

	externalSwarms map[string]*swarm.Swarm
}

// New builds a Builder for file, resolving each agent's Provider
// through factory.
func New(file *config.SwarmFile, factory ProviderFactory) *Builder {
	return &Builder{
		file:            file,
		providerFactory: factory,
		externalSwarms:  make(map[string]*swarm.Swarm),
	}
}

// WithPlugin registers a plugin available to every agent's
// plugin_configs entries.
func (b *Builder) WithPlugin(p plugin.Plugin) *Builder {
	b.plugins = append(b.plugins, p)
	return b
}

// WithDefaultHook registers a swarm-wide native hook (spec §4.7),
// applying to every agent in addition to any declarative `hooks:`
// entries in the agents' configuration.
func (b *Builder) WithDefaultHook(def *hook.Definition) *Builder {
	b.hooks = append(b.hooks, def)
	return b
}

// WithShellExecutor overrides the executor shell-command hooks run
// through; omitted, Swarm.Initialize falls back to hook.OSShellExecutor.
func (b *Builder) WithShellExecutor(exec hook.ShellExecutor) *Builder {
	b.shellExec = exec
	return b
}

// WithLogger sets the slog.Logger the LogStream's Collector forwards
// every entry to; omitted, the Collector uses slog.Default().
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithLogLevel installs level/format as the process-wide slog default
// (pkg/logging.Init) and uses the resulting logger for this swarm's
// Collector, unless WithLogger already set one explicitly. format is
// "text" (default) or "json".
func (b *Builder) WithLogLevel(level slog.Level, format string) *Builder {
	b.logLevel = &level
	b.logFormat = format
	return b
}

// WithTelemetry attaches a telemetry.Manager (or any agentchat.Telemetry
// implementation) every agent records LLM/tool/delegation spans and
// metrics through; omitted, agents run with telemetry fully disabled.
func (b *Builder) WithTelemetry(t agentchat.Telemetry) *Builder {
	b.telemetry = t
	return b
}

// WithExternalSwarm makes an already-built Swarm resolvable as a
// delegates_to target named name (spec §4.2 Pass 2(a)). The external
// swarm must already be initialized.
func (b *Builder) WithExternalSwarm(name string, other *swarm.Swarm) *Builder {
	b.externalSwarms[name] = other
	return b
}

// Build constructs every agent definition, wires the swarm, and runs
// Initialize. The returned Collector lets the caller inspect or stream
// every LogEntry this swarm emits, in addition to what Result.Logs
// captures per execution.
func (b *Builder) Build() (*swarm.Swarm, *logstream.Collector, error) {
	if b.file == nil {
		return nil, nil, swarmerr.New(swarmerr.Configuration, "builder", "build", "nil SwarmFile")
	}

	logger := b.logger
	if logger == nil && b.logLevel != nil {
		logger = logging.Init(*b.logLevel, nil, b.logFormat)
	}
	collector := logstream.NewCollector(logger)
	stream := logstream.New(collector)

	s := swarm.New(b.file.Swarm.Name, stream)
	if b.file.Swarm.ID != "" {
		s.SetID(b.file.Swarm.ID)
	}
	s.SetCollector(collector)
	s.SetTelemetry(b.telemetry)

	for _, p := range b.plugins {
		if err := s.Plugins().Register(p); err != nil {
			return nil, nil, swarmerr.Wrap(swarmerr.Configuration, "builder", "build",
				fmt.Sprintf("registering plugin %q", p.Name()), err)
		}
	}
	for _, def := range b.hooks {
		s.AddDefaultCallback(def)
	}
	for name, other := range b.externalSwarms {
		s.RegisterSwarm(name, other)
	}

	for name, agentCfg := range b.file.Swarm.Agents {
		provider, err := b.providerFactory(agentCfg)
		if err != nil {
			return nil, nil, swarmerr.Wrap(swarmerr.Configuration, "builder", "build",
				fmt.Sprintf("resolving provider for agent %q", name), err)
		}
		def := &swarm.AgentDefinition{
			Config:       agentCfg,
			Provider:     provider,
			SystemPrompt: ResolveSystemPrompt(agentCfg),
		}
		if err := s.AddAgent(def); err != nil {
			return nil, nil, err
		}
	}

	s.SetLead(b.file.Swarm.Lead)

	if err := s.Initialize(b.shellExec); err != nil {
		return nil, nil, err
	}

	return s, collector, nil
}
