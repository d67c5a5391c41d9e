// Package swarmcore provides the core multi-agent orchestration engine for
// declarative LLM-agent swarms.
//
// swarmcore accepts a declarative swarm configuration (or a programmatically
// built one), instantiates a graph of agents with tools and optional MCP
// tool servers, and drives a conversation in which agents can delegate
// subtasks to other agents.
//
// # Quick Start
//
// Load a declarative swarm file and build it:
//
//	file, err := config.Load("swarm.yaml")
//	b := builder.New(file, myProviderFactory)
//	sw, collector, err := b.Build()
//	result, err := sw.Execute(context.Background(), "a customer can't log in")
//
// # Key Packages
//
//	import (
//	    "github.com/parruda/swarm-sub004/pkg/swarm"
//	    "github.com/parruda/swarm-sub004/pkg/agentchat"
//	    "github.com/parruda/swarm-sub004/pkg/hook"
//	    "github.com/parruda/swarm-sub004/pkg/tool"
//	    "github.com/parruda/swarm-sub004/pkg/mcp"
//	    "github.com/parruda/swarm-sub004/pkg/logstream"
//	    "github.com/parruda/swarm-sub004/pkg/config"
//	)
//
// # Architecture
//
// A Builder assembles AgentDefinitions into a Swarm. An AgentInitializer
// wires agents, tools, MCP clients, delegation edges and hooks in six
// strictly ordered passes. Execute drives the lead agent's Chat loop, which
// pipelines system reminders, hooks, the LLM call and tool-call expansion;
// delegation tools re-enter the same loop on another agent's Chat. Every
// component reports through a fiber-local LogStream so callers can observe
// (and cancel) an execution without coupling to its internals.
//
// # Status
//
// This module is the orchestration core only; it deliberately excludes the
// CLI, YAML schema validation tooling, TUI, and model-pricing registry that
// a full product would wrap around it.
package swarmcore
