// Package memoryplugin is the in-process example plugin spec.md §1/§9
// names ("a 'memory' plugin is referenced as a concrete example of the
// plugin protocol but its storage and semantic search internals are
// not part of this core"). It implements the typed Plugin boundary
// with a trivial keyword-matching note store, not the ONNX-based
// semantic index the original corpus uses — that internal is an
// explicit Non-goal.
package memoryplugin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/invopop/jsonschema"

	"github.com/parruda/swarm-sub004/pkg/hook"
	"github.com/parruda/swarm-sub004/pkg/plugin"
	"github.com/parruda/swarm-sub004/pkg/tool"
)

// Mode selects how a given agent's memory behaves, matching the
// `mode: researcher` style blob in spec.md's config example.
type Mode string

const (
	// ModeWriter lets the agent add and recall notes.
	ModeWriter Mode = "writer"
	// ModeResearcher does not register Remember. Each agent has its
	// own Store, so a researcher-mode agent's store stays empty and
	// OnUserMessage returns no reminders for it.
	ModeResearcher Mode = "researcher"
)

// Config is the plugin-specific blob addressed by AgentDefinition's
// plugin_configs["memory"] (spec.md's config example).
type Config struct {
	Mode Mode `mapstructure:"mode"`
}

// note is one remembered fact.
type note struct {
	Tag  string
	Text string
}

// Store is this plugin's per-agent Storage: an in-memory, substring-
// searchable note list. A real implementation would persist to
// `directory` and use semantic embeddings; both are out of scope here.
type Store struct {
	mu    sync.Mutex
	notes []note
}

func (s *Store) add(tag, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, note{Tag: tag, Text: text})
}

func (s *Store) search(query string) []note {
	s.mu.Lock()
	defer s.mu.Unlock()
	keywords := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var hits []note
	for _, n := range s.notes {
		text, tag := strings.ToLower(n.Text), strings.ToLower(n.Tag)
		for _, k := range keywords {
			if strings.Contains(text, k) || strings.Contains(tag, k) {
				hits = append(hits, n)
				break
			}
		}
	}
	return hits
}

// Close satisfies plugin.Storage; the store is purely in-memory so
// there is nothing to release.
func (s *Store) Close() error { return nil }

var _ plugin.Storage = (*Store)(nil)

// Plugin is the concrete memory plugin example.
type Plugin struct {
	mu      sync.Mutex
	modes   map[string]Mode
	stores  map[string]*Store
}

// New returns an empty memory plugin instance.
func New() *Plugin {
	return &Plugin{modes: make(map[string]Mode), stores: make(map[string]*Store)}
}

func (p *Plugin) Name() string { return "memory" }

func (p *Plugin) CreateStorage(ctx context.Context, agentName string, config map[string]any) (plugin.Storage, error) {
	mode := ModeWriter
	if raw, ok := config["mode"]; ok {
		if s, ok := raw.(string); ok && s != "" {
			mode = Mode(s)
		}
	}

	store := &Store{}
	p.mu.Lock()
	p.modes[agentName] = mode
	p.stores[agentName] = store
	p.mu.Unlock()
	return store, nil
}

// OnAgentInitialized registers the Remember tool for writer-mode
// agents (spec §4.2 Pass 1: "may register further tools, e.g., a
// plugin's LoadSkill"). Researcher-mode agents get no tool; their own
// store is searched by OnUserMessage, but nothing writes to it.
func (p *Plugin) OnAgentInitialized(ctx context.Context, agentName string, storage plugin.Storage, registry *tool.Registry, hooks *hook.Registry) error {
	store, ok := storage.(*Store)
	if !ok {
		return fmt.Errorf("memory plugin: unexpected storage type %T for agent %q", storage, agentName)
	}

	p.mu.Lock()
	mode := p.modes[agentName]
	p.mu.Unlock()

	if mode == ModeResearcher {
		return nil
	}

	return registry.Register(&rememberTool{store: store}, tool.SourcePlugin, map[string]string{"plugin": p.Name()})
}

// OnUserMessage contributes reminders by keyword match against the
// agent's stored notes (spec §4.3 step 4). A real implementation
// would rank by semantic similarity; this is the illustrative stand-in.
func (p *Plugin) OnUserMessage(ctx context.Context, agentName, prompt string) ([]string, error) {
	p.mu.Lock()
	store := p.stores[agentName]
	p.mu.Unlock()
	if store == nil {
		return nil, nil
	}

	hits := store.search(prompt)
	if len(hits) == 0 {
		return nil, nil
	}
	reminders := make([]string, 0, len(hits))
	for _, h := range hits {
		reminders = append(reminders, fmt.Sprintf("remembered note [%s]: %s", h.Tag, h.Text))
	}
	return reminders, nil
}

// Shutdown drops every agent's store; there is no external resource
// to release.
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stores = make(map[string]*Store)
	return nil
}

var _ plugin.Plugin = (*Plugin)(nil)

// rememberArgs are the arguments to the Remember tool.
type rememberArgs struct {
	Tag  string `json:"tag" jsonschema:"required,description=Short label for this note"`
	Text string `json:"text" jsonschema:"required,description=The fact to remember"`
}

type rememberTool struct {
	store *Store
}

func (t *rememberTool) Name() string        { return "Remember" }
func (t *rememberTool) Description() string { return "Save a short fact to this agent's memory for later recall." }

func (t *rememberTool) InputSchema() map[string]any {
	reflector := &jsonschema.Reflector{RequiredFromJSONSchemaTags: true, ExpandedStruct: true, DoNotReference: true}
	schema := reflector.Reflect(new(rememberArgs))
	data, err := json.Marshal(schema)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]any{"type": "object"}
	}
	delete(m, "$schema")
	delete(m, "$id")
	return m
}

func (t *rememberTool) Call(ctx tool.Context, args map[string]any) (map[string]any, error) {
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("marshal arguments: %w", err)
	}
	var a rememberArgs
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode arguments: %w", err)
	}
	t.store.add(a.Tag, a.Text)
	return map[string]any{"saved": true}, nil
}

var _ tool.CallableTool = (*rememberTool)(nil)
