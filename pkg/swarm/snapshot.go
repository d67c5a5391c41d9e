package swarm

import (
	"context"
	"strconv"
	"strings"

	"github.com/parruda/swarm-sub004/pkg/agentchat"
	"github.com/parruda/swarm-sub004/pkg/swarmerr"
)

// CurrentSnapshotVersion is the only schema major version Restore
// accepts (spec §4.3: "Restore... accept only the latest major...
// MUST reject version values other than the currently supported ones
// with an error naming the supported version").
const CurrentSnapshotVersion = 1

// SnapshotType discriminates spec §4.3's `type∈{swarm,workflow}`. Go
// has no symbol/string duality (spec §9 Open Question), so this is a
// plain string-backed type compared case-insensitively on restore.
type SnapshotType string

const (
	TypeSwarm    SnapshotType = "swarm"
	TypeWorkflow SnapshotType = "workflow"
)

func (t SnapshotType) matches(other string) bool {
	return strings.EqualFold(string(t), other)
}

// Document is the full persisted structure of spec §4.3: a Swarm's
// agents, named delegation instances, scratchpad, plugin states, and
// read-tracking digests, plus the version/type/metadata envelope.
type Document struct {
	Version      int                           `json:"version"`
	Type         SnapshotType                  `json:"type"`
	Agents       map[string]agentchat.Snapshot `json:"agents"`
	Delegations  map[string]agentchat.Snapshot `json:"delegations"`
	Scratchpad   map[string]any                `json:"scratchpad"`
	PluginStates map[string]map[string]any     `json:"plugin_states"`
	ReadTracking map[string]map[string]string  `json:"read_tracking"`
	Metadata     map[string]any                `json:"metadata,omitempty"`
}

// stateSnapshotter is the optional interface a plugin.Storage may
// implement to contribute to plugin_states; most plugins manage their
// own internals and implement only Close (spec §3: "Plugin storages
// are weak references from the core's perspective"), so a storage that
// doesn't implement this is simply omitted rather than erroring.
type stateSnapshotter interface {
	SnapshotState() map[string]any
}

// stateRestorer is stateSnapshotter's restore-side counterpart.
type stateRestorer interface {
	RestoreState(map[string]any) error
}

// Snapshot assembles the full persisted Document for this swarm: every
// survivor agent's conversation, every isolated delegate instance that
// has actually been built, the scratchpad, any plugin states, and
// every agent's read-tracking digests (spec §4.3).
func (s *Swarm) Snapshot() Document {
	doc := Document{
		Version:      CurrentSnapshotVersion,
		Type:         TypeSwarm,
		Agents:       make(map[string]agentchat.Snapshot, len(s.agents)),
		Delegations:  make(map[string]agentchat.Snapshot),
		Scratchpad:   s.scratchpad.Snapshot(),
		PluginStates: make(map[string]map[string]any),
		ReadTracking: make(map[string]map[string]string, len(s.agents)),
	}

	for name, chat := range s.agents {
		doc.Agents[name] = chat.Snapshot()
		doc.ReadTracking[name] = chat.Digests().Snapshot()
	}

	for key, lazy := range s.delegateInstances {
		chat, built := lazy.Peek()
		if !built {
			continue
		}
		doc.Delegations[key] = chat.Snapshot()
	}

	for agentName, storages := range s.pluginStorages {
		for pluginName, storage := range storages {
			snapper, ok := storage.(stateSnapshotter)
			if !ok {
				continue
			}
			doc.PluginStates[agentName+"/"+pluginName] = snapper.SnapshotState()
		}
	}

	return doc
}

// Restore applies a previously captured Document onto this swarm's
// already-initialized agents. It validates the schema version and type
// before touching any state, then skips (with a warning emission)
// every agent or delegation name the document names but this swarm
// does not have (spec §4.3).
func (s *Swarm) Restore(doc Document) error {
	if doc.Version != CurrentSnapshotVersion {
		return swarmerr.New(swarmerr.State, "swarm", "restore",
			"unsupported snapshot version: only version "+strconv.Itoa(CurrentSnapshotVersion)+" is supported")
	}
	if !doc.Type.matches(string(TypeSwarm)) && !doc.Type.matches(string(TypeWorkflow)) {
		return swarmerr.New(swarmerr.State, "swarm", "restore", "unknown snapshot type "+string(doc.Type))
	}

	ctx := context.Background()

	for name, snap := range doc.Agents {
		chat, ok := s.agents[name]
		if !ok {
			s.stream.Emit(ctx, "restore_warning", map[string]any{"reason": "unknown agent", "agent": name})
			continue
		}
		chat.Restore(snap)
		if digests, ok := doc.ReadTracking[name]; ok {
			chat.Digests().Restore(digests)
		}
	}

	for key, snap := range doc.Delegations {
		lazy, ok := s.delegateInstances[key]
		if !ok {
			s.stream.Emit(ctx, "restore_warning", map[string]any{"reason": "unknown delegation", "delegation": key})
			continue
		}
		chat, err := lazy.Get()
		if err != nil {
			s.stream.Emit(ctx, "restore_warning", map[string]any{"reason": "delegate build failed", "delegation": key})
			continue
		}
		chat.Restore(snap)
	}

	s.scratchpad.Restore(doc.Scratchpad)

	for key, state := range doc.PluginStates {
		agentName, pluginName, found := strings.Cut(key, "/")
		if !found {
			continue
		}
		storages, ok := s.pluginStorages[agentName]
		if !ok {
			continue
		}
		storage, ok := storages[pluginName]
		if !ok {
			continue
		}
		if restorer, ok := storage.(stateRestorer); ok {
			if err := restorer.RestoreState(state); err != nil {
				return swarmerr.Wrap(swarmerr.State, "swarm", "restore",
					"plugin "+pluginName+" failed to restore state for agent "+agentName, err)
			}
		}
	}

	return nil
}
