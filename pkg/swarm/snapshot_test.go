package swarm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parruda/swarm-sub004/pkg/config"
	"github.com/parruda/swarm-sub004/pkg/llmprovider"
	"github.com/parruda/swarm-sub004/pkg/logstream"
)

func twoAgentSwarm(t *testing.T) *Swarm {
	t.Helper()
	s := New("test-swarm", logstream.New(nil))

	lead := echoDef("a", "lead", &scriptedProvider{responses: []llmprovider.Response{{Content: "a-done"}}})
	lead.Config.DelegatesTo = []config.DelegateSpec{{Agent: "b"}}
	isolated := echoDef("b", "isolated delegate", &scriptedProvider{responses: []llmprovider.Response{{Content: "b-done"}}})

	require.NoError(t, s.AddAgent(lead))
	require.NoError(t, s.AddAgent(isolated))
	s.SetLead("a")
	require.NoError(t, s.Initialize(nil))
	return s
}

// TestSnapshotRoundTripsAgentConversationAndScratchpad covers spec
// §4.3's core contract: a survivor agent's conversation and the
// swarm-wide scratchpad must come back byte-for-byte through a
// Snapshot/Restore cycle.
func TestSnapshotRoundTripsAgentConversationAndScratchpad(t *testing.T) {
	s := twoAgentSwarm(t)

	_, err := s.Execute(context.Background(), "say hi")
	require.NoError(t, err)
	s.Scratchpad().Set("progress", "halfway")

	doc := s.Snapshot()
	assert.Equal(t, CurrentSnapshotVersion, doc.Version)
	assert.Equal(t, TypeSwarm, doc.Type)
	require.Contains(t, doc.Agents, "a")
	assert.NotEmpty(t, doc.Agents["a"].Conversation)
	assert.Equal(t, "halfway", doc.Scratchpad["progress"])

	// Isolated delegate "b" was never invoked, so it must be absent.
	assert.NotContains(t, doc.Delegations, "b@a")

	fresh := twoAgentSwarm(t)
	require.NoError(t, fresh.Restore(doc))

	chat, ok := fresh.Agent("a")
	require.True(t, ok)
	assert.Equal(t, doc.Agents["a"].Conversation, chat.Snapshot().Conversation)

	val, ok := fresh.Scratchpad().Get("progress")
	require.True(t, ok)
	assert.Equal(t, "halfway", val)
}

// TestSnapshotIncludesBuiltIsolatedDelegateButSkipsUnbuilt verifies
// Peek()'s role: an isolated delegate that was actually invoked is
// captured, but one that was never touched is omitted rather than
// forced into existence by Snapshot.
func TestSnapshotIncludesBuiltIsolatedDelegateButSkipsUnbuilt(t *testing.T) {
	s := twoAgentSwarm(t)

	lazy, ok := s.delegateInstances["b@a"]
	require.True(t, ok)
	_, err := lazy.Get()
	require.NoError(t, err)

	doc := s.Snapshot()
	assert.Contains(t, doc.Delegations, "b@a")
}

// TestRestoreRejectsUnsupportedVersion checks spec §4.3's "MUST reject
// version values other than the currently supported ones".
func TestRestoreRejectsUnsupportedVersion(t *testing.T) {
	s := twoAgentSwarm(t)
	doc := Document{Version: CurrentSnapshotVersion + 1, Type: TypeSwarm}
	err := s.Restore(doc)
	require.Error(t, err)
}

// TestRestoreRejectsUnknownType checks the type∈{swarm,workflow}
// validation is case-insensitive but still rejects anything else.
func TestRestoreRejectsUnknownType(t *testing.T) {
	s := twoAgentSwarm(t)
	doc := Document{Version: CurrentSnapshotVersion, Type: SnapshotType("not-a-real-type")}
	err := s.Restore(doc)
	require.Error(t, err)
}

// TestRestoreSkipsUnknownAgentWithWarning checks a document naming an
// agent this swarm doesn't have is skipped rather than failing the
// whole restore.
func TestRestoreSkipsUnknownAgentWithWarning(t *testing.T) {
	s := twoAgentSwarm(t)

	var warnings []string
	collector := logstream.NewCollector(nil)
	s2 := New("test-swarm", logstream.New(collector))
	require.NoError(t, s2.AddAgent(echoDef("a", "lead", &scriptedProvider{responses: []llmprovider.Response{{Content: "hi"}}})))
	s2.SetLead("a")
	require.NoError(t, s2.Initialize(nil))
	collector.Subscribe(nil, func(e logstream.Entry) {
		if e.Type == "restore_warning" {
			warnings = append(warnings, e.Type)
		}
	})

	doc := s.Snapshot()
	doc.Agents["ghost"] = doc.Agents["a"]

	require.NoError(t, s2.Restore(doc))
	assert.NotEmpty(t, warnings)
}
