package tool

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCtx(t *testing.T, perms Permissions) Context {
	t.Helper()
	dir := t.TempDir()
	return Context{
		Context:        context.Background(),
		AgentDirectory: dir,
		Permissions:    perms,
		Digests:        NewDigestTracker(),
		Todos:          NewTodoStore(),
	}
}

func TestRegistryRegisterDuplicateFails(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(NewRead(), SourceBuiltin, nil))
	err := r.Register(NewRead(), SourceBuiltin, nil)
	assert.Error(t, err)
}

func TestRegistryImmutableCannotBeRemoved(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(NewRead(), SourceBuiltin, nil))
	r.MarkImmutable([]string{"Read"})
	assert.Error(t, r.Remove("Read"))
}

func TestRegistryActivateSnapshotsLateRegistrations(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(NewRead(), SourceBuiltin, nil))
	first := r.ActivateToolsForPrompt()
	assert.Len(t, first, 1)

	require.NoError(t, r.Register(NewWrite(), SourceBuiltin, nil))
	second := r.ActivateToolsForPrompt()
	assert.Len(t, second, 2)
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	ctx := newCtx(t, DefaultWritePermissions())
	w := NewWrite()
	_, err := w.Call(ctx, map[string]any{"path": "a.txt", "content": "hello"})
	require.NoError(t, err)

	r := NewRead()
	out, err := r.Call(ctx, map[string]any{"path": "a.txt"})
	require.NoError(t, err)
	assert.Equal(t, "hello", out["content"])
}

func TestWriteDeniedOutsideAllowedPaths(t *testing.T) {
	ctx := newCtx(t, Permissions{AllowedPaths: []string{"src/**"}})
	w := NewWrite()
	_, err := w.Call(ctx, map[string]any{"path": "outside.txt", "content": "x"})
	assert.Error(t, err)
}

func TestWriteDenyPathsWinsOverAllow(t *testing.T) {
	ctx := newCtx(t, Permissions{AllowedPaths: []string{"**/*"}, DenyPaths: []string{"secrets/**"}})
	w := NewWrite()
	_, err := w.Call(ctx, map[string]any{"path": "secrets/key.txt", "content": "x"})
	assert.Error(t, err)
}

func TestEditRequiresUniqueMatch(t *testing.T) {
	ctx := newCtx(t, DefaultWritePermissions())
	full := filepath.Join(ctx.AgentDirectory, "dup.txt")
	require.NoError(t, os.WriteFile(full, []byte("foo foo"), 0o644))

	e := NewEdit()
	_, err := e.Call(ctx, map[string]any{"path": "dup.txt", "old_string": "foo", "new_string": "bar"})
	assert.Error(t, err)
}

func TestMultiEditAppliesInOrder(t *testing.T) {
	ctx := newCtx(t, DefaultWritePermissions())
	full := filepath.Join(ctx.AgentDirectory, "multi.txt")
	require.NoError(t, os.WriteFile(full, []byte("one two three"), 0o644))

	m := NewMultiEdit()
	_, err := m.Call(ctx, map[string]any{
		"path": "multi.txt",
		"edits": []map[string]any{
			{"old_string": "one", "new_string": "1"},
			{"old_string": "three", "new_string": "3"},
		},
	})
	require.NoError(t, err)

	content, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, "1 two 3", string(content))
}

func TestBashRunsAndCapturesOutput(t *testing.T) {
	ctx := newCtx(t, Permissions{})
	b := NewBash()
	out, err := b.Call(ctx, map[string]any{"command": "echo hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi\n", out["stdout"])
	assert.Equal(t, 0, out["exit_code"])
}

func TestBashDeniedCommandNotInAllowlist(t *testing.T) {
	ctx := newCtx(t, Permissions{AllowedCommands: []string{"ls"}})
	b := NewBash()
	_, err := b.Call(ctx, map[string]any{"command": "rm -rf /"})
	assert.Error(t, err)
}

func TestTodoWriteUpdatesStore(t *testing.T) {
	ctx := newCtx(t, Permissions{})
	tw := NewTodoWrite()
	_, err := tw.Call(ctx, map[string]any{
		"todos": []map[string]any{{"content": "write tests", "status": "in_progress"}},
	})
	require.NoError(t, err)
	assert.False(t, ctx.Todos.IsEmpty())
	assert.Equal(t, TodoInProgress, ctx.Todos.Items()[0].Status)
}
