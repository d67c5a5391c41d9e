package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestTrackerSnapshotRoundTrip(t *testing.T) {
	d := NewDigestTracker()
	d.Record("a.go", []byte("package a"))
	d.Record("b.go", []byte("package b"))

	snap := d.Snapshot()
	assert.Len(t, snap, 2)

	fresh := NewDigestTracker()
	fresh.Restore(snap)

	got, ok := fresh.Get("a.go")
	require.True(t, ok)
	want, _ := d.Get("a.go")
	assert.Equal(t, want, got)
}

func TestDigestTrackerSnapshotIsACopy(t *testing.T) {
	d := NewDigestTracker()
	d.Record("a.go", []byte("package a"))

	snap := d.Snapshot()
	snap["a.go"] = "tampered"

	got, _ := d.Get("a.go")
	assert.NotEqual(t, "tampered", got)
}

func TestDigestTrackerRestoreReplacesContents(t *testing.T) {
	d := NewDigestTracker()
	d.Record("stale.go", []byte("old"))

	d.Restore(map[string]string{"fresh.go": "abc123"})

	_, ok := d.Get("stale.go")
	assert.False(t, ok)
	got, ok := d.Get("fresh.go")
	assert.True(t, ok)
	assert.Equal(t, "abc123", got)
}
