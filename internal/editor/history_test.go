package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_SnapshotUndoRedo(t *testing.T) {
	h := NewHistory(0)
	r := NewRoute()

	h.Snapshot(r)
	r.Append(0, 0)
	h.Snapshot(r)
	r.Append(0.01, 0)
	afterB := r.State()

	assert.Equal(t, 2, h.Len())
	assert.True(t, h.CanUndo())
	assert.False(t, h.CanRedo())

	prev, ok := h.Undo(r)
	require.True(t, ok)
	r = prev
	assert.Len(t, r.Sections()[0].Points, 1)
	assert.True(t, h.CanRedo())

	next, ok := h.Redo(r)
	require.True(t, ok)
	r = next
	assert.Equal(t, afterB, r.State())
	assert.False(t, h.CanRedo())
}

func TestHistory_SnapshotClearsFuture(t *testing.T) {
	h := NewHistory(0)
	r := buildRoute(t, ptA)

	h.Snapshot(r)
	r.Append(ptB[0], ptB[1])
	r, _ = h.Undo(r)
	require.True(t, h.CanRedo())

	h.Snapshot(r)
	assert.False(t, h.CanRedo())
}

func TestHistory_EmptyStacks(t *testing.T) {
	h := NewHistory(0)
	r := NewRoute()

	_, ok := h.Undo(r)
	assert.False(t, ok)
	_, ok = h.Redo(r)
	assert.False(t, ok)
	_, ok = h.Discard()
	assert.False(t, ok)
}

func TestHistory_Limit(t *testing.T) {
	h := NewHistory(2)
	r := NewRoute()

	for i := 0; i < 5; i++ {
		h.Snapshot(r)
		r.Append(float64(i)*0.01, 0)
	}

	assert.Equal(t, 2, h.Len())
	prev, _ := h.Undo(r)
	assert.Len(t, prev.Sections()[0].Points, 4)
}

func TestHistory_Discard(t *testing.T) {
	h := NewHistory(0)
	r := buildRoute(t, ptA)

	h.Snapshot(r)
	r.Append(ptB[0], ptB[1])

	prev, ok := h.Discard()
	require.True(t, ok)
	assert.Len(t, prev.Sections()[0].Points, 1)
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
}

func TestHistory_Reset(t *testing.T) {
	h := NewHistory(0)
	r := NewRoute()
	h.Snapshot(r)
	r.Append(0, 0)
	h.Undo(r)

	h.Reset()
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
}
