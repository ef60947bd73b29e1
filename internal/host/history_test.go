package host

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEntry struct {
	name     string
	undone   int
	redone   int
	released int
	undoErr  error
}

func (e *fakeEntry) Name() string        { return e.name }
func (e *fakeEntry) Description() string { return "fake " + e.name }

func (e *fakeEntry) UndoIt(context.Context) error {
	if e.undoErr != nil {
		return e.undoErr
	}
	e.undone++
	return nil
}

func (e *fakeEntry) RedoIt(context.Context) error {
	e.redone++
	return nil
}

func (e *fakeEntry) Release() { e.released++ }

func TestHistory_UndoRedo(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(10, nil)
	a, b := &fakeEntry{name: "a"}, &fakeEntry{name: "b"}
	require.NoError(t, h.Push(a))
	require.NoError(t, h.Push(b))

	e, err := h.Undo(ctx)
	require.NoError(t, err)
	assert.Same(t, b, e)
	assert.True(t, h.CanUndo())
	assert.True(t, h.CanRedo())

	e, err = h.Redo(ctx)
	require.NoError(t, err)
	assert.Same(t, b, e)
	assert.False(t, h.CanRedo())

	_, err = h.Redo(ctx)
	assert.ErrorIs(t, err, ErrNothingToRedo)

	_, err = h.Undo(ctx)
	require.NoError(t, err)
	_, err = h.Undo(ctx)
	require.NoError(t, err)
	_, err = h.Undo(ctx)
	assert.ErrorIs(t, err, ErrNothingToUndo)

	assert.Equal(t, 1, a.undone)
	assert.Equal(t, 2, b.undone)
	assert.Equal(t, []HistoryEntry{
		{Name: "a", Description: "fake a"},
		{Name: "b", Description: "fake b"},
	}, h.Entries())
}

func TestHistory_PushDropsRedoTail(t *testing.T) {
	h := NewHistory(10, nil)
	a, b, c := &fakeEntry{name: "a"}, &fakeEntry{name: "b"}, &fakeEntry{name: "c"}
	require.NoError(t, h.Push(a))
	require.NoError(t, h.Push(b))
	_, err := h.Undo(context.Background())
	require.NoError(t, err)

	require.NoError(t, h.Push(c))

	assert.Equal(t, 1, b.released)
	assert.Zero(t, a.released)
	assert.False(t, h.CanRedo())
	assert.Equal(t, []HistoryEntry{
		{Name: "a", Description: "fake a", Applied: true},
		{Name: "c", Description: "fake c", Applied: true},
	}, h.Entries())
}

func TestHistory_EvictsOldest(t *testing.T) {
	h := NewHistory(2, nil)
	entries := []*fakeEntry{{name: "a"}, {name: "b"}, {name: "c"}}
	for _, e := range entries {
		require.NoError(t, h.Push(e))
	}

	assert.Equal(t, 1, entries[0].released)
	assert.Equal(t, 2, h.Depth())
	assert.Equal(t, "b", h.Entries()[0].Name)
}

func TestHistory_FailedUndoKeepsCursor(t *testing.T) {
	h := NewHistory(0, nil)
	boom := errors.New("boom")
	require.NoError(t, h.Push(&fakeEntry{name: "a", undoErr: boom}))

	_, err := h.Undo(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, h.Depth())
}

func TestHistory_Disabled(t *testing.T) {
	h := NewHistory(0, nil)
	h.SetEnabled(false)
	assert.ErrorIs(t, h.Push(&fakeEntry{name: "a"}), ErrHistoryDisabled)
	assert.False(t, h.Enabled())
	assert.Empty(t, h.Entries())
}

func TestHistory_Clear(t *testing.T) {
	h := NewHistory(0, nil)
	a, b := &fakeEntry{name: "a"}, &fakeEntry{name: "b"}
	require.NoError(t, h.Push(a))
	require.NoError(t, h.Push(b))
	_, err := h.Undo(context.Background())
	require.NoError(t, err)

	h.Clear()

	assert.Equal(t, 1, a.released)
	assert.Equal(t, 1, b.released)
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
}
