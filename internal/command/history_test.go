package command

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/specialistvlad/riggraph/internal/rig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_UndoRedo(t *testing.T) {
	store := rig.NewStore()
	root := store.CreateGraph(uuid.Nil)
	h := NewHistory()
	empty := store.Membership()

	assert.False(t, h.CanUndo())
	_, err := h.Undo()
	assert.ErrorIs(t, err, ErrEmptyHistory)

	require.NoError(t, h.Execute(&CreateNode{Graph: root, NodeName: "A"}))
	require.NoError(t, h.Execute(&CreateNode{Graph: root, NodeName: "B"}))
	full := store.Membership()
	assert.Len(t, root.Nodes(), 2)

	c, err := h.Undo()
	require.NoError(t, err)
	assert.Equal(t, "create_node", c.Name())
	assert.Equal(t, []string{"A"}, nodeNames(root))
	assert.True(t, h.CanRedo())

	_, err = h.Undo()
	require.NoError(t, err)
	assert.Equal(t, empty, store.Membership())

	_, err = h.Redo()
	require.NoError(t, err)
	_, err = h.Redo()
	require.NoError(t, err)
	assert.Equal(t, full, store.Membership())
	assert.False(t, h.CanRedo())

	_, err = h.Redo()
	assert.ErrorIs(t, err, ErrEmptyHistory)
}

func TestHistory_ExecuteClearsRedo(t *testing.T) {
	store := rig.NewStore()
	root := store.CreateGraph(uuid.Nil)
	h := NewHistory()

	require.NoError(t, h.Execute(&CreateNode{Graph: root, NodeName: "A"}))
	_, err := h.Undo()
	require.NoError(t, err)
	require.True(t, h.CanRedo())

	require.NoError(t, h.Execute(&CreateNode{Graph: root, NodeName: "B"}))
	assert.False(t, h.CanRedo())
}

func TestHistory_RejectedCommandIsNotRecorded(t *testing.T) {
	store := rig.NewStore()
	root := store.CreateGraph(uuid.Nil)
	var buf bytes.Buffer
	h := NewHistory(WithLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))))

	err := h.Execute(&CreateNode{Graph: root, NodeName: ""})
	assert.ErrorIs(t, err, rig.ErrInvalidName)
	assert.False(t, h.CanUndo())
	assert.Contains(t, buf.String(), "Command rejected.")
}

func TestHistory_Limit(t *testing.T) {
	store := rig.NewStore()
	root := store.CreateGraph(uuid.Nil)
	h := NewHistory(WithLimit(2))

	for _, name := range []string{"A", "B", "C"} {
		require.NoError(t, h.Execute(&CreateNode{Graph: root, NodeName: name}))
	}
	_, err := h.Undo()
	require.NoError(t, err)
	_, err = h.Undo()
	require.NoError(t, err)
	_, err = h.Undo()
	assert.ErrorIs(t, err, ErrEmptyHistory)
	assert.Equal(t, []string{"A"}, nodeNames(root))
}

func TestHistory_Clear(t *testing.T) {
	store := rig.NewStore()
	root := store.CreateGraph(uuid.Nil)
	h := NewHistory()
	require.NoError(t, h.Execute(&CreateNode{Graph: root, NodeName: "A"}))

	h.Clear()

	assert.False(t, h.CanUndo())
	assert.Equal(t, []string{"A"}, nodeNames(root))
}

func TestHistory_ConcurrentExecute(t *testing.T) {
	store := rig.NewStore()
	root := store.CreateGraph(uuid.Nil)
	h := NewHistory()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, h.Execute(&CreateNode{Graph: root, NodeName: "Leg"}))
		}()
	}
	wg.Wait()

	var count int
	require.NoError(t, h.View(func() error {
		count = len(root.Nodes())
		return nil
	}))
	assert.Equal(t, 20, count)

	names := make(map[string]bool)
	for _, n := range root.Nodes() {
		names[n.Name()] = true
	}
	assert.Len(t, names, 20, "every node gets a distinct name")
}
