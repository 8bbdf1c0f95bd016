package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rockorager/prise/internal/uihost"
)

func sampleTree() *uihost.Widget {
	return &uihost.Widget{
		Kind: uihost.KindRow,
		Children: []*uihost.Widget{
			{Kind: uihost.KindSurface, PTYID: 1, Ratio: 0.7},
			{Kind: uihost.KindSurface, PTYID: 2, Ratio: 0.3},
		},
	}
}

func TestSaveLoadRoundTripsPaneSet(t *testing.T) {
	store := NewStore(t.TempDir())
	tree := sampleTree()

	require.NoError(t, store.Save("work", tree, []int{1, 2}))

	restored, ids, err := store.Load("work")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2}, ids)
	require.Len(t, restored.Children, 2)
	assert.Equal(t, uihost.KindSurface, restored.Children[0].Kind)
	assert.Equal(t, 0.7, restored.Children[0].Ratio)
}

func TestLoadMissingSessionReturnsNoSession(t *testing.T) {
	store := NewStore(t.TempDir())
	_, _, err := store.Load("missing")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestLoadCorruptSessionReturnsCorruptSession(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, writeRaw(filepath.Join(dir, "bad.json"), "{not json"))

	_, _, err := store.Load("bad")
	assert.ErrorIs(t, err, ErrCorruptSession)
}

func TestListSkipsNonJSONEntries(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, store.Save("a", sampleTree(), []int{1, 2}))
	require.NoError(t, store.Save("b", sampleTree(), []int{1, 2}))
	require.NoError(t, writeRaw(filepath.Join(dir, "notes.txt"), "hello"))

	names, err := store.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, names)
}

func TestRenameMovesSessionFile(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.Save("old", sampleTree(), []int{1, 2}))

	require.NoError(t, store.Rename("old", "new"))

	_, _, err := store.Load("old")
	assert.ErrorIs(t, err, ErrNoSession)
	_, ids, err := store.Load("new")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2}, ids)
}

func TestPaneJSONUsesPaneTypeForSurfaceWidgets(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, store.Save("work", sampleTree(), []int{1, 2}))

	data, err := readRaw(filepath.Join(dir, "work.json"))
	require.NoError(t, err)
	assert.Contains(t, data, `"type": "pane"`)
	assert.Contains(t, data, `"pty_id": 1`)
}
