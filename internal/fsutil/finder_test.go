package fsutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	}
}

func TestFindFilesByExtension(t *testing.T) {
	// --- Arrange ---
	root := t.TempDir()
	writeTree(t, root, "std/default/joint.json", "std/default/readme.md", "std/maya/joint.json", "top.json")

	// --- Act ---
	files, err := FindFilesByExtension(context.Background(), root, ".json")

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "std/default/joint.json"),
		filepath.Join(root, "std/maya/joint.json"),
		filepath.Join(root, "top.json"),
	}, files)
}

func TestFindFilesByExtension_Errors(t *testing.T) {
	_, err := FindFilesByExtension(context.Background(), filepath.Join(t.TempDir(), "missing"), ".json")
	assert.ErrorIs(t, err, os.ErrNotExist)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	root := t.TempDir()
	writeTree(t, root, "a.json")
	_, err = FindFilesByExtension(ctx, root, ".json")
	assert.ErrorIs(t, err, context.Canceled)

	assert.Panics(t, func() { _, _ = FindFilesByExtension(context.Background(), root, "") })
}

func TestFindDirs(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "std/default/joint.json", "std/maya/deep/x.json", "extra/default/y.json")

	dirs, err := FindDirs(root, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{
		root,
		filepath.Join(root, "extra"),
		filepath.Join(root, "extra/default"),
		filepath.Join(root, "std"),
		filepath.Join(root, "std/default"),
		filepath.Join(root, "std/maya"),
	}, dirs)

	all, err := FindDirs(root, -1)
	require.NoError(t, err)
	assert.Contains(t, all, filepath.Join(root, "std/maya/deep"))
}
