package fsutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, n := range names {
		p := filepath.Join(root, n)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte("job {}\n"), 0644))
	}
}

func TestFindFilesByExtension(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "b.hcl", "a.hcl", "nested/c.hcl", "notes.txt")

	files, err := FindFilesByExtension(root, ".hcl")

	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.hcl"),
		filepath.Join(root, "b.hcl"),
		filepath.Join(root, "nested", "c.hcl"),
	}, files)
}

func TestFindFilesByExtension_PanicsOnEmptyExtension(t *testing.T) {
	assert.Panics(t, func() { _, _ = FindFilesByExtension(t.TempDir(), "") })
}

func TestResolvePath(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "job.hcl", "readme.md")
	ctx := context.Background()

	files, err := ResolvePath(ctx, filepath.Join(root, "job.hcl"), ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "job.hcl")}, files)

	files, err = ResolvePath(ctx, root, ".hcl")
	require.NoError(t, err)
	assert.Len(t, files, 1)

	_, err = ResolvePath(ctx, filepath.Join(root, "readme.md"), ".hcl")
	assert.ErrorContains(t, err, "not an .hcl file")

	_, err = ResolvePath(ctx, filepath.Join(root, "missing"), ".hcl")
	assert.ErrorContains(t, err, "path not found")
}
