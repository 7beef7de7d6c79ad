package render_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/permitsite/internal/render"
)

func TestCopyDir(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "assets", "site.css"), []byte("body{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "favicon.ico"), []byte("ico"), 0o644))

	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dst, "favicon.ico"), []byte("old"), 0o644))

	require.NoError(t, render.CopyDir(src, dst))

	css, err := os.ReadFile(filepath.Join(dst, "assets", "site.css"))
	require.NoError(t, err)
	assert.Equal(t, "body{}", string(css))

	ico, err := os.ReadFile(filepath.Join(dst, "favicon.ico"))
	require.NoError(t, err)
	assert.Equal(t, "ico", string(ico), "existing files are overwritten")
}

func TestCopyDir_MissingSource(t *testing.T) {
	dst := t.TempDir()

	require.NoError(t, render.CopyDir(filepath.Join(dst, "nope"), dst))

	entries, err := os.ReadDir(dst)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
