package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestFinder_Find(t *testing.T) {
	root := t.TempDir()
	objDir := filepath.Join(root, "model")
	shared := filepath.Join(root, "shared")

	writeFile(t, filepath.Join(objDir, "chair.mtl"))
	writeFile(t, filepath.Join(objDir, "maps", "Wood.PNG"))
	writeFile(t, filepath.Join(shared, "metal.png"))
	writeFile(t, filepath.Join(root, "abs.png"))

	f := NewFinder(shared)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"direct", "chair.mtl", filepath.Join(objDir, "chair.mtl")},
		{"backslash subdir", `maps\Wood.PNG`, filepath.Join(objDir, "maps", "Wood.PNG")},
		{"case-insensitive search", "wood.png", filepath.Join(objDir, "maps", "Wood.PNG")},
		{"search path", "metal.png", filepath.Join(shared, "metal.png")},
		{"absolute", filepath.Join(root, "abs.png"), filepath.Join(root, "abs.png")},
		{"stale absolute falls back to base name", "/nowhere/metal.png", filepath.Join(shared, "metal.png")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Find(tt.in, objDir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFinder_NotFound(t *testing.T) {
	f := NewFinder()
	_, err := f.Find("missing.mtl", t.TempDir())
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = f.Find("  ", t.TempDir())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFinder_CacheRevalidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.mtl")
	writeFile(t, path)

	f := NewFinder()
	got, err := f.Find("a.mtl", dir)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	_, err = f.Find("a.mtl", dir)
	require.NoError(t, err)
	hits, _ := f.CacheStats()
	assert.Equal(t, 1, hits)

	require.NoError(t, os.Remove(path))
	_, err = f.Find("a.mtl", dir)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFinder_AddSearchPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "late.png"))

	f := NewFinder()
	_, err := f.Find("late.png", "")
	require.Error(t, err)

	f.AddSearchPath(dir)
	assert.Equal(t, []string{dir}, f.SearchPaths())
	got, err := f.Find("late.png", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "late.png"), got)
}

func TestFinder_Reset(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "textures", "wood.png")
	writeFile(t, nested)

	f := NewFinder()
	got, err := f.Find("wood.png", dir)
	require.NoError(t, err)
	assert.Equal(t, nested, got)

	// A copy next to the mesh is preferred, but only after the cache is reset
	local := filepath.Join(dir, "wood.png")
	writeFile(t, local)
	got, err = f.Find("wood.png", dir)
	require.NoError(t, err)
	assert.Equal(t, nested, got)

	f.Reset()
	got, err = f.Find("wood.png", dir)
	require.NoError(t, err)
	assert.Equal(t, local, got)
}

func TestCache(t *testing.T) {
	c := NewCache()
	_, ok := c.Get("k")
	assert.False(t, ok)

	c.Set("k", "v")
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	hits, misses := c.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)

	c.Delete("k")
	_, ok = c.Get("k")
	assert.False(t, ok)

	c.Set("x", "y")
	c.Clear()
	hits, misses = c.Stats()
	assert.Zero(t, hits+misses)
	_, ok = c.Get("x")
	assert.False(t, ok)
}
