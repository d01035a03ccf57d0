// Package assets resolves material and texture files referenced by meshes.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Faultbox/meshport/pkg/encoding"
)

// ErrNotFound is returned when a referenced file cannot be located.
var ErrNotFound = errors.New("file not found")

// Finder locates files referenced by name from a mesh or material file.
// Lookups are tried in order: the name as given (if absolute), dir/name,
// a case-insensitive search below dir, then each search path.
type Finder struct {
	searchPaths []string
	cache       *Cache
	mu          sync.RWMutex
}

// NewFinder creates a finder with extra directories to search.
func NewFinder(searchPaths ...string) *Finder {
	return &Finder{
		searchPaths: append([]string(nil), searchPaths...),
		cache:       NewCache(),
	}
}

// AddSearchPath appends a directory to the search list.
// Later paths have lower priority.
func (f *Finder) AddSearchPath(dir string) {
	f.mu.Lock()
	f.searchPaths = append(f.searchPaths, dir)
	f.mu.Unlock()
}

// SearchPaths returns a copy of the configured search paths.
func (f *Finder) SearchPaths() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]string(nil), f.searchPaths...)
}

// Find resolves name relative to dir.
func (f *Finder) Find(name, dir string) (string, error) {
	name = filepath.FromSlash(encoding.NormalizePath(strings.TrimSpace(name)))
	if name == "" {
		return "", fmt.Errorf("empty name: %w", ErrNotFound)
	}

	key := dir + "\x00" + name
	if path, ok := f.cache.Get(key); ok {
		if isFile(path) {
			return path, nil
		}
		f.cache.Delete(key)
	}

	path, err := f.find(name, dir)
	if err != nil {
		return "", err
	}
	f.cache.Set(key, path)
	return path, nil
}

func (f *Finder) find(name, dir string) (string, error) {
	if filepath.IsAbs(name) {
		if isFile(name) {
			return name, nil
		}
		// Fall through and try the base name locally; absolute paths in
		// exported files usually point at the author's machine.
		name = filepath.Base(name)
	}

	if dir != "" {
		if p := filepath.Join(dir, name); isFile(p) {
			return p, nil
		}
		if p, ok := searchTree(dir, filepath.Base(name)); ok {
			return p, nil
		}
	}

	for _, sp := range f.SearchPaths() {
		if p := filepath.Join(sp, name); isFile(p) {
			return p, nil
		}
		if p := filepath.Join(sp, filepath.Base(name)); isFile(p) {
			return p, nil
		}
	}

	return "", fmt.Errorf("%s (searched %q and %d search paths): %w", name, dir, len(f.SearchPaths()), ErrNotFound)
}

// Reset forgets every resolved path, so files added on disk since the last
// lookup are found at their preferred location.
func (f *Finder) Reset() {
	f.cache.Clear()
}

// CacheStats returns lookup cache hits and misses.
func (f *Finder) CacheStats() (hits, misses int) {
	return f.cache.Stats()
}

// searchTree walks root for a file whose base name matches base, ignoring case.
func searchTree(root, base string) (string, bool) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subdirectories are skipped
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() && strings.EqualFold(d.Name(), base) {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil || found == "" {
		return "", false
	}
	return found, true
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
