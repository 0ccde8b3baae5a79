package templating

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// SnippetCache preloads reusable text fragments from a flat directory, one
// fragment per file keyed by basename. It is built once per sync run and
// read-only afterwards.
type SnippetCache struct {
	fragments map[string]string
	names     []string
}

// LoadSnippets reads every regular file under dir into the cache.
// Subdirectories are skipped. A missing directory yields an empty cache.
func LoadSnippets(dir string) (*SnippetCache, error) {
	cache := &SnippetCache{fragments: map[string]string{}}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cache, nil
		}
		return nil, fmt.Errorf("read snippet directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read snippet %s: %w", entry.Name(), err)
		}
		cache.fragments[entry.Name()] = string(data)
	}

	cache.names = make([]string, 0, len(cache.fragments))
	for name := range cache.fragments {
		cache.names = append(cache.names, name)
	}
	// longest first so a fragment name that prefixes another never
	// shadows it during marker replacement
	sort.Slice(cache.names, func(i, j int) bool {
		if len(cache.names[i]) != len(cache.names[j]) {
			return len(cache.names[i]) > len(cache.names[j])
		}
		return cache.names[i] < cache.names[j]
	})
	return cache, nil
}

// Get returns the fragment body and whether it exists.
func (c *SnippetCache) Get(name string) (string, bool) {
	body, ok := c.fragments[name]
	return body, ok
}

// Names returns the fragment names, longest first.
func (c *SnippetCache) Names() []string {
	return c.names
}

// Len returns the number of cached fragments.
func (c *SnippetCache) Len() int {
	return len(c.fragments)
}
