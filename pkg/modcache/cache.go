// Package modcache is the process-wide registry of loaded server module
// artifacts.
//
// The custom server module loader stores everything it reads from disk here,
// keyed by resolved absolute path. Restarting the server evicts every entry
// under the module root with Invalidate so the next load reads fresh files.
// Nothing outside the loader and the lifecycle manager touches the cache
// directly.
package modcache

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Cache maps resolved file paths to loaded artifacts.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]any
}

var (
	defaultCache *Cache
	defaultOnce  sync.Once
)

// Default returns the process-wide cache, creating it on first use.
func Default() *Cache {
	defaultOnce.Do(func() {
		defaultCache = New()
	})
	return defaultCache
}

// New creates an empty cache. Tests and embedders that need isolation use
// this instead of Default.
func New() *Cache {
	return &Cache{entries: make(map[string]any)}
}

// Get returns the artifact stored under path.
func (c *Cache) Get(path string) (any, bool) {
	key := Resolve(path)

	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Store records artifact under path.
func (c *Cache) Store(path string, artifact any) {
	key := Resolve(path)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = artifact
}

// Load returns the artifact under path, calling load and storing its result
// on a miss. A failed load stores nothing.
func (c *Cache) Load(path string, load func() (any, error)) (any, error) {
	if v, ok := c.Get(path); ok {
		return v, nil
	}

	v, err := load()
	if err != nil {
		return nil, err
	}
	c.Store(path, v)
	return v, nil
}

// Invalidate removes every entry whose path lies under root and returns the
// number removed. root is matched with a trailing separator, so "/app/server"
// does not evict "/app/server-old/x". An entry for root itself is removed too.
func (c *Cache) Invalidate(root string) int {
	dir := Resolve(root)
	prefix := dir
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if key == dir || strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Paths returns the cached paths in sorted order.
func (c *Cache) Paths() []string {
	c.mu.RLock()
	paths := make([]string, 0, len(c.entries))
	for key := range c.entries {
		paths = append(paths, key)
	}
	c.mu.RUnlock()

	sort.Strings(paths)
	return paths
}

// Resolve returns the absolute, cleaned form of path.
func Resolve(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
