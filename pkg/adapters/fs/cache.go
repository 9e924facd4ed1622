package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/veikko/jamb/pkg/core"
)

// indexEntry holds the parsed metadata of one element file together
// with the mtime it was parsed at.
type indexEntry struct {
	ID           string        `json:"id"`
	Metadata     core.Metadata `json:"metadata,omitempty"`
	LastModified time.Time     `json:"lastModified"`
}

// index is the persistent cache state, keyed by path relative to the
// plan root (e.g. "walls/north.yaml").
type index struct {
	Version int                    `json:"version"`
	Entries map[string]*indexEntry `json:"entries"`
	dirty   bool
	mu      sync.RWMutex
}

// cache speeds up List by remembering parsed metadata per file. A
// stale mtime invalidates the entry.
type cache struct {
	Path  string // {planPath}/{systemDir}/index.json
	index *index
}

func newCache(planPath, systemDir string) *cache {
	return &cache{
		Path: filepath.Join(planPath, systemDir, "index.json"),
		index: &index{
			Version: 1,
			Entries: make(map[string]*indexEntry),
		},
	}
}

// Load reads the cache from disk. A missing or corrupted index is not
// an error; the cache starts empty and rebuilds itself.
func (c *cache) Load() error {
	c.index.mu.Lock()
	defer c.index.mu.Unlock()

	data, err := os.ReadFile(c.Path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	if err := json.Unmarshal(data, c.index); err != nil {
		// Corruption self-heals: discard and rebuild on the next List.
		c.index.Entries = make(map[string]*indexEntry)
		return nil
	}

	c.index.dirty = false
	return nil
}

// Save persists the cache to disk if it changed since the last Save.
func (c *cache) Save() error {
	c.index.mu.RLock()
	if !c.index.dirty {
		c.index.mu.RUnlock()
		return nil
	}
	data, err := json.MarshalIndent(c.index, "", "  ")
	c.index.mu.RUnlock()

	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(c.Path), 0755); err != nil {
		return err
	}
	if err := writeFileAtomic(c.Path, data, 0644); err != nil {
		return err
	}

	c.index.mu.Lock()
	c.index.dirty = false
	c.index.mu.Unlock()
	return nil
}

// Get returns the entry for relPath if present and still fresh.
func (c *cache) Get(relPath string, currentMtime time.Time) (*indexEntry, bool) {
	c.index.mu.RLock()
	defer c.index.mu.RUnlock()

	entry, ok := c.index.Entries[relPath]
	if !ok {
		return nil, false
	}
	if !entry.LastModified.Equal(currentMtime) {
		return nil, false
	}
	return entry, true
}

// Set stores or replaces an entry.
func (c *cache) Set(relPath string, entry *indexEntry) {
	c.index.mu.Lock()
	defer c.index.mu.Unlock()

	c.index.Entries[relPath] = entry
	c.index.dirty = true
}

// Prune drops entries whose paths are not in the keep set.
func (c *cache) Prune(keep map[string]bool) {
	c.index.mu.Lock()
	defer c.index.mu.Unlock()

	for path := range c.index.Entries {
		if !keep[path] {
			delete(c.index.Entries, path)
			c.index.dirty = true
		}
	}
}

// Delete removes a single entry.
func (c *cache) Delete(relPath string) {
	c.index.mu.Lock()
	defer c.index.mu.Unlock()

	delete(c.index.Entries, relPath)
	c.index.dirty = true
}

// Range iterates over entries until the callback returns false.
func (c *cache) Range(callback func(relPath string, entry *indexEntry) bool) {
	c.index.mu.RLock()
	defer c.index.mu.RUnlock()

	for k, v := range c.index.Entries {
		if !callback(k, v) {
			break
		}
	}
}

// Len reports the number of cached entries.
func (c *cache) Len() int {
	c.index.mu.RLock()
	defer c.index.mu.RUnlock()
	return len(c.index.Entries)
}
