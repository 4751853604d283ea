package querysql

import (
	"sync"
	"sync/atomic"

	"github.com/roach88/sexpsql/internal/queryir"
)

// DefaultCacheSize is the entry count above which a Compiler's default
// cache sweeps.
const DefaultCacheSize = 1024

// Cache memoizes compiled templates by ir.TemplateKey.
//
// Reclamation is generational: every hit or insert stamps the entry with
// the current generation, and Sweep drops the entries not touched since the
// previous sweep, then advances the generation. Inserts that push the cache
// past its size sweep automatically. Eviction only costs a recompile;
// entries are never stale because the key covers everything a template
// depends on.
//
// Thread-safety: all methods are safe for concurrent use. Two callers
// racing on the same key both compile and the last insert wins, which is
// harmless because compilation is deterministic.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]*cacheEntry
	maxEntries int

	generation atomic.Uint64
	hits       atomic.Int64
	misses     atomic.Int64
	evictions  atomic.Int64
}

type cacheEntry struct {
	tmpl *queryir.Template
	used atomic.Uint64
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
	MaxSize   int   `json:"max_size"`
}

// NewCache creates a cache that sweeps when it grows past maxEntries.
// maxEntries <= 0 disables automatic sweeping.
func NewCache(maxEntries int) *Cache {
	return &Cache{
		entries:    make(map[string]*cacheEntry),
		maxEntries: maxEntries,
	}
}

// Get returns the template cached under key.
func (c *Cache) Get(key string) (*queryir.Template, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	e.used.Store(c.generation.Load())
	c.hits.Add(1)
	return e.tmpl, true
}

// Put stores tmpl under key, replacing any previous entry.
// Returns the number of entries evicted by an automatic sweep.
func (c *Cache) Put(key string, tmpl *queryir.Template) int {
	e := &cacheEntry{tmpl: tmpl}
	e.used.Store(c.generation.Load())

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = e
	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		return c.sweepLocked()
	}
	return 0
}

// Sweep drops entries not used since the previous sweep and returns how
// many were dropped.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweepLocked()
}

func (c *Cache) sweepLocked() int {
	gen := c.generation.Load()
	evicted := 0
	for key, e := range c.entries {
		if e.used.Load() < gen {
			delete(c.entries, key)
			evicted++
		}
	}
	c.generation.Add(1)
	c.evictions.Add(int64(evicted))
	return evicted
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

// Len returns the number of cached templates.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Size:      c.Len(),
		MaxSize:   c.maxEntries,
	}
}
