package schema

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// Cache memoizes extracted metadata per type for the process lifetime. A type
// is introspected exactly once even under concurrent first access; construction
// errors are cached and returned on every subsequent lookup.
type Cache struct {
	mu      sync.Mutex
	entries map[reflect.Type]*cacheEntry
	tags    *TagRegistry
	builds  atomic.Int64
}

type cacheEntry struct {
	once sync.Once
	meta *Metadata
	err  error
}

// NewCache creates a metadata cache resolving composed tags through the given
// registry.
func NewCache(tags *TagRegistry) *Cache {
	return &Cache{
		entries: make(map[reflect.Type]*cacheEntry),
		tags:    tags,
	}
}

// Get returns the metadata for a type, building it on first access. Pointer
// types resolve to their element type.
func (c *Cache) Get(t reflect.Type) (*Metadata, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	c.mu.Lock()
	entry, ok := c.entries[t]
	if !ok {
		entry = &cacheEntry{}
		c.entries[t] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		c.builds.Add(1)
		entry.meta, entry.err = Extract(t, c.tags)
	})
	return entry.meta, entry.err
}

// GetFor is Get for a value's dynamic type.
func (c *Cache) GetFor(instance any) (*Metadata, error) {
	return c.Get(reflect.TypeOf(instance))
}

// Builds returns how many extractions have run. Exposed for tests asserting
// single-introspection behavior.
func (c *Cache) Builds() int64 {
	return c.builds.Load()
}
