// Package convert bridges in-memory and storage representations through
// converters registered per declarative tag, with optional dialect-specific
// overrides.
package convert

import (
	"sync"

	"github.com/elialm7/kurubind/schema"
	"github.com/elialm7/kurubind/sqlgen"
)

// Converter transforms one field value in both directions: Write before
// binding a statement parameter, Read before assigning a result column.
type Converter interface {
	Write(value any, field *schema.Field) (any, error)
	Read(value any, field *schema.Field) (any, error)
}

type dialectKey struct {
	tag     string
	dialect sqlgen.Dialect
}

// Registry maps declarative tag names to converters. A dialect-specific entry
// wins over the generic entry for the same tag. Registration happens at
// configuration time; lookups are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	generic map[string]Converter
	dialect map[dialectKey]Converter
}

// NewRegistry returns an empty converter registry.
func NewRegistry() *Registry {
	return &Registry{
		generic: make(map[string]Converter),
		dialect: make(map[dialectKey]Converter),
	}
}

// Register binds a converter to a tag for every dialect.
func (r *Registry) Register(tag string, c Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generic[tag] = c
}

// RegisterDialect binds a converter to a tag for one dialect only.
func (r *Registry) RegisterDialect(tag string, d sqlgen.Dialect, c Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dialect[dialectKey{tag: tag, dialect: d}] = c
}

// ForField returns the converters matching the field's tags in tag order,
// preferring dialect-specific entries.
func (r *Registry) ForField(f *schema.Field, d sqlgen.Dialect) []Converter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Converter
	for _, tag := range f.Tags {
		if c, ok := r.dialect[dialectKey{tag: tag.Name, dialect: d}]; ok {
			out = append(out, c)
			continue
		}
		if c, ok := r.generic[tag.Name]; ok {
			out = append(out, c)
		}
	}
	return out
}
