// Package sqlgen renders dialect-correct CRUD statements with named
// placeholders from type metadata. Dialect implementations override only the
// fragments that differ; everything else composes from the generic ANSI
// generator.
package sqlgen

import (
	"sync"

	"github.com/elialm7/kurubind/schema"
)

// Dialect identifies a target database family. It is an opaque registry key:
// unknown dialects fall back to the generic ANSI generator.
type Dialect string

// Built-in dialects.
const (
	ANSI      Dialect = "ansi"
	Postgres  Dialect = "postgres"
	MySQL     Dialect = "mysql"
	SQLite    Dialect = "sqlite"
	SQLServer Dialect = "sqlserver"
)

// Generator renders SQL statement text for one dialect. Placeholders are named
// (":column"); binding and rewriting to driver syntax happens at the executor
// boundary.
type Generator interface {
	Insert(meta *schema.Metadata, fields []*schema.Field) string
	Update(meta *schema.Metadata, fields []*schema.Field) string
	Delete(meta *schema.Metadata) string
	Select(meta *schema.Metadata) string
	SelectByID(meta *schema.Metadata) string
	Count(meta *schema.Metadata) string
	ExistsByID(meta *schema.Metadata) string

	// Placeholder returns the bind token for one field. Every statement shape
	// above is built through this hook, so overriding it alone changes tokens
	// without touching statement structure.
	Placeholder(f *schema.Field) string

	// Paginate appends the dialect's limit/offset clause, parameterized as
	// :limit and :offset.
	Paginate(sql string) string

	// ReturnsInsertID reports whether Insert appended a return-identifier
	// clause for this metadata, so the caller knows how to read the key back.
	ReturnsInsertID(meta *schema.Metadata) bool
}

// Registry maps dialects to SQL generators. Lookups never fail: an unknown or
// empty dialect resolves to the generic ANSI generator.
type Registry struct {
	mu         sync.RWMutex
	generators map[Dialect]Generator
	fallback   Generator
}

// NewRegistry creates a registry whose fallback is the generic ANSI generator.
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[Dialect]Generator),
		fallback:   NewAnsi(),
	}
}

// Register binds a generator to a dialect, replacing any previous binding.
func (r *Registry) Register(d Dialect, g Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[d] = g
}

// For resolves the generator for a dialect, falling back to ANSI.
func (r *Registry) For(d Dialect) Generator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if g, ok := r.generators[d]; ok {
		return g
	}
	return r.fallback
}
