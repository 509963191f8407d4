// Package generate implements the pre-write value-generation stage: default
// values and generated fields resolved against a named generator registry
// before an instance is validated and persisted.
package generate

import (
	"fmt"
	"sync"

	"github.com/elialm7/kurubind/schema"
)

// ValueGenerator produces a value for one field. It receives the whole
// instance so generators can derive values from other fields.
type ValueGenerator interface {
	Generate(instance any, field *schema.Field) (any, error)
}

// GeneratorFunc adapts a function to the ValueGenerator interface.
type GeneratorFunc func(instance any, field *schema.Field) (any, error)

// Generate implements ValueGenerator.
func (f GeneratorFunc) Generate(instance any, field *schema.Field) (any, error) {
	return f(instance, field)
}

// Registry maps logical generator names to implementations. An unregistered
// name is a hard error at lookup time, aborting the whole operation.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]ValueGenerator
}

// NewRegistry returns an empty generator registry.
func NewRegistry() *Registry {
	return &Registry{generators: make(map[string]ValueGenerator)}
}

// Register binds a generator under a logical name.
func (r *Registry) Register(name string, g ValueGenerator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[name] = g
}

// Get resolves a generator by name.
func (r *Registry) Get(name string) (ValueGenerator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.generators[name]
	if !ok {
		return nil, fmt.Errorf("kurubind: no value generator registered with name %q", name)
	}
	return g, nil
}

// Has reports whether a generator name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.generators[name]
	return ok
}
