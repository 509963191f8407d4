package validation

import (
	"sync"

	"github.com/elialm7/kurubind/schema"
)

// Validator checks one field value. Returning *Errors contributes every entry
// to the operation's aggregate; any other error becomes a single entry for the
// field.
type Validator interface {
	Validate(value any, field *schema.Field) error
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(value any, field *schema.Field) error

// Validate implements Validator.
func (f ValidatorFunc) Validate(value any, field *schema.Field) error {
	return f(value, field)
}

// Registry maps declarative tag names to validators. Registration happens at
// configuration time; lookups are safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	validators map[string]Validator
}

// NewRegistry returns an empty validator registry.
func NewRegistry() *Registry {
	return &Registry{validators: make(map[string]Validator)}
}

// Register binds a validator to a tag name, replacing any previous binding.
func (r *Registry) Register(tag string, v Validator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validators[tag] = v
}

// ForField returns the validators for every tag on the field, in tag order.
// A field with two validator-bearing tags gets both.
func (r *Registry) ForField(f *schema.Field) []Validator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Validator
	for _, tag := range f.Tags {
		if v, ok := r.validators[tag.Name]; ok {
			out = append(out, v)
		}
	}
	return out
}
