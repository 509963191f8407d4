// Package validation runs registered validators over every field of an
// instance and reports every violation together in one aggregate error.
package validation

import "fmt"

// FieldError is one violation: the field it occurred on and a human message.
type FieldError struct {
	Field   string
	Message string
}

// Errors is the aggregate validation error. It collects every violation in
// field/tag declaration order; callers enumerate all of them from the single
// returned error.
type Errors struct {
	errs []FieldError
}

// NewErrors returns an empty aggregate.
func NewErrors() *Errors {
	return &Errors{}
}

// Add appends one violation.
func (e *Errors) Add(field, message string) {
	e.errs = append(e.errs, FieldError{Field: field, Message: message})
}

// Merge appends every violation from another aggregate.
func (e *Errors) Merge(other *Errors) {
	e.errs = append(e.errs, other.errs...)
}

// HasErrors reports whether any violation was collected.
func (e *Errors) HasErrors() bool {
	return len(e.errs) > 0
}

// All returns the ordered violation list.
func (e *Errors) All() []FieldError {
	return e.errs
}

// Error implements the error interface.
func (e *Errors) Error() string {
	switch len(e.errs) {
	case 0:
		return "validation failed"
	case 1:
		return fmt.Sprintf("validation failed: %s: %s", e.errs[0].Field, e.errs[0].Message)
	default:
		return fmt.Sprintf("validation failed: %d errors", len(e.errs))
	}
}
