package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/spf13/cast"

	"github.com/elialm7/kurubind/schema"
)

// RegisterBuiltins installs the standard validator vocabulary: notnull, min,
// max, pattern, email and check.
func RegisterBuiltins(r *Registry) {
	r.Register("notnull", NotNull{})
	r.Register("min", Min{})
	r.Register("max", Max{})
	r.Register("pattern", NewPattern())
	r.Register("email", Email{})
	r.Register("check", NewCheck())
}

// NotNull rejects absent values (nil pointers/slices/maps, zero time).
type NotNull struct{}

// Validate implements Validator.
func (NotNull) Validate(value any, field *schema.Field) error {
	if schema.IsAbsent(value) {
		return fmt.Errorf("%s cannot be null", field.Name)
	}
	return nil
}

// Min enforces the "min=<n>" tag: a lower bound for numeric values, a minimum
// rune count for strings. Absent values pass; pair with notnull to forbid them.
type Min struct{}

// Validate implements Validator.
func (Min) Validate(value any, field *schema.Field) error {
	bound, ok := field.TagArg("min")
	if !ok {
		return nil
	}
	return validateBound(value, bound, field, false)
}

// Max enforces the "max=<n>" tag, the upper-bound mirror of Min.
type Max struct{}

// Validate implements Validator.
func (Max) Validate(value any, field *schema.Field) error {
	bound, ok := field.TagArg("max")
	if !ok {
		return nil
	}
	return validateBound(value, bound, field, true)
}

func validateBound(value any, bound string, field *schema.Field, upper bool) error {
	if schema.IsAbsent(value) {
		return nil
	}

	limit, err := cast.ToFloat64E(bound)
	if err != nil {
		return fmt.Errorf("invalid bound %q on field %s", bound, field.Name)
	}

	if s, ok := indirect(value).(string); ok {
		length := float64(utf8.RuneCountInString(s))
		if upper && length > limit {
			return fmt.Errorf("%s must be at most %v characters", field.Name, limit)
		}
		if !upper && length < limit {
			return fmt.Errorf("%s must be at least %v characters", field.Name, limit)
		}
		return nil
	}

	n, err := cast.ToFloat64E(indirect(value))
	if err != nil {
		return fmt.Errorf("%s: expected numeric value, got %T", field.Name, value)
	}
	if upper && n > limit {
		return fmt.Errorf("%s must be at most %v", field.Name, limit)
	}
	if !upper && n < limit {
		return fmt.Errorf("%s must be at least %v", field.Name, limit)
	}
	return nil
}

// Pattern enforces the "pattern=<re>" tag against string values. Expressions
// compile once and are cached per pattern text.
type Pattern struct {
	mu       sync.Mutex
	compiled map[string]*regexp.Regexp
}

// NewPattern returns a pattern validator with an empty compilation cache.
func NewPattern() *Pattern {
	return &Pattern{compiled: make(map[string]*regexp.Regexp)}
}

// Validate implements Validator.
func (p *Pattern) Validate(value any, field *schema.Field) error {
	expr, ok := field.TagArg("pattern")
	if !ok || schema.IsAbsent(value) {
		return nil
	}
	s, ok := indirect(value).(string)
	if !ok {
		return fmt.Errorf("%s: pattern validation requires a string, got %T", field.Name, value)
	}

	p.mu.Lock()
	re, cached := p.compiled[expr]
	if !cached {
		var err error
		re, err = regexp.Compile(expr)
		if err != nil {
			p.mu.Unlock()
			return fmt.Errorf("%s: invalid pattern %q: %v", field.Name, expr, err)
		}
		p.compiled[expr] = re
	}
	p.mu.Unlock()

	if !re.MatchString(s) {
		return fmt.Errorf("%s does not match required pattern", field.Name)
	}
	return nil
}

// Email validates RFC 5322 addresses via net/mail.
type Email struct{}

// Validate implements Validator.
func (Email) Validate(value any, field *schema.Field) error {
	if schema.IsAbsent(value) {
		return nil
	}
	s, ok := indirect(value).(string)
	if !ok {
		return fmt.Errorf("%s: email validation requires a string, got %T", field.Name, value)
	}
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%s cannot be empty", field.Name)
	}
	if _, err := mail.ParseAddress(s); err != nil {
		return fmt.Errorf("%s must be a valid email address", field.Name)
	}
	return nil
}

// indirect unwraps one level of pointer for validator input.
func indirect(value any) any {
	switch v := value.(type) {
	case *string:
		if v == nil {
			return nil
		}
		return *v
	case *int:
		if v == nil {
			return nil
		}
		return *v
	case *int64:
		if v == nil {
			return nil
		}
		return *v
	case *float64:
		if v == nil {
			return nil
		}
		return *v
	default:
		return value
	}
}
