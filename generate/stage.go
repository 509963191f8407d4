package generate

import (
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/cast"

	"github.com/elialm7/kurubind/schema"
)

// Mode selects which generation rules apply.
type Mode int

const (
	// ModeInsert applies default-value tags and insert-flagged generators.
	ModeInsert Mode = iota
	// ModeUpdate applies only update-flagged generators.
	ModeUpdate
)

// Apply runs the value-generation stage over an instance in field-declaration
// order. For each field, default-value resolution runs first (only on insert,
// only when the current value is absent), then generated rules whose mode flag
// matches run unconditionally, overwriting any existing value. A generator
// therefore sees defaults already applied to earlier fields.
func Apply(instance any, meta *schema.Metadata, registry *Registry, mode Mode) error {
	for _, field := range meta.Fields {
		if mode == ModeInsert && field.HasDefault {
			if err := applyDefault(instance, field, registry); err != nil {
				return err
			}
		}
		for _, cfg := range field.Generators {
			if (mode == ModeInsert && cfg.OnInsert) || (mode == ModeUpdate && cfg.OnUpdate) {
				gen, err := registry.Get(cfg.Name)
				if err != nil {
					return err
				}
				value, err := gen.Generate(instance, field)
				if err != nil {
					return fmt.Errorf("kurubind: generator %q failed on field %s: %w", cfg.Name, field.Name, err)
				}
				if err := field.SetValue(instance, value); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func applyDefault(instance any, field *schema.Field, registry *Registry) error {
	if !schema.IsAbsent(field.Value(instance)) {
		return nil
	}

	if field.DefaultGenerator != "" {
		gen, err := registry.Get(field.DefaultGenerator)
		if err != nil {
			return err
		}
		value, err := gen.Generate(instance, field)
		if err != nil {
			return fmt.Errorf("kurubind: default generator %q failed on field %s: %w", field.DefaultGenerator, field.Name, err)
		}
		return field.SetValue(instance, value)
	}

	value, err := ParseLiteral(field.DefaultLiteral, field.Type)
	if err != nil {
		return fmt.Errorf("kurubind: cannot parse default %q for field %s: %w", field.DefaultLiteral, field.Name, err)
	}
	return field.SetValue(instance, value)
}

// ParseLiteral converts a default-value literal into the field's value type.
func ParseLiteral(literal string, t reflect.Type) (any, error) {
	isPtr := t.Kind() == reflect.Pointer
	if isPtr {
		t = t.Elem()
	}

	var value any
	var err error
	switch t.Kind() {
	case reflect.String:
		value = literal
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		value, err = cast.ToInt64E(literal)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		value, err = cast.ToUint64E(literal)
	case reflect.Float32, reflect.Float64:
		value, err = cast.ToFloat64E(literal)
	case reflect.Bool:
		value, err = cast.ToBoolE(literal)
	default:
		if t == reflect.TypeOf(time.Time{}) {
			value, err = cast.ToTimeE(literal)
			break
		}
		return nil, fmt.Errorf("unsupported literal target type %s", t)
	}
	if err != nil {
		return nil, err
	}

	rv := reflect.ValueOf(value)
	if rv.Type() != t && rv.Type().ConvertibleTo(t) {
		rv = rv.Convert(t)
	}
	if isPtr {
		p := reflect.New(t)
		p.Elem().Set(rv)
		return p.Interface(), nil
	}
	return rv.Interface(), nil
}
