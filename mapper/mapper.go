// Package mapper converts between instances and statement parameters/result
// rows: write-direction converter application and parameter binding on the way
// in, read-direction conversion and field assignment on the way out.
package mapper

import (
	"fmt"
	"reflect"

	"github.com/elialm7/kurubind/convert"
	"github.com/elialm7/kurubind/schema"
	"github.com/elialm7/kurubind/sqlgen"
)

// MappingError reports a row-to-instance type mismatch with everything needed
// to diagnose it: the field, its declared type, the offending value and the
// value's runtime type.
type MappingError struct {
	Field        string
	DeclaredType reflect.Type
	Value        any
	ValueType    reflect.Type
}

// Error implements the error interface.
func (e *MappingError) Error() string {
	return fmt.Sprintf("cannot map value %v (%s) into field %s (%s)",
		e.Value, e.ValueType, e.Field, e.DeclaredType)
}

// Mapper binds and maps values for one metadata under one dialect.
type Mapper struct {
	meta       *schema.Metadata
	converters *convert.Registry
	dialect    sqlgen.Dialect
}

// New creates a mapper for a mapped type.
func New(meta *schema.Metadata, converters *convert.Registry, dialect sqlgen.Dialect) *Mapper {
	return &Mapper{meta: meta, converters: converters, dialect: dialect}
}

// BindArgs reads the given fields from an instance, applies write-direction
// converters in tag order, and returns the named parameter map keyed by
// column.
func (m *Mapper) BindArgs(instance any, fields []*schema.Field) (map[string]any, error) {
	args := make(map[string]any, len(fields))
	for _, field := range fields {
		value := field.Value(instance)
		for _, converter := range m.converters.ForField(field, m.dialect) {
			converted, err := converter.Write(value, field)
			if err != nil {
				return nil, err
			}
			value = converted
		}
		args[field.Column] = normalize(value)
	}
	return args, nil
}

// MapInto fills an instance from one result row. Columns without a mapped
// field are ignored; mapped fields without a column keep their zero value.
func (m *Mapper) MapInto(instance any, columns []string, values []any) error {
	for i, column := range columns {
		field, ok := m.meta.FieldByColumn(column)
		if !ok {
			continue
		}

		value := values[i]
		for _, converter := range m.converters.ForField(field, m.dialect) {
			converted, err := converter.Read(value, field)
			if err != nil {
				return err
			}
			value = converted
		}

		coerced, err := Coerce(value, field.Type)
		if err != nil {
			return &MappingError{
				Field:        field.Name,
				DeclaredType: field.Type,
				Value:        value,
				ValueType:    reflect.TypeOf(value),
			}
		}
		if err := field.SetValue(instance, coerced); err != nil {
			return &MappingError{
				Field:        field.Name,
				DeclaredType: field.Type,
				Value:        value,
				ValueType:    reflect.TypeOf(value),
			}
		}
	}
	return nil
}

// normalize dereferences pointers before binding so drivers see plain values.
func normalize(value any) any {
	if value == nil {
		return nil
	}
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		return v.Elem().Interface()
	}
	return value
}
