// Package schema provides the metadata model for mapped types: table identity,
// field mapping, declarative tags, and the reflection-based extractor and cache
// that build metadata exactly once per type.
package schema

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Projection marks a mapped type as query-only. Embed it in a struct and write
// operations will reject the type while read operations keep working.
//
//	type UserSummary struct {
//		schema.Projection
//		Name  string `db:"name"`
//		Total int64  `db:"total"`
//	}
type Projection struct{}

// Tabler lets a mapped type override the default snake_case table name.
type Tabler interface {
	TableName() string
}

// Schemer lets a mapped type declare an optional database schema.
type Schemer interface {
	SchemaName() string
}

// Tag is one declarative tag occurrence on a field. Name keys the validator and
// converter registries; Args holds the tag's parameters ("value" for the
// inline `name=value` form, flags as "true").
type Tag struct {
	Name string
	Args map[string]string
}

// Arg returns a tag parameter and whether it was present.
func (t Tag) Arg(key string) (string, bool) {
	v, ok := t.Args[key]
	return v, ok
}

// GeneratorConfig describes one generated-value rule attached to a field.
type GeneratorConfig struct {
	Name     string
	OnInsert bool
	OnUpdate bool
}

// Field describes one persisted struct field.
type Field struct {
	Name   string
	Column string
	Index  []int
	Type   reflect.Type

	IsID   bool
	IsAuto bool

	// Tags is the resolved declarative tag list in declaration order, with
	// composed tags expanded and deduplicated by name (first occurrence wins).
	Tags []Tag

	DefaultLiteral   string
	DefaultGenerator string
	HasDefault       bool

	Generators []GeneratorConfig
}

// HasTag reports whether the field carries a tag with the given name.
func (f *Field) HasTag(name string) bool {
	for _, t := range f.Tags {
		if t.Name == name {
			return true
		}
	}
	return false
}

// TagArg returns the inline value of the named tag ("min=0" -> "0").
func (f *Field) TagArg(name string) (string, bool) {
	for _, t := range f.Tags {
		if t.Name == name {
			return t.Arg("value")
		}
	}
	return "", false
}

// Value reads the field's current value from an instance. The instance may be
// a struct or a pointer to one.
func (f *Field) Value(instance any) any {
	v := reflect.ValueOf(instance)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	return v.FieldByIndex(f.Index).Interface()
}

// SetValue mutates the field on an instance in place. The instance must be a
// pointer to a struct. The value must be assignable or numerically convertible
// to the field's type; nil sets the zero value.
func (f *Field) SetValue(instance any, value any) error {
	v := reflect.ValueOf(instance)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return fmt.Errorf("cannot set field %s: instance must be a non-nil pointer", f.Name)
	}
	fv := v.Elem().FieldByIndex(f.Index)
	if value == nil {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}
	rv := reflect.ValueOf(value)
	switch {
	case rv.Type().AssignableTo(fv.Type()):
		fv.Set(rv)
	case rv.Type().ConvertibleTo(fv.Type()) && isScalarKind(rv.Kind()) && isScalarKind(fv.Kind()):
		fv.Set(rv.Convert(fv.Type()))
	case fv.Kind() == reflect.Pointer && rv.Type().AssignableTo(fv.Type().Elem()):
		p := reflect.New(fv.Type().Elem())
		p.Elem().Set(rv)
		fv.Set(p)
	default:
		return fmt.Errorf("cannot assign %v (%s) to field %s (%s)", value, rv.Type(), f.Name, fv.Type())
	}
	return nil
}

func isScalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String:
		return true
	}
	return false
}

// Metadata describes one mapped type. Immutable after construction.
type Metadata struct {
	Type      reflect.Type
	Table     string
	Schema    string
	Fields    []*Field
	ID        *Field
	QueryOnly bool

	byColumn map[string]*Field
}

// FullTableName returns "schema.table" or just "table".
func (m *Metadata) FullTableName() string {
	if m.Schema == "" {
		return m.Table
	}
	return m.Schema + "." + m.Table
}

// HasID reports whether the type declares an identifier field.
func (m *Metadata) HasID() bool {
	return m.ID != nil
}

// HasAutoID reports whether the identifier is database-generated.
func (m *Metadata) HasAutoID() bool {
	return m.ID != nil && m.ID.IsAuto
}

// InsertableFields returns the fields bound on INSERT. The identifier is
// excluded when the database generates it.
func (m *Metadata) InsertableFields() []*Field {
	fields := make([]*Field, 0, len(m.Fields))
	for _, f := range m.Fields {
		if f.IsID && m.HasAutoID() {
			continue
		}
		fields = append(fields, f)
	}
	return fields
}

// NonIDFields returns every field except the identifier.
func (m *Metadata) NonIDFields() []*Field {
	fields := make([]*Field, 0, len(m.Fields))
	for _, f := range m.Fields {
		if f.IsID {
			continue
		}
		fields = append(fields, f)
	}
	return fields
}

// FieldByColumn looks a field up by column name, case-insensitively.
func (m *Metadata) FieldByColumn(column string) (*Field, bool) {
	f, ok := m.byColumn[strings.ToLower(column)]
	return f, ok
}

var timeType = reflect.TypeOf(time.Time{})

// IsAbsent reports whether a value counts as unset for default-value
// resolution: nil for nillable kinds, or a zero time.Time. Non-pointer scalars
// are never absent.
func IsAbsent(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	if v.Type() == timeType {
		return value.(time.Time).IsZero()
	}
	return false
}
