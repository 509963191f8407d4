package generate

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/elialm7/kurubind/schema"
)

// RegisterBuiltins installs the standard generators: "timestamp" and "uuid".
func RegisterBuiltins(r *Registry) {
	r.Register("timestamp", Timestamp{})
	r.Register("uuid", UUID{})
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	timePtrType = reflect.TypeOf((*time.Time)(nil))
	uuidType    = reflect.TypeOf(uuid.UUID{})
)

// Timestamp produces the current time, shaped for the target field: time.Time,
// *time.Time, or int64 unix milliseconds.
type Timestamp struct{}

// Generate implements ValueGenerator.
func (Timestamp) Generate(_ any, field *schema.Field) (any, error) {
	now := time.Now()
	switch field.Type {
	case timeType:
		return now, nil
	case timePtrType:
		return &now, nil
	}
	if field.Type.Kind() == reflect.Int64 {
		return now.UnixMilli(), nil
	}
	return nil, fmt.Errorf("timestamp generator does not support field type %s", field.Type)
}

// UUID produces a random v4 identifier, as uuid.UUID or string depending on
// the field type.
type UUID struct{}

// Generate implements ValueGenerator.
func (UUID) Generate(_ any, field *schema.Field) (any, error) {
	t := field.Type
	isPtr := t.Kind() == reflect.Pointer
	if isPtr {
		t = t.Elem()
	}

	var value any
	switch {
	case t == uuidType:
		value = uuid.New()
	case t.Kind() == reflect.String:
		value = uuid.NewString()
	default:
		return nil, fmt.Errorf("uuid generator does not support field type %s", field.Type)
	}
	if isPtr {
		p := reflect.New(t)
		p.Elem().Set(reflect.ValueOf(value).Convert(t))
		return p.Interface(), nil
	}
	return value, nil
}
