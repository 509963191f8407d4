package mapper

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
)

// Coerce converts a raw driver value into the target type. It covers the
// narrow set of shapes drivers actually produce: int64 for every integer
// width, float64, bool, []byte for text, time.Time for temporal columns, and
// string/[]byte encodings of UUIDs.
func Coerce(value any, target reflect.Type) (any, error) {
	if value == nil {
		return nil, nil
	}

	if target.Kind() == reflect.Pointer {
		inner, err := Coerce(value, target.Elem())
		if err != nil {
			return nil, err
		}
		p := reflect.New(target.Elem())
		p.Elem().Set(reflect.ValueOf(inner))
		return p.Interface(), nil
	}

	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(target) {
		return value, nil
	}

	switch target {
	case timeType:
		if t, ok := value.(time.Time); ok {
			return t, nil
		}
		if s, ok := stringValue(value); ok {
			t, err := time.Parse(time.RFC3339, s)
			if err == nil {
				return t, nil
			}
		}
	case uuidType:
		if s, ok := stringValue(value); ok {
			id, err := uuid.Parse(s)
			if err != nil {
				return nil, fmt.Errorf("invalid uuid %q: %w", s, err)
			}
			return id, nil
		}
	}

	switch target.Kind() {
	case reflect.String:
		if s, ok := stringValue(value); ok {
			return reflect.ValueOf(s).Convert(target).Interface(), nil
		}
	case reflect.Bool:
		switch n := value.(type) {
		case bool:
			return n, nil
		case int64:
			return n != 0, nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if isNumericKind(v.Kind()) {
			return v.Convert(target).Interface(), nil
		}
	case reflect.Slice:
		if target.Elem().Kind() == reflect.Uint8 {
			if s, ok := value.(string); ok {
				return []byte(s), nil
			}
		}
	}

	if v.Type().ConvertibleTo(target) && isNumericKind(v.Kind()) && isNumericKind(target.Kind()) {
		return v.Convert(target).Interface(), nil
	}
	return nil, fmt.Errorf("cannot coerce %T into %s", value, target)
}

func stringValue(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	}
	return "", false
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
