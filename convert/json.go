package convert

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/elialm7/kurubind/schema"
)

// JSON serializes a field to a JSON document on write and back on read, for
// struct/slice/map fields stored in text or json columns. Registered under the
// "json" tag by the builder.
type JSON struct{}

// Write implements Converter.
func (JSON) Write(value any, field *schema.Field) (any, error) {
	if value == nil {
		return nil, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("kurubind: cannot marshal field %s to json: %w", field.Name, err)
	}
	return data, nil
}

// Read implements Converter.
func (JSON) Read(value any, field *schema.Field) (any, error) {
	if value == nil {
		return nil, nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		// Already a decoded value; leave it for the mapper's coercion.
		return value, nil
	}

	target := reflect.New(field.Type)
	if err := json.Unmarshal(data, target.Interface()); err != nil {
		return nil, fmt.Errorf("kurubind: cannot unmarshal column %s into field %s: %w", field.Column, field.Name, err)
	}
	return target.Elem().Interface(), nil
}
