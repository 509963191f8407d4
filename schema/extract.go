package schema

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

var projectionType = reflect.TypeOf(Projection{})

// Extract builds Metadata for a struct type. Malformed tag combinations fail
// here, at construction time, not on first use of the affected field.
func Extract(t reflect.Type, tags *TagRegistry) (*Metadata, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("kurubind: cannot map non-struct type %s", t)
	}

	meta := &Metadata{
		Type:     t,
		Table:    toSnakeCase(t.Name()),
		byColumn: make(map[string]*Field),
	}

	probe := reflect.New(t).Interface()
	if tabler, ok := probe.(Tabler); ok {
		meta.Table = tabler.TableName()
	}
	if schemer, ok := probe.(Schemer); ok {
		meta.Schema = schemer.SchemaName()
	}

	if err := collectFields(t, nil, tags, meta); err != nil {
		return nil, err
	}

	for _, f := range meta.Fields {
		if _, dup := meta.byColumn[strings.ToLower(f.Column)]; dup {
			return nil, fmt.Errorf("kurubind: duplicate column %q on type %s", f.Column, t)
		}
		meta.byColumn[strings.ToLower(f.Column)] = f
	}
	return meta, nil
}

func collectFields(t reflect.Type, index []int, tags *TagRegistry, meta *Metadata) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		fieldIndex := append(append([]int(nil), index...), i)

		if sf.Anonymous {
			if sf.Type == projectionType {
				meta.QueryOnly = true
				continue
			}
			embedded := sf.Type
			for embedded.Kind() == reflect.Pointer {
				embedded = embedded.Elem()
			}
			if embedded.Kind() == reflect.Struct {
				if err := collectFields(embedded, fieldIndex, tags, meta); err != nil {
					return err
				}
				continue
			}
		}

		dbTag := sf.Tag.Get("db")
		kuruTag := sf.Tag.Get("kuru")

		if !sf.IsExported() {
			if dbTag != "" || kuruTag != "" {
				return fmt.Errorf("kurubind: unexported field %s.%s carries mapping tags", t, sf.Name)
			}
			continue
		}
		if dbTag == "-" {
			continue
		}

		field, err := buildField(sf, fieldIndex, dbTag, kuruTag, tags)
		if err != nil {
			return fmt.Errorf("kurubind: field %s.%s: %w", t, sf.Name, err)
		}

		if field.IsID {
			if meta.ID != nil {
				return fmt.Errorf("kurubind: type %s declares more than one id field", t)
			}
			meta.ID = field
		}
		meta.Fields = append(meta.Fields, field)
	}
	return nil
}

func buildField(sf reflect.StructField, index []int, dbTag, kuruTag string, tags *TagRegistry) (*Field, error) {
	column := dbTag
	if column == "" {
		column = toSnakeCase(sf.Name)
	}

	declared := parseTagList(kuruTag)
	field := &Field{
		Name:   sf.Name,
		Column: column,
		Index:  index,
		Type:   sf.Type,
		Tags:   tags.Resolve(declared),
	}

	for _, tag := range tags.ResolveAll(declared) {
		switch tag.Name {
		case "id":
			field.IsID = true
			if v, ok := tag.Arg("value"); ok && v == "auto" {
				field.IsAuto = true
			}
		case "default":
			if field.HasDefault {
				continue
			}
			literal, _ := tag.Arg("value")
			generator, hasGenerator := tag.Arg("generator")
			if strings.HasPrefix(literal, "generator:") {
				generator = strings.TrimPrefix(literal, "generator:")
				hasGenerator = true
				literal = ""
			}
			if literal != "" && hasGenerator {
				return nil, fmt.Errorf("default tag sets both a literal (%q) and a generator (%q)", literal, generator)
			}
			if literal == "" && !hasGenerator {
				return nil, fmt.Errorf("default tag needs a literal or a generator")
			}
			field.HasDefault = true
			field.DefaultLiteral = literal
			field.DefaultGenerator = generator
		case "generated":
			name, ok := tag.Arg("value")
			if !ok || name == "" {
				return nil, fmt.Errorf("generated tag needs a generator name")
			}
			field.Generators = append(field.Generators, GeneratorConfig{
				Name:     name,
				OnInsert: boolArg(tag, "onInsert", true),
				OnUpdate: boolArg(tag, "onUpdate", false),
			})
		}
	}
	return field, nil
}

func boolArg(tag Tag, key string, fallback bool) bool {
	raw, ok := tag.Arg(key)
	if !ok {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

// toSnakeCase converts CamelCase identifiers to snake_case, keeping acronym
// runs together ("HTTPServer" -> "http_server").
func toSnakeCase(s string) string {
	var result []rune
	runes := []rune(s)

	for i, r := range runes {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := runes[i-1]
			if prev >= 'a' && prev <= 'z' {
				result = append(result, '_')
			} else if i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z' && prev >= 'A' && prev <= 'Z' {
				result = append(result, '_')
			}
		}
		if r >= 'A' && r <= 'Z' {
			result = append(result, r+('a'-'A'))
		} else {
			result = append(result, r)
		}
	}
	return string(result)
}
