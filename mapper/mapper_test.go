package mapper

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elialm7/kurubind/convert"
	"github.com/elialm7/kurubind/schema"
	"github.com/elialm7/kurubind/sqlgen"
)

type attrs struct {
	Color string `json:"color"`
	Size  int    `json:"size"`
}

type widget struct {
	ID    int64   `db:"id" kuru:"id=auto"`
	Name  string  `db:"name"`
	Note  *string `db:"note"`
	Attrs attrs   `db:"attrs" kuru:"json"`
}

func widgetMapper(t *testing.T) (*Mapper, *schema.Metadata) {
	t.Helper()
	meta, err := schema.Extract(reflect.TypeOf(widget{}), schema.NewTagRegistry())
	require.NoError(t, err)
	converters := convert.NewRegistry()
	converters.Register("json", convert.JSON{})
	return New(meta, converters, sqlgen.ANSI), meta
}

func TestBindArgs(t *testing.T) {
	m, meta := widgetMapper(t)
	note := "fragile"
	w := &widget{ID: 7, Name: "gear", Note: &note, Attrs: attrs{Color: "red", Size: 3}}

	args, err := m.BindArgs(w, meta.Fields)
	require.NoError(t, err)

	assert.Equal(t, int64(7), args["id"])
	assert.Equal(t, "gear", args["name"])
	assert.Equal(t, "fragile", args["note"], "pointers bind dereferenced")
	assert.JSONEq(t, `{"color":"red","size":3}`, string(args["attrs"].([]byte)))
}

func TestBindArgsNilPointer(t *testing.T) {
	m, meta := widgetMapper(t)

	args, err := m.BindArgs(&widget{Name: "gear"}, meta.Fields)
	require.NoError(t, err)
	assert.Nil(t, args["note"])
}

func TestMapInto(t *testing.T) {
	m, _ := widgetMapper(t)

	var w widget
	err := m.MapInto(&w,
		[]string{"id", "name", "note", "attrs", "unmapped"},
		[]any{int64(7), []byte("gear"), "fragile", []byte(`{"color":"red","size":3}`), "ignored"})
	require.NoError(t, err)

	assert.Equal(t, int64(7), w.ID)
	assert.Equal(t, "gear", w.Name)
	require.NotNil(t, w.Note)
	assert.Equal(t, "fragile", *w.Note)
	assert.Equal(t, attrs{Color: "red", Size: 3}, w.Attrs)
}

func TestMapIntoCaseInsensitiveColumns(t *testing.T) {
	m, _ := widgetMapper(t)

	var w widget
	require.NoError(t, m.MapInto(&w, []string{"NAME"}, []any{"gear"}))
	assert.Equal(t, "gear", w.Name)
}

func TestMapIntoMappingError(t *testing.T) {
	m, _ := widgetMapper(t)

	var w widget
	err := m.MapInto(&w, []string{"id"}, []any{time.Now()})
	require.Error(t, err)

	var mapErr *MappingError
	require.ErrorAs(t, err, &mapErr)
	assert.Equal(t, "ID", mapErr.Field)
	assert.Equal(t, reflect.TypeOf(int64(0)), mapErr.DeclaredType)
	assert.Equal(t, reflect.TypeOf(time.Time{}), mapErr.ValueType)
	assert.Contains(t, mapErr.Error(), "cannot map value")
	assert.Contains(t, mapErr.Error(), "field ID")
}

func TestCoerce(t *testing.T) {
	id := uuid.New()
	when := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		value  any
		target reflect.Type
		want   any
	}{
		{"int64 to int", int64(5), reflect.TypeOf(int(0)), int(5)},
		{"int64 to float64", int64(5), reflect.TypeOf(float64(0)), float64(5)},
		{"bytes to string", []byte("hi"), reflect.TypeOf(""), "hi"},
		{"string to bytes", "hi", reflect.TypeOf([]byte(nil)), []byte("hi")},
		{"int64 to bool", int64(1), reflect.TypeOf(false), true},
		{"string to uuid", id.String(), reflect.TypeOf(uuid.UUID{}), id},
		{"rfc3339 to time", when.Format(time.RFC3339), reflect.TypeOf(time.Time{}), when},
		{"passthrough", "x", reflect.TypeOf(""), "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.value, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoercePointerTarget(t *testing.T) {
	got, err := Coerce(int64(5), reflect.TypeOf((*int)(nil)))
	require.NoError(t, err)
	require.IsType(t, (*int)(nil), got)
	assert.Equal(t, 5, *got.(*int))

	got, err = Coerce(nil, reflect.TypeOf((*int)(nil)))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCoerceFailure(t *testing.T) {
	_, err := Coerce(time.Now(), reflect.TypeOf(int64(0)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot coerce")

	_, err = Coerce("not-a-uuid", reflect.TypeOf(uuid.UUID{}))
	require.Error(t, err)
}
