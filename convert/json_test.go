package convert

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elialm7/kurubind/schema"
	"github.com/elialm7/kurubind/sqlgen"
)

type settings struct {
	Theme string `json:"theme"`
	Tabs  int    `json:"tabs"`
}

type profile struct {
	Settings settings          `db:"settings" kuru:"json"`
	Labels   map[string]string `db:"labels" kuru:"json"`
}

func settingsField(t *testing.T) *schema.Field {
	t.Helper()
	meta, err := schema.Extract(reflect.TypeOf(profile{}), schema.NewTagRegistry())
	require.NoError(t, err)
	f, ok := meta.FieldByColumn("settings")
	require.True(t, ok)
	return f
}

func TestJSONWrite(t *testing.T) {
	f := settingsField(t)

	data, err := JSON{}.Write(settings{Theme: "dark", Tabs: 4}, f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"dark","tabs":4}`, string(data.([]byte)))

	data, err = JSON{}.Write(nil, f)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestJSONRead(t *testing.T) {
	f := settingsField(t)

	tests := []struct {
		name  string
		value any
	}{
		{"bytes", []byte(`{"theme":"dark","tabs":4}`)},
		{"string", `{"theme":"dark","tabs":4}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JSON{}.Read(tt.value, f)
			require.NoError(t, err)
			assert.Equal(t, settings{Theme: "dark", Tabs: 4}, got)
		})
	}

	// Non-textual values pass through untouched.
	got, err := JSON{}.Read(settings{Theme: "light"}, f)
	require.NoError(t, err)
	assert.Equal(t, settings{Theme: "light"}, got)

	_, err = JSON{}.Read([]byte(`{broken`), f)
	require.Error(t, err)
}

type upperConverter struct{ suffix string }

func (c upperConverter) Write(value any, _ *schema.Field) (any, error) {
	return value.(string) + c.suffix, nil
}

func (c upperConverter) Read(value any, _ *schema.Field) (any, error) {
	return value, nil
}

func TestRegistryDialectOverride(t *testing.T) {
	meta, err := schema.Extract(reflect.TypeOf(struct {
		Name string `db:"name" kuru:"custom"`
	}{}), schema.NewTagRegistry())
	require.NoError(t, err)
	f := meta.Fields[0]

	r := NewRegistry()
	r.Register("custom", upperConverter{suffix: "-generic"})
	r.RegisterDialect("custom", sqlgen.Postgres, upperConverter{suffix: "-pg"})

	generic := r.ForField(f, sqlgen.MySQL)
	require.Len(t, generic, 1)
	out, err := generic[0].Write("x", f)
	require.NoError(t, err)
	assert.Equal(t, "x-generic", out)

	pg := r.ForField(f, sqlgen.Postgres)
	require.Len(t, pg, 1)
	out, err = pg[0].Write("x", f)
	require.NoError(t, err)
	assert.Equal(t, "x-pg", out)
}

func TestRegistryNoMatch(t *testing.T) {
	meta, err := schema.Extract(reflect.TypeOf(struct {
		Name string `db:"name"`
	}{}), schema.NewTagRegistry())
	require.NoError(t, err)

	r := NewRegistry()
	r.Register("json", JSON{})
	assert.Empty(t, r.ForField(meta.Fields[0], sqlgen.ANSI))
}
