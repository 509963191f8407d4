package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTagList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []Tag
	}{
		{
			name: "empty",
			raw:  "  ",
			want: nil,
		},
		{
			name: "bare flag",
			raw:  "notnull",
			want: []Tag{{Name: "notnull", Args: map[string]string{}}},
		},
		{
			name: "inline value",
			raw:  "min=10",
			want: []Tag{{Name: "min", Args: map[string]string{"value": "10"}}},
		},
		{
			name: "args and flags",
			raw:  "generated=timestamp;onUpdate;priority=2",
			want: []Tag{{Name: "generated", Args: map[string]string{
				"value":    "timestamp",
				"onUpdate": "true",
				"priority": "2",
			}}},
		},
		{
			name: "several tags",
			raw:  "notnull, min=0, max=100",
			want: []Tag{
				{Name: "notnull", Args: map[string]string{}},
				{Name: "min", Args: map[string]string{"value": "0"}},
				{Name: "max", Args: map[string]string{"value": "100"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseTagList(tt.raw))
		})
	}
}

func TestResolveExpandsComposedTags(t *testing.T) {
	r := NewTagRegistry()

	resolved := r.Resolve(parseTagList("updatedAt"))
	require.Len(t, resolved, 2)
	assert.Equal(t, "updatedAt", resolved[0].Name)
	assert.Equal(t, "generated", resolved[1].Name)

	v, _ := resolved[1].Arg("value")
	assert.Equal(t, "timestamp", v)
	onUpdate, _ := resolved[1].Arg("onUpdate")
	assert.Equal(t, "true", onUpdate)
}

func TestResolveNestedComposition(t *testing.T) {
	r := NewTagRegistry()
	r.Define("audited", Tag{Name: "createdAt", Args: map[string]string{}})

	resolved := r.Resolve([]Tag{{Name: "audited", Args: map[string]string{}}})
	names := make([]string, len(resolved))
	for i, tag := range resolved {
		names[i] = tag.Name
	}
	assert.Equal(t, []string{"audited", "createdAt", "generated"}, names)
}

func TestResolveFirstOccurrenceWins(t *testing.T) {
	r := NewTagRegistry()
	r.Define("strict", Tag{Name: "min", Args: map[string]string{"value": "5"}})

	resolved := r.Resolve(parseTagList("min=1, strict"))

	var min Tag
	count := 0
	for _, tag := range resolved {
		if tag.Name == "min" {
			min = tag
			count++
		}
	}
	require.Equal(t, 1, count)
	v, _ := min.Arg("value")
	assert.Equal(t, "1", v)
}

func TestResolveCyclicDefinitionTerminates(t *testing.T) {
	r := NewTagRegistry()
	r.Define("a", Tag{Name: "b", Args: map[string]string{}})
	r.Define("b", Tag{Name: "a", Args: map[string]string{}})

	resolved := r.Resolve([]Tag{{Name: "a", Args: map[string]string{}}})
	require.Len(t, resolved, 2)
	assert.Equal(t, "a", resolved[0].Name)
	assert.Equal(t, "b", resolved[1].Name)
}

func TestResolveAllKeepsRepeatedOccurrences(t *testing.T) {
	r := NewTagRegistry()

	all := r.ResolveAll(parseTagList("generated=timestamp, generated=uuid"))
	require.Len(t, all, 2)
	first, _ := all[0].Arg("value")
	second, _ := all[1].Arg("value")
	assert.Equal(t, "timestamp", first)
	assert.Equal(t, "uuid", second)
}
