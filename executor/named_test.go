package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewriteNamed(t *testing.T) {
	args := map[string]any{"name": "gear", "price": 9.95, "id": int64(7)}

	tests := []struct {
		name      string
		query     string
		style     BindStyle
		wantSQL   string
		wantCount int
	}{
		{
			name:      "question style",
			query:     "INSERT INTO product (name, price) VALUES (:name, :price)",
			style:     BindQuestion,
			wantSQL:   "INSERT INTO product (name, price) VALUES (?, ?)",
			wantCount: 2,
		},
		{
			name:      "dollar style",
			query:     "UPDATE product SET name = :name, price = :price WHERE id = :id",
			style:     BindDollar,
			wantSQL:   "UPDATE product SET name = $1, price = $2 WHERE id = $3",
			wantCount: 3,
		},
		{
			name:      "at style",
			query:     "SELECT * FROM product WHERE id = :id",
			style:     BindAt,
			wantSQL:   "SELECT * FROM product WHERE id = @p1",
			wantCount: 1,
		},
		{
			name:      "no placeholders",
			query:     "SELECT COUNT(*) FROM product",
			style:     BindDollar,
			wantSQL:   "SELECT COUNT(*) FROM product",
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sqlText, values, err := rewriteNamed(tt.query, tt.style, args)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sqlText)
			assert.Len(t, values, tt.wantCount)
		})
	}
}

func TestRewriteNamedOrdersValues(t *testing.T) {
	sqlText, values, err := rewriteNamed(
		"SELECT * FROM t WHERE a = :second AND b = :first",
		BindDollar,
		map[string]any{"first": 1, "second": 2},
	)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", sqlText)
	assert.Equal(t, []any{2, 1}, values)
}

func TestRewriteNamedRepeatedPlaceholder(t *testing.T) {
	sqlText, values, err := rewriteNamed(
		"SELECT * FROM t WHERE a = :x OR b = :x",
		BindDollar,
		map[string]any{"x": 5},
	)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 OR b = $2", sqlText)
	assert.Equal(t, []any{5, 5}, values)
}

func TestRewriteNamedIgnoresQuotedRuns(t *testing.T) {
	sqlText, values, err := rewriteNamed(
		`SELECT ':not_a_param', ":also_not" FROM t WHERE id = :id`,
		BindQuestion,
		map[string]any{"id": 1},
	)
	require.NoError(t, err)
	assert.Equal(t, `SELECT ':not_a_param', ":also_not" FROM t WHERE id = ?`, sqlText)
	assert.Equal(t, []any{1}, values)
}

func TestRewriteNamedIgnoresCasts(t *testing.T) {
	sqlText, values, err := rewriteNamed(
		"SELECT data::jsonb FROM t WHERE id = :id",
		BindDollar,
		map[string]any{"id": 1},
	)
	require.NoError(t, err)
	assert.Equal(t, "SELECT data::jsonb FROM t WHERE id = $1", sqlText)
	assert.Len(t, values, 1)
}

func TestRewriteNamedMissingArg(t *testing.T) {
	_, _, err := rewriteNamed("SELECT * FROM t WHERE id = :id", BindQuestion, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no value bound for placeholder :id")
}
