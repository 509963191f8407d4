package kurubind

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elialm7/kurubind/sqlgen"
)

func TestQueryMapsRowsOntoType(t *testing.T) {
	db, mock := newTestDB(t, sqlgen.ANSI)

	mock.ExpectQuery("SELECT * FROM product WHERE price > ?").
		WithArgs(5.0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price"}).
			AddRow(int64(1), "gear", 9.95))

	rows, err := Query[Product](context.Background(), db,
		"SELECT * FROM product WHERE price > :min",
		map[string]any{"min": 5.0})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 9.95, rows[0].Price)
}

func TestQueryOne(t *testing.T) {
	db, mock := newTestDB(t, sqlgen.ANSI)

	mock.ExpectQuery("SELECT * FROM product WHERE name = ?").
		WithArgs("gear").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price"}))

	found, err := QueryOne[Product](context.Background(), db,
		"SELECT * FROM product WHERE name = :name",
		map[string]any{"name": "gear"})
	require.NoError(t, err)
	assert.True(t, found.IsAbsent())
}

func TestQueryForMaps(t *testing.T) {
	db, mock := newTestDB(t, sqlgen.ANSI)

	mock.ExpectQuery("SELECT name, COUNT(*) AS n FROM product GROUP BY name").
		WillReturnRows(sqlmock.NewRows([]string{"name", "n"}).
			AddRow("gear", int64(3)).
			AddRow("cog", int64(1)))

	rows, err := QueryForMaps(context.Background(), db,
		"SELECT name, COUNT(*) AS n FROM product GROUP BY name")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "gear", rows[0]["name"])
	assert.Equal(t, int64(3), rows[0]["n"])
}

func TestQueryForValue(t *testing.T) {
	db, mock := newTestDB(t, sqlgen.ANSI)

	mock.ExpectQuery("SELECT MAX(price) FROM product").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(9.95))

	max, err := QueryForValue[float64](context.Background(), db, "SELECT MAX(price) FROM product")
	require.NoError(t, err)
	assert.Equal(t, 9.95, max.OrElse(0))

	mock.ExpectQuery("SELECT MAX(price) FROM product").
		WillReturnRows(sqlmock.NewRows([]string{"max"}))

	absent, err := QueryForValue[float64](context.Background(), db, "SELECT MAX(price) FROM product")
	require.NoError(t, err)
	assert.True(t, absent.IsAbsent())
}

func TestQueryForList(t *testing.T) {
	db, mock := newTestDB(t, sqlgen.ANSI)

	mock.ExpectQuery("SELECT name FROM product").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).
			AddRow("gear").
			AddRow("cog"))

	names, err := QueryForList[string](context.Background(), db, "SELECT name FROM product")
	require.NoError(t, err)
	assert.Equal(t, []string{"gear", "cog"}, names)
}

func TestExecUpdate(t *testing.T) {
	db, mock := newTestDB(t, sqlgen.ANSI)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE product SET price = price * ?").
		WithArgs(1.1).
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectCommit()

	affected, err := ExecUpdate(context.Background(), db,
		"UPDATE product SET price = price * :factor",
		map[string]any{"factor": 1.1})
	require.NoError(t, err)
	assert.Equal(t, int64(5), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecBatchSingleTransaction(t *testing.T) {
	db, mock := newTestDB(t, sqlgen.ANSI)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE product SET price = ? WHERE id = ?").
		WithArgs(1.0, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE product SET price = ? WHERE id = ?").
		WithArgs(2.0, int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	counts, err := ExecBatch(context.Background(), db,
		"UPDATE product SET price = :price WHERE id = :id",
		[]map[string]any{
			{"price": 1.0, "id": int64(1)},
			{"price": 2.0, "id": int64(2)},
		})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 1}, counts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryPage(t *testing.T) {
	db, mock := newTestDB(t, sqlgen.ANSI)

	mock.ExpectQuery("SELECT COUNT(*) FROM (SELECT * FROM product) AS count_query").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(12)))
	mock.ExpectQuery("SELECT * FROM product LIMIT ? OFFSET ?").
		WithArgs(5, 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price"}).
			AddRow(int64(6), "gear", 1.0))

	page, err := QueryPage[Product](context.Background(), db, 2, 5)
	require.NoError(t, err)

	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 5, page.PageSize)
	assert.Equal(t, int64(12), page.TotalElements)
	assert.Equal(t, int64(3), page.TotalPages)
	assert.True(t, page.HasNext())
	assert.True(t, page.HasPrevious())
	require.Len(t, page.Results, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryPageSQLKeepsCallerParams(t *testing.T) {
	db, mock := newTestDB(t, sqlgen.ANSI)

	mock.ExpectQuery("SELECT COUNT(*) FROM (SELECT * FROM product WHERE price > ?) AS count_query").
		WithArgs(5.0).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT * FROM product WHERE price > ? LIMIT ? OFFSET ?").
		WithArgs(5.0, 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price"}).
			AddRow(int64(1), "gear", 9.95))

	page, err := QueryPageSQL[Product](context.Background(), db,
		"SELECT * FROM product WHERE price > :min",
		map[string]any{"min": 5.0}, 1, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(1), page.TotalElements)
	assert.False(t, page.HasNext())
	assert.False(t, page.HasPrevious())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryPageForMaps(t *testing.T) {
	db, mock := newTestDB(t, sqlgen.ANSI)

	mock.ExpectQuery("SELECT COUNT(*) FROM (SELECT name FROM product) AS count_query").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT name FROM product LIMIT ? OFFSET ?").
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("gear"))

	page, err := QueryPageForMaps(context.Background(), db, "SELECT name FROM product", nil, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "gear", page.Results[0]["name"])
}

func TestQueryRejectsNonStructType(t *testing.T) {
	db, _ := newTestDB(t, sqlgen.ANSI)

	_, err := Query[int](context.Background(), db, "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-struct")
}
