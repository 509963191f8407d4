package kurubind

import (
	"context"
	"reflect"

	"github.com/samber/mo"

	"github.com/elialm7/kurubind/executor"
	"github.com/elialm7/kurubind/mapper"
)

// Query runs a caller-written statement and maps each row onto T by column
// name. Projection types are first-class here.
func Query[T any](ctx context.Context, db *DB, sqlText string, params ...map[string]any) ([]T, error) {
	meta, err := metaOf[T](db)
	if err != nil {
		return nil, err
	}
	db.logSQL("query", meta, sqlText)
	return collect[T](ctx, db, meta, sqlText, firstParams(params))
}

// QueryOne runs a caller-written statement expected to yield at most one row.
func QueryOne[T any](ctx context.Context, db *DB, sqlText string, params ...map[string]any) (mo.Option[T], error) {
	results, err := Query[T](ctx, db, sqlText, params...)
	if err != nil {
		return mo.None[T](), err
	}
	return first(results), nil
}

// QueryForMaps runs a caller-written statement and returns each row as a
// column-keyed map, bypassing struct mapping entirely.
func QueryForMaps(ctx context.Context, db *DB, sqlText string, params ...map[string]any) ([]map[string]any, error) {
	var out []map[string]any
	err := db.exec.WithHandle(ctx, func(h executor.Handle) error {
		rows, err := h.Query(ctx, sqlText, firstParams(params))
		if err != nil {
			return err
		}
		defer rows.Close()
		columns := rows.Columns()
		for rows.Next() {
			values, err := rows.Values()
			if err != nil {
				return err
			}
			row := make(map[string]any, len(columns))
			for i, column := range columns {
				row[column] = values[i]
			}
			out = append(out, row)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// QueryForMap returns the first row as a column-keyed map, if any.
func QueryForMap(ctx context.Context, db *DB, sqlText string, params ...map[string]any) (mo.Option[map[string]any], error) {
	rows, err := QueryForMaps(ctx, db, sqlText, params...)
	if err != nil {
		return mo.None[map[string]any](), err
	}
	return first(rows), nil
}

// QueryForValue reads the first column of the first row, coerced to T.
func QueryForValue[T any](ctx context.Context, db *DB, sqlText string, params ...map[string]any) (mo.Option[T], error) {
	raw, found, err := db.scalar(ctx, sqlText, firstParams(params))
	if err != nil || !found {
		return mo.None[T](), err
	}
	value, err := coerceTo[T](raw)
	if err != nil {
		return mo.None[T](), err
	}
	return mo.Some(value), nil
}

// QueryForList reads the first column of every row, coerced to T.
func QueryForList[T any](ctx context.Context, db *DB, sqlText string, params ...map[string]any) ([]T, error) {
	var out []T
	err := db.exec.WithHandle(ctx, func(h executor.Handle) error {
		rows, err := h.Query(ctx, sqlText, firstParams(params))
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			values, err := rows.Values()
			if err != nil {
				return err
			}
			if len(values) == 0 {
				continue
			}
			value, err := coerceTo[T](values[0])
			if err != nil {
				return err
			}
			out = append(out, value)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExecUpdate runs a caller-written write statement inside one transaction and
// returns the affected row count.
func ExecUpdate(ctx context.Context, db *DB, sqlText string, params ...map[string]any) (int64, error) {
	var affected int64
	err := db.exec.InTransaction(ctx, func(h executor.Handle) error {
		n, err := h.Exec(ctx, sqlText, firstParams(params))
		affected = n
		return err
	})
	return affected, err
}

// ExecBatch runs the same statement once per parameter set, all inside one
// transaction, and returns the per-statement affected counts.
func ExecBatch(ctx context.Context, db *DB, sqlText string, batch []map[string]any) ([]int64, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	counts := make([]int64, 0, len(batch))
	err := db.exec.InTransaction(ctx, func(h executor.Handle) error {
		for _, params := range batch {
			n, err := h.Exec(ctx, sqlText, params)
			if err != nil {
				return err
			}
			counts = append(counts, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// Page is one window of a paginated result set. Page numbers are 1-based.
type Page[T any] struct {
	Results       []T
	Page          int
	PageSize      int
	TotalElements int64
	TotalPages    int64
}

// HasNext reports whether a later page exists.
func (p *Page[T]) HasNext() bool {
	return int64(p.Page) < p.TotalPages
}

// HasPrevious reports whether an earlier page exists.
func (p *Page[T]) HasPrevious() bool {
	return p.Page > 1
}

func newPage[T any](results []T, page, pageSize int, total int64) *Page[T] {
	totalPages := int64(0)
	if pageSize > 0 {
		totalPages = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	return &Page[T]{
		Results:       results,
		Page:          page,
		PageSize:      pageSize,
		TotalElements: total,
		TotalPages:    totalPages,
	}
}

// QueryPage loads one window of the mapped table with its total count.
func QueryPage[T any](ctx context.Context, db *DB, page, pageSize int) (*Page[T], error) {
	meta, err := metaOf[T](db)
	if err != nil {
		return nil, err
	}
	return QueryPageSQL[T](ctx, db, db.generator().Select(meta), nil, page, pageSize)
}

// QueryPageSQL paginates a caller-written statement: the statement is wrapped
// in a COUNT(*) subquery for the total, then re-run with the dialect's
// pagination clause and bound limit and offset.
func QueryPageSQL[T any](ctx context.Context, db *DB, sqlText string, params map[string]any, page, pageSize int) (*Page[T], error) {
	total, err := pageTotal(ctx, db, sqlText, params)
	if err != nil {
		return nil, err
	}
	results, err := Query[T](ctx, db, db.generator().Paginate(sqlText), pageParams(params, page, pageSize))
	if err != nil {
		return nil, err
	}
	return newPage(results, page, pageSize, total), nil
}

// QueryPageForMaps is QueryPageSQL for column-keyed maps.
func QueryPageForMaps(ctx context.Context, db *DB, sqlText string, params map[string]any, page, pageSize int) (*Page[map[string]any], error) {
	total, err := pageTotal(ctx, db, sqlText, params)
	if err != nil {
		return nil, err
	}
	results, err := QueryForMaps(ctx, db, db.generator().Paginate(sqlText), pageParams(params, page, pageSize))
	if err != nil {
		return nil, err
	}
	return newPage(results, page, pageSize, total), nil
}

func pageTotal(ctx context.Context, db *DB, sqlText string, params map[string]any) (int64, error) {
	countSQL := "SELECT COUNT(*) FROM (" + sqlText + ") AS count_query"
	total, err := QueryForValue[int64](ctx, db, countSQL, params)
	if err != nil {
		return 0, err
	}
	return total.OrElse(0), nil
}

func pageParams(params map[string]any, page, pageSize int) map[string]any {
	merged := make(map[string]any, len(params)+2)
	for k, v := range params {
		merged[k] = v
	}
	merged["limit"] = pageSize
	merged["offset"] = (page - 1) * pageSize
	return merged
}

func firstParams(params []map[string]any) map[string]any {
	if len(params) == 0 {
		return nil
	}
	return params[0]
}

func coerceTo[T any](raw any) (T, error) {
	var zero T
	coerced, err := mapper.Coerce(raw, reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}
	if coerced == nil {
		return zero, nil
	}
	return coerced.(T), nil
}
