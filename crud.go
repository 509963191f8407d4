package kurubind

import (
	"context"
	"fmt"
	"reflect"

	"github.com/samber/mo"

	"github.com/elialm7/kurubind/executor"
	"github.com/elialm7/kurubind/generate"
	"github.com/elialm7/kurubind/mapper"
	"github.com/elialm7/kurubind/schema"
)

// Insert persists one entity. Defaults and generated values are applied to
// the instance first, then every validator runs; a generated key is read back
// into the ID field when the type declares one.
func Insert[T any](ctx context.Context, db *DB, entity *T) error {
	meta, err := metaOf[T](db)
	if err != nil {
		return err
	}
	if err := rejectQueryOnly(meta, "insert"); err != nil {
		return err
	}
	args, sqlText, err := db.prepareInsert(meta, entity)
	if err != nil {
		return err
	}
	db.logSQL("insert", meta, sqlText)
	return db.exec.InTransaction(ctx, func(h executor.Handle) error {
		return db.insertOne(ctx, h, meta, sqlText, args, entity)
	})
}

// InsertAll persists a batch in one transaction. Every item is prepared and
// validated before any statement runs; when any item fails, a BatchError is
// returned and nothing is written.
func InsertAll[T any](ctx context.Context, db *DB, entities []*T) error {
	if len(entities) == 0 {
		return nil
	}
	meta, err := metaOf[T](db)
	if err != nil {
		return err
	}
	if err := rejectQueryOnly(meta, "insert"); err != nil {
		return err
	}

	batch := &BatchError{}
	prepared := make([]map[string]any, len(entities))
	var sqlText string
	for i, entity := range entities {
		args, text, err := db.prepareInsert(meta, entity)
		if err != nil {
			batch.add(i, err)
			continue
		}
		prepared[i] = args
		sqlText = text
	}
	if batch.hasErrors() {
		return batch
	}

	db.logSQL("insert_all", meta, sqlText)
	return db.exec.InTransaction(ctx, func(h executor.Handle) error {
		for i, args := range prepared {
			if err := db.insertOne(ctx, h, meta, sqlText, args, entities[i]); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		return nil
	})
}

// prepareInsert runs the pre-write pipeline for one entity and renders the
// insert statement with its bound arguments.
func (db *DB) prepareInsert(meta *schema.Metadata, entity any) (map[string]any, string, error) {
	if err := generate.Apply(entity, meta, db.reg.Generators, generate.ModeInsert); err != nil {
		return nil, "", err
	}
	if err := db.validate(meta, entity); err != nil {
		return nil, "", err
	}
	fields := meta.InsertableFields()
	args, err := db.mapperFor(meta).BindArgs(entity, fields)
	if err != nil {
		return nil, "", err
	}
	return args, db.generator().Insert(meta, fields), nil
}

func (db *DB) insertOne(ctx context.Context, h executor.Handle, meta *schema.Metadata, sqlText string, args map[string]any, entity any) error {
	if !meta.HasAutoID() {
		_, err := h.Exec(ctx, sqlText, args)
		return err
	}
	var raw any
	var err error
	if db.generator().ReturnsInsertID(meta) {
		raw, err = h.ExecReturning(ctx, sqlText, args)
	} else {
		raw, err = h.ExecLastID(ctx, sqlText, args)
	}
	if err != nil {
		return err
	}
	id, err := mapper.Coerce(raw, meta.ID.Type)
	if err != nil {
		return fmt.Errorf("reading generated id for %s: %w", meta.Type, err)
	}
	return meta.ID.SetValue(entity, id)
}

// Update rewrites every non-ID column of one entity, keyed by its ID. The
// same pre-write pipeline as Insert runs first, in update mode.
func Update[T any](ctx context.Context, db *DB, entity *T) error {
	meta, err := metaOf[T](db)
	if err != nil {
		return err
	}
	if err := rejectQueryOnly(meta, "update"); err != nil {
		return err
	}
	if err := requireID(meta, "update"); err != nil {
		return err
	}
	args, sqlText, err := db.prepareUpdate(meta, entity)
	if err != nil {
		return err
	}
	db.logSQL("update", meta, sqlText)
	return db.exec.InTransaction(ctx, func(h executor.Handle) error {
		_, err := h.Exec(ctx, sqlText, args)
		return err
	})
}

// UpdateAll rewrites a batch in one transaction, with the same
// validate-everything-first contract as InsertAll.
func UpdateAll[T any](ctx context.Context, db *DB, entities []*T) error {
	if len(entities) == 0 {
		return nil
	}
	meta, err := metaOf[T](db)
	if err != nil {
		return err
	}
	if err := rejectQueryOnly(meta, "update"); err != nil {
		return err
	}
	if err := requireID(meta, "update"); err != nil {
		return err
	}

	batch := &BatchError{}
	prepared := make([]map[string]any, len(entities))
	var sqlText string
	for i, entity := range entities {
		args, text, err := db.prepareUpdate(meta, entity)
		if err != nil {
			batch.add(i, err)
			continue
		}
		prepared[i] = args
		sqlText = text
	}
	if batch.hasErrors() {
		return batch
	}

	db.logSQL("update_all", meta, sqlText)
	return db.exec.InTransaction(ctx, func(h executor.Handle) error {
		for i, args := range prepared {
			if _, err := h.Exec(ctx, sqlText, args); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		return nil
	})
}

func (db *DB) prepareUpdate(meta *schema.Metadata, entity any) (map[string]any, string, error) {
	if err := generate.Apply(entity, meta, db.reg.Generators, generate.ModeUpdate); err != nil {
		return nil, "", err
	}
	if err := db.validate(meta, entity); err != nil {
		return nil, "", err
	}
	// Bind every field: the non-ID columns feed SET, the ID feeds WHERE.
	args, err := db.mapperFor(meta).BindArgs(entity, meta.Fields)
	if err != nil {
		return nil, "", err
	}
	return args, db.generator().Update(meta, meta.NonIDFields()), nil
}

// Delete removes one entity by its ID field.
func Delete[T any](ctx context.Context, db *DB, entity *T) error {
	meta, err := metaOf[T](db)
	if err != nil {
		return err
	}
	if err := rejectQueryOnly(meta, "delete"); err != nil {
		return err
	}
	if err := requireID(meta, "delete"); err != nil {
		return err
	}
	return DeleteByID[T](ctx, db, meta.ID.Value(entity))
}

// DeleteAll removes a batch in one transaction.
func DeleteAll[T any](ctx context.Context, db *DB, entities []*T) error {
	meta, err := metaOf[T](db)
	if err != nil {
		return err
	}
	if err := rejectQueryOnly(meta, "delete"); err != nil {
		return err
	}
	if err := requireID(meta, "delete"); err != nil {
		return err
	}
	ids := make([]any, len(entities))
	for i, entity := range entities {
		ids[i] = meta.ID.Value(entity)
	}
	return DeleteByIDs[T](ctx, db, ids)
}

// DeleteByID removes the row with the given identifier.
func DeleteByID[T any](ctx context.Context, db *DB, id any) error {
	meta, err := metaOf[T](db)
	if err != nil {
		return err
	}
	if err := rejectQueryOnly(meta, "delete"); err != nil {
		return err
	}
	if err := requireID(meta, "delete"); err != nil {
		return err
	}
	sqlText := db.generator().Delete(meta)
	db.logSQL("delete", meta, sqlText)
	return db.exec.InTransaction(ctx, func(h executor.Handle) error {
		_, err := h.Exec(ctx, sqlText, map[string]any{meta.ID.Column: id})
		return err
	})
}

// DeleteByIDs removes the rows with the given identifiers in one transaction.
func DeleteByIDs[T any](ctx context.Context, db *DB, ids []any) error {
	if len(ids) == 0 {
		return nil
	}
	meta, err := metaOf[T](db)
	if err != nil {
		return err
	}
	if err := rejectQueryOnly(meta, "delete"); err != nil {
		return err
	}
	if err := requireID(meta, "delete"); err != nil {
		return err
	}
	sqlText := db.generator().Delete(meta)
	db.logSQL("delete_by_ids", meta, sqlText)
	return db.exec.InTransaction(ctx, func(h executor.Handle) error {
		for i, id := range ids {
			if _, err := h.Exec(ctx, sqlText, map[string]any{meta.ID.Column: id}); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		return nil
	})
}

// FindAll loads every row of the mapped table.
func FindAll[T any](ctx context.Context, db *DB) ([]T, error) {
	meta, err := metaOf[T](db)
	if err != nil {
		return nil, err
	}
	sqlText := db.generator().Select(meta)
	db.logSQL("find_all", meta, sqlText)
	return collect[T](ctx, db, meta, sqlText, nil)
}

// FindAllLimit loads at most limit rows.
func FindAllLimit[T any](ctx context.Context, db *DB, limit int) ([]T, error) {
	return FindAllLimitOffset[T](ctx, db, limit, 0)
}

// FindAllLimitOffset loads a window of rows, binding the limit and offset as
// named parameters of the dialect's pagination clause.
func FindAllLimitOffset[T any](ctx context.Context, db *DB, limit, offset int) ([]T, error) {
	meta, err := metaOf[T](db)
	if err != nil {
		return nil, err
	}
	gen := db.generator()
	sqlText := gen.Paginate(gen.Select(meta))
	db.logSQL("find_all_limit_offset", meta, sqlText)
	return collect[T](ctx, db, meta, sqlText, map[string]any{"limit": limit, "offset": offset})
}

// FindByID loads the row with the given identifier. An absent row is
// mo.None, not an error.
func FindByID[T any](ctx context.Context, db *DB, id any) (mo.Option[T], error) {
	meta, err := metaOf[T](db)
	if err != nil {
		return mo.None[T](), err
	}
	if err := requireID(meta, "find by id"); err != nil {
		return mo.None[T](), err
	}
	sqlText := db.generator().SelectByID(meta)
	db.logSQL("find_by_id", meta, sqlText)
	results, err := collect[T](ctx, db, meta, sqlText, map[string]any{meta.ID.Column: id})
	if err != nil {
		return mo.None[T](), err
	}
	return first(results), nil
}

// FindAllByIDs loads the rows with the given identifiers, skipping absent
// ones.
func FindAllByIDs[T any](ctx context.Context, db *DB, ids []any) ([]T, error) {
	results := make([]T, 0, len(ids))
	for _, id := range ids {
		found, err := FindByID[T](ctx, db, id)
		if err != nil {
			return nil, err
		}
		if entity, ok := found.Get(); ok {
			results = append(results, entity)
		}
	}
	return results, nil
}

// FindFirst loads the first row of the mapped table, if any.
func FindFirst[T any](ctx context.Context, db *DB) (mo.Option[T], error) {
	results, err := FindAllLimit[T](ctx, db, 1)
	if err != nil {
		return mo.None[T](), err
	}
	return first(results), nil
}

// Exists reports whether a row with the given identifier exists.
func Exists[T any](ctx context.Context, db *DB, id any) (bool, error) {
	meta, err := metaOf[T](db)
	if err != nil {
		return false, err
	}
	if err := requireID(meta, "probe"); err != nil {
		return false, err
	}
	sqlText := db.generator().ExistsByID(meta)
	db.logSQL("exists", meta, sqlText)
	raw, found, err := db.scalar(ctx, sqlText, map[string]any{meta.ID.Column: id})
	if err != nil || !found {
		return false, err
	}
	return truthy(raw), nil
}

// Count returns the number of rows in the mapped table.
func Count[T any](ctx context.Context, db *DB) (int64, error) {
	meta, err := metaOf[T](db)
	if err != nil {
		return 0, err
	}
	if err := rejectQueryOnly(meta, "count"); err != nil {
		return 0, err
	}
	sqlText := db.generator().Count(meta)
	db.logSQL("count", meta, sqlText)
	raw, found, err := db.scalar(ctx, sqlText, nil)
	if err != nil || !found {
		return 0, err
	}
	count, err := mapper.Coerce(raw, int64Type)
	if err != nil {
		return 0, err
	}
	return count.(int64), nil
}

// collect streams a result set into mapped values.
func collect[T any](ctx context.Context, db *DB, meta *schema.Metadata, sqlText string, args map[string]any) ([]T, error) {
	mp := db.mapperFor(meta)
	var out []T
	err := db.exec.WithHandle(ctx, func(h executor.Handle) error {
		rows, err := h.Query(ctx, sqlText, args)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			values, err := rows.Values()
			if err != nil {
				return err
			}
			var item T
			if err := mp.MapInto(&item, rows.Columns(), values); err != nil {
				return err
			}
			out = append(out, item)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// scalar reads the first column of the first row, reporting absence.
func (db *DB) scalar(ctx context.Context, sqlText string, args map[string]any) (any, bool, error) {
	var raw any
	var found bool
	err := db.exec.WithHandle(ctx, func(h executor.Handle) error {
		rows, err := h.Query(ctx, sqlText, args)
		if err != nil {
			return err
		}
		defer rows.Close()
		if rows.Next() {
			values, err := rows.Values()
			if err != nil {
				return err
			}
			if len(values) > 0 {
				raw = values[0]
				found = true
			}
		}
		return rows.Err()
	})
	return raw, found, err
}

func first[T any](results []T) mo.Option[T] {
	if len(results) == 0 {
		return mo.None[T]()
	}
	return mo.Some(results[0])
}

func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case int:
		return v != 0
	case []byte:
		return len(v) > 0 && v[0] != '0'
	case string:
		return v != "" && v != "0" && v != "false"
	default:
		return false
	}
}

var int64Type = reflectTypeOf[int64]()

func reflectTypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
