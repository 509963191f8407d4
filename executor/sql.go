// Package executor is the boundary to the underlying SQL engine: it owns
// connections, transactions and statement execution, accepts queries with
// named placeholders, and hands result rows back as raw column values. The
// mapping engine above it performs no I/O of its own.
package executor

import (
	"context"
	"database/sql"
	"fmt"
)

// Handle is one unit of work bound to a connection or transaction. Args are
// keyed by placeholder name.
type Handle interface {
	// Exec runs a statement and returns the affected row count.
	Exec(ctx context.Context, query string, args map[string]any) (int64, error)
	// ExecLastID runs a statement and returns the driver-reported generated key.
	ExecLastID(ctx context.Context, query string, args map[string]any) (int64, error)
	// ExecReturning runs a statement with a return-identifier clause and
	// scans the single returned value.
	ExecReturning(ctx context.Context, query string, args map[string]any) (any, error)
	// Query runs a query and returns the result rows.
	Query(ctx context.Context, query string, args map[string]any) (*Rows, error)
}

// Executor acquires units of work. InTransaction commits when fn returns nil
// and rolls back otherwise; WithHandle runs outside any transaction scope.
type Executor interface {
	WithHandle(ctx context.Context, fn func(Handle) error) error
	InTransaction(ctx context.Context, fn func(Handle) error) error
}

// SQL implements Executor over database/sql.
type SQL struct {
	db    *sql.DB
	style BindStyle
}

// NewSQL wraps a database handle with the bind style its driver expects.
func NewSQL(db *sql.DB, style BindStyle) *SQL {
	return &SQL{db: db, style: style}
}

// DB exposes the wrapped handle for escape-hatch use.
func (s *SQL) DB() *sql.DB {
	return s.db
}

// WithHandle runs fn against the pooled connection, outside any transaction.
func (s *SQL) WithHandle(ctx context.Context, fn func(Handle) error) error {
	return fn(&sqlHandle{runner: s.db, style: s.style})
}

// InTransaction runs fn inside one transaction, committing on nil and rolling
// back on error.
func (s *SQL) InTransaction(ctx context.Context, fn func(Handle) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqlHandle{runner: tx, style: s.style}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// runner is the common surface of *sql.DB and *sql.Tx.
type runner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqlHandle struct {
	runner runner
	style  BindStyle
}

func (h *sqlHandle) Exec(ctx context.Context, query string, args map[string]any) (int64, error) {
	rewritten, values, err := rewriteNamed(query, h.style, args)
	if err != nil {
		return 0, err
	}
	result, err := h.runner.ExecContext(ctx, rewritten, values...)
	if err != nil {
		return 0, ConvertDBError(err)
	}
	// Some drivers cannot report affected rows; treat that as zero.
	affected, _ := result.RowsAffected()
	return affected, nil
}

func (h *sqlHandle) ExecLastID(ctx context.Context, query string, args map[string]any) (int64, error) {
	rewritten, values, err := rewriteNamed(query, h.style, args)
	if err != nil {
		return 0, err
	}
	result, err := h.runner.ExecContext(ctx, rewritten, values...)
	if err != nil {
		return 0, ConvertDBError(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read generated key: %w", err)
	}
	return id, nil
}

func (h *sqlHandle) ExecReturning(ctx context.Context, query string, args map[string]any) (any, error) {
	rewritten, values, err := rewriteNamed(query, h.style, args)
	if err != nil {
		return nil, err
	}
	var id any
	if err := h.runner.QueryRowContext(ctx, rewritten, values...).Scan(&id); err != nil {
		return nil, ConvertDBError(err)
	}
	return id, nil
}

func (h *sqlHandle) Query(ctx context.Context, query string, args map[string]any) (*Rows, error) {
	rewritten, values, err := rewriteNamed(query, h.style, args)
	if err != nil {
		return nil, err
	}
	rows, err := h.runner.QueryContext(ctx, rewritten, values...)
	if err != nil {
		return nil, ConvertDBError(err)
	}
	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}
	return &Rows{rows: rows, columns: columns}, nil
}

// Rows is a result set exposing column names and raw per-row values for the
// row mapper.
type Rows struct {
	rows    *sql.Rows
	columns []string
}

// Columns returns the result column names in statement order.
func (r *Rows) Columns() []string {
	return r.columns
}

// Next advances to the next row.
func (r *Rows) Next() bool {
	return r.rows.Next()
}

// Values scans the current row into raw driver values, one per column.
func (r *Rows) Values() ([]any, error) {
	values := make([]any, len(r.columns))
	targets := make([]any, len(r.columns))
	for i := range values {
		targets[i] = &values[i]
	}
	if err := r.rows.Scan(targets...); err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}
	return values, nil
}

// Err returns any error encountered during iteration.
func (r *Rows) Err() error {
	return r.rows.Err()
}

// Close releases the result set.
func (r *Rows) Close() error {
	return r.rows.Close()
}
