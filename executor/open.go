package executor

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "github.com/mattn/go-sqlite3"    // registers the "sqlite3" driver
)

// OpenPostgres opens a PostgreSQL database through the pgx stdlib driver and
// wraps it with dollar-style binding.
func OpenPostgres(dsn string) (*SQL, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}
	return NewSQL(db, BindDollar), nil
}

// OpenSQLite opens a SQLite database and wraps it with question-style binding.
func OpenSQLite(dsn string) (*SQL, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	return NewSQL(db, BindQuestion), nil
}
