package sqlgen

import (
	"fmt"

	"github.com/elialm7/kurubind/schema"
)

// NewPostgres returns the PostgreSQL generator: double-quoted identifiers and
// RETURNING on inserts with a database-generated identifier.
func NewPostgres() *Ansi {
	return &Ansi{
		QuoteFunc:       func(id string) string { return `"` + id + `"` },
		InsertReturning: true,
	}
}

// NewMySQL returns the MySQL generator: backtick-quoted identifiers, generated
// keys read back through the driver.
func NewMySQL() *Ansi {
	return &Ansi{
		QuoteFunc: func(id string) string { return "`" + id + "`" },
	}
}

// NewSQLite returns the SQLite generator: double-quoted identifiers, generated
// keys read back through the driver.
func NewSQLite() *Ansi {
	return &Ansi{
		QuoteFunc: func(id string) string { return `"` + id + `"` },
	}
}

// SQLServerGenerator is the SQL Server variant: bracket quoting, OFFSET/FETCH
// pagination, and a CASE-wrapped existence probe since EXISTS is not a
// selectable expression there.
type SQLServerGenerator struct {
	*Ansi
}

// NewSQLServer returns the SQL Server generator.
func NewSQLServer() *SQLServerGenerator {
	return &SQLServerGenerator{
		Ansi: &Ansi{
			QuoteFunc: func(id string) string { return "[" + id + "]" },
			// OFFSET/FETCH requires an ORDER BY in the statement it extends.
			PaginateFunc: func(sql string) string {
				return sql + " OFFSET :offset ROWS FETCH NEXT :limit ROWS ONLY"
			},
		},
	}
}

// ExistsByID renders the probe as a selectable CASE expression.
func (g *SQLServerGenerator) ExistsByID(meta *schema.Metadata) string {
	return fmt.Sprintf("SELECT CASE WHEN EXISTS(SELECT 1 FROM %s WHERE %s) THEN 1 ELSE 0 END",
		g.tableName(meta), g.whereID(meta))
}
