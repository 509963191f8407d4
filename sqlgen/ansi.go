package sqlgen

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/elialm7/kurubind/schema"
)

// Ansi is the generic SQL generator. Dialect variants customize it by setting
// the fragment hooks; a nil hook means the ANSI default. Statement shapes are
// fixed here so a variant overriding one hook changes only that fragment.
type Ansi struct {
	// PlaceholderFunc overrides the bind token for a field, for dialects that
	// need a cast suffix (":data::jsonb").
	PlaceholderFunc func(f *schema.Field) string
	// QuoteFunc quotes an identifier. Default: unquoted.
	QuoteFunc func(identifier string) string
	// PaginateFunc appends the dialect's pagination clause.
	PaginateFunc func(sql string) string
	// InsertReturning appends "RETURNING <id>" to inserts on types with a
	// database-generated identifier.
	InsertReturning bool
}

// NewAnsi returns the generic generator with all default fragments.
func NewAnsi() *Ansi {
	return &Ansi{}
}

func (g *Ansi) quote(identifier string) string {
	if g.QuoteFunc != nil {
		return g.QuoteFunc(identifier)
	}
	return identifier
}

// Placeholder returns the bind token for a field, ":column" by default.
func (g *Ansi) Placeholder(f *schema.Field) string {
	if g.PlaceholderFunc != nil {
		return g.PlaceholderFunc(f)
	}
	return ":" + f.Column
}

// Insert renders INSERT over the given field subset.
func (g *Ansi) Insert(meta *schema.Metadata, fields []*schema.Field) string {
	columns := strings.Join(lo.Map(fields, func(f *schema.Field, _ int) string {
		return g.quote(f.Column)
	}), ", ")
	placeholders := strings.Join(lo.Map(fields, func(f *schema.Field, _ int) string {
		return g.Placeholder(f)
	}), ", ")

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", g.tableName(meta), columns, placeholders)
	if g.InsertReturning && meta.HasAutoID() {
		sql += " RETURNING " + g.quote(meta.ID.Column)
	}
	return sql
}

// Update renders UPDATE SET over the non-id subset of fields with WHERE id.
func (g *Ansi) Update(meta *schema.Metadata, fields []*schema.Field) string {
	assignments := lo.FilterMap(fields, func(f *schema.Field, _ int) (string, bool) {
		if f.IsID {
			return "", false
		}
		return g.quote(f.Column) + " = " + g.Placeholder(f), true
	})
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		g.tableName(meta), strings.Join(assignments, ", "), g.whereID(meta))
}

// Delete renders DELETE with WHERE id.
func (g *Ansi) Delete(meta *schema.Metadata) string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s", g.tableName(meta), g.whereID(meta))
}

// Select renders the bulk SELECT for a type.
func (g *Ansi) Select(meta *schema.Metadata) string {
	return "SELECT * FROM " + g.tableName(meta)
}

// SelectByID renders the single-row SELECT with WHERE id.
func (g *Ansi) SelectByID(meta *schema.Metadata) string {
	return fmt.Sprintf("SELECT * FROM %s WHERE %s", g.tableName(meta), g.whereID(meta))
}

// Count renders SELECT COUNT(*).
func (g *Ansi) Count(meta *schema.Metadata) string {
	return "SELECT COUNT(*) FROM " + g.tableName(meta)
}

// ExistsByID renders an existence probe for one identifier.
func (g *Ansi) ExistsByID(meta *schema.Metadata) string {
	return fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s)", g.tableName(meta), g.whereID(meta))
}

// Paginate appends "LIMIT :limit OFFSET :offset" unless the dialect overrides
// the clause.
func (g *Ansi) Paginate(sql string) string {
	if g.PaginateFunc != nil {
		return g.PaginateFunc(sql)
	}
	return sql + " LIMIT :limit OFFSET :offset"
}

// ReturnsInsertID reports whether Insert appends a return-identifier clause
// for this metadata.
func (g *Ansi) ReturnsInsertID(meta *schema.Metadata) bool {
	return g.InsertReturning && meta.HasAutoID()
}

func (g *Ansi) tableName(meta *schema.Metadata) string {
	if meta.Schema != "" {
		return g.quote(meta.Schema) + "." + g.quote(meta.Table)
	}
	return g.quote(meta.Table)
}

func (g *Ansi) whereID(meta *schema.Metadata) string {
	return g.quote(meta.ID.Column) + " = " + g.Placeholder(meta.ID)
}
