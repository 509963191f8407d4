// Package kurubind is a declarative mapping layer between plain structs and
// relational tables. Mapping metadata is derived from struct tags once per
// type, CRUD statements are generated per dialect, and a pre-write pipeline
// (value generation, validation, conversion) runs before every insert and
// update. Statement execution is delegated to the executor boundary.
package kurubind

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/elialm7/kurubind/convert"
	"github.com/elialm7/kurubind/executor"
	"github.com/elialm7/kurubind/generate"
	"github.com/elialm7/kurubind/mapper"
	"github.com/elialm7/kurubind/schema"
	"github.com/elialm7/kurubind/sqlgen"
	"github.com/elialm7/kurubind/validation"
)

// Registries groups the extension points a DB dispatches through. They are
// populated at build time and treated as read-only afterwards.
type Registries struct {
	Tags       *schema.TagRegistry
	Validators *validation.Registry
	Generators *generate.Registry
	Converters *convert.Registry
	SQL        *sqlgen.Registry
}

// Module contributes registrations at build time, the way optional plugins
// are installed.
type Module interface {
	Configure(r *Registries)
}

// ModuleFunc adapts a function to the Module interface.
type ModuleFunc func(r *Registries)

// Configure implements Module.
func (f ModuleFunc) Configure(r *Registries) {
	f(r)
}

// DB is the mapping facade. It owns the metadata cache and the registries and
// delegates statement execution to its executor. A DB is safe for concurrent
// use; each operation builds and discards its own intermediate state.
type DB struct {
	exec    executor.Executor
	dialect sqlgen.Dialect
	cache   *schema.Cache
	reg     *Registries
	log     *zap.Logger
}

// Builder assembles a DB. Options accumulate; the configuration is validated
// once, in Build.
type Builder struct {
	sqlDB    *sql.DB
	exec     executor.Executor
	dialect  sqlgen.Dialect
	logger   *zap.Logger
	modules  []Module
	tagDefs  map[string][]schema.Tag
	builtins bool
}

// NewBuilder returns a builder with built-in registrations enabled.
func NewBuilder() *Builder {
	return &Builder{
		tagDefs:  make(map[string][]schema.Tag),
		builtins: true,
	}
}

// WithDB uses a database/sql handle; the bind style is derived from the
// dialect at build time. Mutually exclusive with WithExecutor.
func (b *Builder) WithDB(db *sql.DB) *Builder {
	b.sqlDB = db
	return b
}

// WithExecutor uses a caller-provided executor. Mutually exclusive with
// WithDB.
func (b *Builder) WithExecutor(exec executor.Executor) *Builder {
	b.exec = exec
	return b
}

// WithDialect selects the SQL dialect. Defaults to ANSI.
func (b *Builder) WithDialect(d sqlgen.Dialect) *Builder {
	b.dialect = d
	return b
}

// WithLogger installs a logger for generated-SQL debug output. Defaults to a
// nop logger.
func (b *Builder) WithLogger(l *zap.Logger) *Builder {
	b.logger = l
	return b
}

// Install adds a configuration module run against the registries at build
// time.
func (b *Builder) Install(m Module) *Builder {
	if m != nil {
		b.modules = append(b.modules, m)
	}
	return b
}

// DefineTag declares a composed tag available to every mapped type.
func (b *Builder) DefineTag(name string, expansion ...schema.Tag) *Builder {
	b.tagDefs[name] = expansion
	return b
}

// WithoutBuiltins skips the built-in validator, generator, converter and
// dialect registrations, leaving only what modules install.
func (b *Builder) WithoutBuiltins() *Builder {
	b.builtins = false
	return b
}

// Build validates the accumulated configuration and assembles the DB.
func (b *Builder) Build() (*DB, error) {
	if b.sqlDB == nil && b.exec == nil {
		return nil, errors.New("kurubind: a database handle or an executor is required")
	}
	if b.sqlDB != nil && b.exec != nil {
		return nil, errors.New("kurubind: a database handle and an executor are mutually exclusive")
	}

	dialect := b.dialect
	if dialect == "" {
		dialect = sqlgen.ANSI
	}

	exec := b.exec
	if exec == nil {
		exec = executor.NewSQL(b.sqlDB, bindStyleFor(dialect))
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	reg := &Registries{
		Tags:       schema.NewTagRegistry(),
		Validators: validation.NewRegistry(),
		Generators: generate.NewRegistry(),
		Converters: convert.NewRegistry(),
		SQL:        sqlgen.NewRegistry(),
	}
	if b.builtins {
		validation.RegisterBuiltins(reg.Validators)
		generate.RegisterBuiltins(reg.Generators)
		reg.Converters.Register("json", convert.JSON{})
		reg.SQL.Register(sqlgen.Postgres, sqlgen.NewPostgres())
		reg.SQL.Register(sqlgen.MySQL, sqlgen.NewMySQL())
		reg.SQL.Register(sqlgen.SQLite, sqlgen.NewSQLite())
		reg.SQL.Register(sqlgen.SQLServer, sqlgen.NewSQLServer())
	}
	for name, expansion := range b.tagDefs {
		reg.Tags.Define(name, expansion...)
	}
	for _, m := range b.modules {
		m.Configure(reg)
	}

	return &DB{
		exec:    exec,
		dialect: dialect,
		cache:   schema.NewCache(reg.Tags),
		reg:     reg,
		log:     logger,
	}, nil
}

func bindStyleFor(d sqlgen.Dialect) executor.BindStyle {
	switch d {
	case sqlgen.Postgres:
		return executor.BindDollar
	case sqlgen.SQLServer:
		return executor.BindAt
	default:
		return executor.BindQuestion
	}
}

// Dialect returns the configured dialect.
func (db *DB) Dialect() sqlgen.Dialect {
	return db.dialect
}

// Registries exposes the extension registries, for inspection in tests and
// advanced wiring.
func (db *DB) Registries() *Registries {
	return db.reg
}

// Metadata returns the cached metadata for a type.
func (db *DB) Metadata(t reflect.Type) (*schema.Metadata, error) {
	return db.cache.Get(t)
}

// WithHandle runs arbitrary work against a non-transactional unit of work.
func (db *DB) WithHandle(ctx context.Context, fn func(executor.Handle) error) error {
	return db.exec.WithHandle(ctx, fn)
}

// InTransaction runs arbitrary work inside one transaction scope.
func (db *DB) InTransaction(ctx context.Context, fn func(executor.Handle) error) error {
	return db.exec.InTransaction(ctx, fn)
}

func (db *DB) generator() sqlgen.Generator {
	return db.reg.SQL.For(db.dialect)
}

func (db *DB) mapperFor(meta *schema.Metadata) *mapper.Mapper {
	return mapper.New(meta, db.reg.Converters, db.dialect)
}

func (db *DB) logSQL(op string, meta *schema.Metadata, sqlText string) {
	db.log.Debug("generated sql",
		zap.String("op", op),
		zap.String("table", meta.FullTableName()),
		zap.String("sql", sqlText),
	)
}

func metaOf[T any](db *DB) (*schema.Metadata, error) {
	return db.cache.Get(reflect.TypeOf((*T)(nil)))
}

// validate runs every applicable validator over every field, accumulating all
// violations into one aggregate error.
func (db *DB) validate(meta *schema.Metadata, instance any) error {
	agg := validation.NewErrors()
	for _, field := range meta.Fields {
		value := field.Value(instance)
		for _, v := range db.reg.Validators.ForField(field) {
			if err := v.Validate(value, field); err != nil {
				var nested *validation.Errors
				if errors.As(err, &nested) {
					agg.Merge(nested)
				} else {
					agg.Add(field.Name, err.Error())
				}
			}
		}
	}
	if agg.HasErrors() {
		return agg
	}
	return nil
}

func rejectQueryOnly(meta *schema.Metadata, op string) error {
	if meta.QueryOnly {
		return fmt.Errorf("%w: cannot %s %s", ErrQueryOnly, op, meta.Type)
	}
	return nil
}

func requireID(meta *schema.Metadata, op string) error {
	if !meta.HasID() {
		return fmt.Errorf("%w: cannot %s %s", ErrMissingID, op, meta.Type)
	}
	return nil
}
