package dialect

import (
	"context"

	"github.com/syssam/veloxsql/schema"
)

// Dialect names.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// ExecQuerier wraps the 2 database operations.
type ExecQuerier interface {
	// Exec executes a query that does not return records. For example, in SQL, INSERT or UPDATE.
	// It scans the result into the pointer v. For SQL drivers, it is dialect/sql.Result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows, typically a SELECT in SQL.
	// It scans the result into the pointer v. For SQL drivers, it is *dialect/sql.Rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all necessary operations for statement execution.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps the Exec and Query operations in transaction.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}

// Provider renders the dialect-specific parts of a statement. Compilers never
// write an identifier, a placeholder or a default literal without going
// through it.
type Provider interface {
	// Name returns the dialect name (one of the constants above).
	Name() string
	// QuoteIdentifier quotes a column or table name.
	QuoteIdentifier(name string) string
	// QuoteTable returns the quoted, optionally schema-qualified table of m.
	QuoteTable(m *schema.ModelDefinition) string
	// AddParameter converts value for a column of type typ, appends it to args
	// and returns the placeholder referring to it.
	AddParameter(args *Args, value any, typ schema.ColumnType) (string, error)
	// RenderDefaultLiteral renders d as inline SQL.
	RenderDefaultLiteral(d *schema.DefaultSpec) (string, error)
	// EmptyInsert returns the INSERT suffix used when no column is written.
	EmptyInsert() string
}

// Arg is a bound statement parameter.
type Arg struct {
	Value any
	Type  schema.ColumnType
}

// Args is the ordered parameter list of a statement being built. The zero
// value is ready to use.
type Args struct {
	list []Arg
}

// Append adds a parameter and returns its 1-based position.
func (a *Args) Append(value any, typ schema.ColumnType) int {
	a.list = append(a.list, Arg{Value: value, Type: typ})
	return len(a.list)
}

// Len returns the number of parameters.
func (a *Args) Len() int { return len(a.list) }

// List returns the parameters in binding order.
func (a *Args) List() []Arg { return a.list }

// Values returns the parameter values in binding order, as expected by
// database/sql.
func (a *Args) Values() []any {
	values := make([]any, len(a.list))
	for i, arg := range a.list {
		values[i] = arg.Value
	}
	return values
}
