// Package dialect defines the contract between the statement compiler and
// the database specific code.
//
// # Dialect Constants
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// # Provider Interface
//
// A Provider quotes identifiers, binds parameters and renders default
// literals:
//
//	type Provider interface {
//	    Name() string
//	    QuoteIdentifier(name string) string
//	    QuoteTable(m *schema.ModelDefinition) string
//	    AddParameter(args *Args, value any, typ schema.ColumnType) (string, error)
//	    RenderDefaultLiteral(d *schema.DefaultSpec) (string, error)
//	    EmptyInsert() string
//	}
//
// Parameters are appended to an Args list in the order their placeholders
// appear in the statement text, which keeps positional (?) and numbered ($n)
// placeholders consistent.
//
// # Driver Interface
//
// Compiled statements are executed by a Driver or a Tx:
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # Sub-packages
//
//   - dialect/sql: Provider implementations and the database/sql driver
package dialect
