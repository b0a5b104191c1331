package compiler

import (
	"context"
	"fmt"
	"strings"

	"github.com/syssam/veloxsql/dialect"
	"github.com/syssam/veloxsql/dialect/sql"
)

// Execer executes a statement. It is satisfied by the drivers and
// transactions of the dialect/sql package.
type Execer interface {
	Exec(ctx context.Context, query string, args, v any) error
}

// Statement is a compiled statement: SQL text and the parameters to bind, in
// placeholder order. A Statement is meant to be executed once.
type Statement struct {
	Op    Op
	Table string
	SQL   string
	Args  []dialect.Arg
}

// Empty reports whether the statement has nothing to execute, as when an
// update resolves to an empty SET list.
func (s *Statement) Empty() bool { return s.SQL == "" }

// Values returns the parameter values, as expected by database/sql.
func (s *Statement) Values() []any {
	values := make([]any, len(s.Args))
	for i, a := range s.Args {
		values[i] = a.Value
	}
	return values
}

// String implements fmt.Stringer.
func (s *Statement) String() string {
	if s.Empty() {
		return fmt.Sprintf("%s %s: <empty>", s.Op, s.Table)
	}
	var b strings.Builder
	b.WriteString(s.SQL)
	if len(s.Args) > 0 {
		fmt.Fprintf(&b, " %v", s.Values())
	}
	return b.String()
}

// Exec executes the statement on ex and returns the number of affected rows.
// An empty statement is not sent and affects no rows.
func (s *Statement) Exec(ctx context.Context, ex Execer) (int64, error) {
	if s.Empty() {
		return 0, nil
	}
	var res sql.Result
	if err := ex.Exec(ctx, s.SQL, s.Values(), &res); err != nil {
		return 0, fmt.Errorf("exec %s %s: %w", s.Op, s.Table, err)
	}
	return res.RowsAffected()
}
