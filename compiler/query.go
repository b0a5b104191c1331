package compiler

import (
	"github.com/syssam/veloxsql"
	"github.com/syssam/veloxsql/dialect"
	"github.com/syssam/veloxsql/expr"
	"github.com/syssam/veloxsql/schema"
)

// Query is the per-statement builder of a mutation over T: a WHERE predicate
// and, for updates, the fields to write. An empty field set means all
// fields. A Query is not safe for concurrent use.
type Query[T any] struct {
	c      *Compiler
	md     *schema.ModelDefinition
	err    error
	where  expr.Predicate[T]
	sel    *expr.Selector[T]
	names  []string
	strict bool
}

// From returns an empty query over the model T. A metadata error is
// reported by Err and by the operation the query is passed to.
func From[T any](c *Compiler) *Query[T] {
	q := &Query[T]{c: c}
	if c == nil {
		q.err = veloxsql.NewArgumentError("from", "compiler", "must not be nil")
		return q
	}
	q.md, q.err = schema.For[T](c.registry)
	return q
}

// Where ANDs the predicates to the query predicate.
func (q *Query[T]) Where(ps ...expr.Predicate[T]) *Query[T] {
	q.where = expr.And(append([]expr.Predicate[T]{q.where}, ps...)...)
	return q
}

// Or ORs the conjunction of the predicates to the query predicate.
func (q *Query[T]) Or(ps ...expr.Predicate[T]) *Query[T] {
	q.where = expr.Or(q.where, expr.And(ps...))
	return q
}

// Update sets the fields to update from a selector. It takes precedence over
// UpdateNames.
func (q *Query[T]) Update(sel *expr.Selector[T]) *Query[T] {
	q.sel = sel
	return q
}

// UpdateNames sets the fields to update by name. Unknown names are dropped
// unless the query or its compiler is strict.
func (q *Query[T]) UpdateNames(names ...string) *Query[T] {
	q.names = append(q.names, names...)
	return q
}

// Strict makes unknown names given to UpdateNames fail with a MappingError.
func (q *Query[T]) Strict() *Query[T] {
	q.strict = true
	return q
}

// Predicate returns the accumulated predicate.
func (q *Query[T]) Predicate() expr.Predicate[T] { return q.where }

// Err returns the error recorded while building the query.
func (q *Query[T]) Err() error { return q.err }

// WhereExpression renders the predicate on its own, with parameters
// numbered from the first placeholder. It returns an empty string for an
// empty predicate.
func (q *Query[T]) WhereExpression() (string, []dialect.Arg, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	if q.c == nil {
		return "", nil, veloxsql.NewArgumentError("where-expression", "query", "not created by From")
	}
	if q.where.IsEmpty() {
		return "", nil, nil
	}
	f, err := expr.Compile(q.c.provider, q.md, q.where.Expr())
	if err != nil {
		return "", nil, err
	}
	return f.SQL(q.c.provider)
}

// check validates that q may be compiled by c and returns its model.
func (q *Query[T]) check(c *Compiler, op string) (*schema.ModelDefinition, error) {
	if q == nil {
		return nil, veloxsql.NewArgumentError(op, "query", "must not be nil")
	}
	if c == nil {
		return nil, veloxsql.NewArgumentError(op, "compiler", "must not be nil")
	}
	if q.err != nil {
		return nil, q.err
	}
	if q.c == nil {
		return nil, veloxsql.NewArgumentError(op, "query", "not created by From")
	}
	if q.c.registry != c.registry {
		return nil, veloxsql.NewArgumentError(op, "query", "built against a different registry")
	}
	return q.md, nil
}
