package compiler

import (
	"github.com/syssam/veloxsql"
	"github.com/syssam/veloxsql/expr"
)

// Delete compiles a DELETE of the rows matching where. The predicate is
// required; use DeleteQuery with an empty query to delete every row.
func Delete[T any](c *Compiler, where expr.Predicate[T]) (*Statement, error) {
	const op = "delete"
	md, err := load[T](c, op)
	if err != nil {
		return nil, err
	}
	if where.IsEmpty() {
		return nil, veloxsql.NewArgumentError(op, "where", "must not be empty")
	}
	return c.delete(&Command{Op: OpDelete, Name: op, Model: md}, where.Expr())
}

// DeleteQuery compiles a DELETE of the rows matching the predicate of q.
// The update fields of q are ignored.
func DeleteQuery[T any](c *Compiler, q *Query[T]) (*Statement, error) {
	const op = "delete-query"
	md, err := q.check(c, op)
	if err != nil {
		return nil, err
	}
	return c.delete(&Command{Op: OpDelete, Name: op, Model: md}, q.where.Expr())
}
