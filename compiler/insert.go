package compiler

import (
	"github.com/syssam/veloxsql"
	"github.com/syssam/veloxsql/expr"
)

// Insert compiles an INSERT of model. Auto-increment fields are left to the
// database and zero-valued fields with a default are set to the default.
func Insert[T any](c *Compiler, model *T) (*Statement, error) {
	cmd, rv, err := modelCommand(c, OpInsert, "insert", model)
	if err != nil {
		return nil, err
	}
	if err := c.filter(cmd, model); err != nil {
		return nil, err
	}
	return c.insert(cmd, populated(rv).columns(cmd.Model))
}

// InsertOnly compiles an INSERT of the named fields of model. Fields that
// are not named are set to their default, if they have one, and are
// otherwise left out. An empty list behaves as Insert.
func InsertOnly[T any](c *Compiler, model *T, fields []string) (*Statement, error) {
	const op = "insert-only"
	if fields == nil {
		return nil, veloxsql.NewArgumentError(op, "fields", "must not be nil")
	}
	cmd, rv, err := modelCommand(c, OpInsert, op, model)
	if err != nil {
		return nil, err
	}
	if err := c.filter(cmd, model); err != nil {
		return nil, err
	}
	md := cmd.Model
	if len(fields) == 0 {
		return c.insert(cmd, populated(rv).columns(md))
	}
	names, err := c.fieldNames(md, op, fields, c.strict, skipInsert)
	if err != nil {
		return nil, err
	}
	return c.insert(cmd, selected(rv, names, skipInsert, insertDefault).columns(md))
}

// InsertValues compiles an INSERT of the values assigned by init. Fields
// init does not assign are set to their default, if they have one.
func InsertValues[T any](c *Compiler, init *expr.Initializer[T]) (*Statement, error) {
	cmd, fv, err := initCommand(c, OpInsert, "insert-values", init)
	if err != nil {
		return nil, err
	}
	if err := c.filter(cmd, fv); err != nil {
		return nil, err
	}
	values := fieldValues(cmd.Model, fv)
	return c.insert(cmd, assigned(values, skipInsert, insertDefault).columns(cmd.Model))
}
