package compiler

import (
	"reflect"

	"github.com/syssam/veloxsql"
	"github.com/syssam/veloxsql/expr"
	"github.com/syssam/veloxsql/schema"
)

// load returns the model definition of T.
func load[T any](c *Compiler, op string) (*schema.ModelDefinition, error) {
	if c == nil {
		return nil, veloxsql.NewArgumentError(op, "compiler", "must not be nil")
	}
	return schema.For[T](c.registry)
}

// modelCommand validates model and returns the command compiling it.
func modelCommand[T any](c *Compiler, kind Op, op string, model *T) (*Command, reflect.Value, error) {
	md, err := load[T](c, op)
	if err != nil {
		return nil, reflect.Value{}, err
	}
	if model == nil {
		return nil, reflect.Value{}, veloxsql.NewArgumentError(op, "model", "must not be nil")
	}
	return &Command{Op: kind, Name: op, Model: md}, reflect.ValueOf(model).Elem(), nil
}

// Update compiles an UPDATE of every updatable field of model. A zero-valued
// field with an on-update default is set to its default. Without a
// predicate the statement updates every row.
func Update[T any](c *Compiler, model *T, where ...expr.Predicate[T]) (*Statement, error) {
	return updateModel(c, "update", model, where, false)
}

// UpdateNonDefaults is like Update but leaves out zero-valued fields.
// Zero-valued fields with an on-update default are still set to the default.
func UpdateNonDefaults[T any](c *Compiler, model *T, where ...expr.Predicate[T]) (*Statement, error) {
	return updateModel(c, "update-non-defaults", model, where, true)
}

func updateModel[T any](c *Compiler, op string, model *T, where []expr.Predicate[T], nonDefaults bool) (*Statement, error) {
	cmd, rv, err := modelCommand(c, OpUpdate, op, model)
	if err != nil {
		return nil, err
	}
	if err := c.filter(cmd, model); err != nil {
		return nil, err
	}
	return c.update(cmd, replace(rv, nonDefaults).columns(cmd.Model), expr.And(where...).Expr(), false)
}

// UpdateByKey compiles an Update of model restricted to the row of its
// primary key.
func UpdateByKey[T any](c *Compiler, model *T) (*Statement, error) {
	const op = "update-by-key"
	cmd, rv, err := modelCommand(c, OpUpdate, op, model)
	if err != nil {
		return nil, err
	}
	pk := cmd.Model.PrimaryKey
	if pk == nil {
		return nil, veloxsql.NewMappingError(cmd.Model.Name, "PrimaryKey", "model declares no primary key")
	}
	if err := c.filter(cmd, model); err != nil {
		return nil, err
	}
	where := expr.Compare{Op: expr.OpEQ, Left: expr.Ident(pk.Name), Right: expr.Value{V: pk.Value(rv).Interface()}}
	return c.update(cmd, replace(rv, false).columns(cmd.Model), where, false)
}

// UpdateOnly compiles an UPDATE of the fields selected by q, read from
// model, restricted by the predicate of q.
//
// With a selector, fields with an on-update default that are not selected
// are set to their default. With field names, only the named fields are
// written. If q selects nothing, UpdateOnly behaves as Update.
func UpdateOnly[T any](c *Compiler, model *T, q *Query[T]) (*Statement, error) {
	const op = "update-only"
	if _, err := q.check(c, op); err != nil {
		return nil, err
	}
	var names []string
	if q.sel == nil {
		names = q.names
	}
	return updateOnly(c, op, model, q.sel, names, c.strict || q.strict, q.where)
}

// UpdateOnlySelect compiles an UPDATE of the fields selected by sel, read
// from model. Fields with an on-update default that are not selected are set
// to their default. An empty selection behaves as Update.
func UpdateOnlySelect[T any](c *Compiler, model *T, sel *expr.Selector[T], where ...expr.Predicate[T]) (*Statement, error) {
	const op = "update-only-select"
	if sel == nil {
		return nil, veloxsql.NewArgumentError(op, "selector", "must not be nil")
	}
	return updateOnly(c, op, model, sel, nil, c != nil && c.strict, expr.And(where...))
}

// UpdateOnlyFields compiles an UPDATE of the named fields, read from model.
// Names match Go field names or column names, ignoring case. Unknown names
// and names of fields never updated are dropped, unless the compiler is
// strict. Fields that are not named are left untouched, even if they have
// an on-update default. An empty list behaves as Update.
func UpdateOnlyFields[T any](c *Compiler, model *T, fields []string, where ...expr.Predicate[T]) (*Statement, error) {
	const op = "update-only-fields"
	if fields == nil {
		return nil, veloxsql.NewArgumentError(op, "fields", "must not be nil")
	}
	return updateOnly(c, op, model, nil, fields, c != nil && c.strict, expr.And(where...))
}

func updateOnly[T any](c *Compiler, op string, model *T, sel *expr.Selector[T], names []string, strict bool, where expr.Predicate[T]) (*Statement, error) {
	cmd, rv, err := modelCommand(c, OpUpdate, op, model)
	if err != nil {
		return nil, err
	}
	if err := c.filter(cmd, model); err != nil {
		return nil, err
	}
	md := cmd.Model
	var r resolution
	switch {
	case sel != nil:
		fields, err := sel.Fields(md)
		if err != nil {
			return nil, err
		}
		if len(fields) == 0 {
			r = replace(rv, false)
			break
		}
		r = selected(rv, fields, skipUpdate, updateDefault)
	case len(names) > 0:
		fields, err := c.fieldNames(md, op, names, strict, skipUpdate)
		if err != nil {
			return nil, err
		}
		r = selected(rv, fields, skipUpdate, nil)
	default:
		r = replace(rv, false)
	}
	return c.update(cmd, r.columns(md), where.Expr(), false)
}

// UpdateValues compiles an UPDATE of the values assigned by init. Fields
// with an on-update default that init does not assign are set to their
// default. An initializer without assignments yields an empty statement.
func UpdateValues[T any](c *Compiler, init *expr.Initializer[T], where ...expr.Predicate[T]) (*Statement, error) {
	const op = "update-values"
	cmd, fv, err := initCommand(c, OpUpdate, op, init)
	if err != nil {
		return nil, err
	}
	if err := c.filter(cmd, fv); err != nil {
		return nil, err
	}
	values := fieldValues(cmd.Model, fv)
	return c.update(cmd, valueColumns(cmd.Model, values), expr.And(where...).Expr(), false)
}

// UpdatePayload compiles an UPDATE of T from a bag of named values, such as
// an anonymous update payload. Names match Go field names or column names,
// ignoring case. Unknown names and names of fields never updated are
// dropped. Fields with an on-update default that the payload does not set
// are set to their default. A payload matching no field yields an empty
// statement.
func UpdatePayload[T any](c *Compiler, payload expr.Payload, where ...expr.Predicate[T]) (*Statement, error) {
	const op = "update-payload"
	md, err := load[T](c, op)
	if err != nil {
		return nil, err
	}
	if payload == nil || isNilPointer(payload) {
		return nil, veloxsql.NewArgumentError(op, "payload", "must not be nil")
	}
	cmd := &Command{Op: OpUpdate, Name: op, Model: md}
	if err := c.filter(cmd, payload); err != nil {
		return nil, err
	}
	values := c.payloadValues(md, op, payload, skipUpdate)
	return c.update(cmd, valueColumns(md, values), expr.And(where...).Expr(), false)
}

// valueColumns resolves explicitly assigned update values. Nothing is
// written when no value is assigned.
func valueColumns(md *schema.ModelDefinition, values map[*schema.FieldDefinition]any) []column {
	cols := assigned(values, skipUpdate, updateDefault).columns(md)
	for _, col := range cols {
		if col.def == nil {
			return cols
		}
	}
	return nil
}

// UpdateAdd compiles an additive UPDATE of the values assigned by init:
// numeric columns are incremented by their value, other columns are set to
// it. No default is applied. The predicate is required.
func UpdateAdd[T any](c *Compiler, init *expr.Initializer[T], where expr.Predicate[T]) (*Statement, error) {
	const op = "update-add"
	cmd, fv, err := initCommand(c, OpUpdate, op, init)
	if err != nil {
		return nil, err
	}
	if where.IsEmpty() {
		return nil, veloxsql.NewArgumentError(op, "where", "additive updates require a predicate")
	}
	if err := c.filter(cmd, fv); err != nil {
		return nil, err
	}
	values := fieldValues(cmd.Model, fv)
	return c.update(cmd, assigned(values, skipUpdate, nil).columns(cmd.Model), where.Expr(), true)
}

// initCommand validates and evaluates init and returns the command
// compiling it.
func initCommand[T any](c *Compiler, kind Op, op string, init *expr.Initializer[T]) (*Command, *expr.FieldValues, error) {
	md, err := load[T](c, op)
	if err != nil {
		return nil, nil, err
	}
	if init == nil {
		return nil, nil, veloxsql.NewArgumentError(op, "initializer", "must not be nil")
	}
	fv, err := init.Evaluate(md)
	if err != nil {
		return nil, nil, err
	}
	return &Command{Op: kind, Name: op, Model: md}, fv, nil
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
