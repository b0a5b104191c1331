package compiler

import (
	"reflect"

	"github.com/syssam/veloxsql"
	"github.com/syssam/veloxsql/expr"
	"github.com/syssam/veloxsql/schema"
)

// column is one entry of a SET or VALUES list: a value to bind, or the
// default literal of the field when def is set.
type column struct {
	field *schema.FieldDefinition
	value any
	def   *schema.DefaultSpec
}

// resolution decides, field by field in model order, what a statement
// writes. A skipped field is never written. Otherwise the field is bound to
// its value when it has one, or else set to the default returned by
// fallback, if any.
type resolution struct {
	skip     func(*schema.FieldDefinition) bool
	value    func(*schema.FieldDefinition) (any, bool)
	fallback func(*schema.FieldDefinition) *schema.DefaultSpec
}

func (r resolution) columns(md *schema.ModelDefinition) []column {
	cols := make([]column, 0, len(md.Fields))
	for _, fd := range md.Fields {
		if r.skip(fd) {
			continue
		}
		if v, ok := r.value(fd); ok {
			cols = append(cols, column{field: fd, value: v})
			continue
		}
		if r.fallback == nil {
			continue
		}
		if d := r.fallback(fd); d != nil {
			cols = append(cols, column{field: fd, def: d})
		}
	}
	return cols
}

func skipUpdate(fd *schema.FieldDefinition) bool { return fd.ShouldSkipUpdate() }

func skipInsert(fd *schema.FieldDefinition) bool { return fd.ShouldSkipInsert() }

func updateDefault(fd *schema.FieldDefinition) *schema.DefaultSpec { return fd.UpdateDefault() }

func insertDefault(fd *schema.FieldDefinition) *schema.DefaultSpec { return fd.Default }

// replace resolves the fields of a model update. A zero-valued field with an
// on-update default gets the default. In nonDefaults mode other zero-valued
// fields are left out.
func replace(rv reflect.Value, nonDefaults bool) resolution {
	return resolution{
		skip: skipUpdate,
		value: func(fd *schema.FieldDefinition) (any, bool) {
			v := fd.Value(rv)
			if v.IsZero() && (nonDefaults || fd.UpdateDefault() != nil) {
				return nil, false
			}
			return v.Interface(), true
		},
		fallback: updateDefault,
	}
}

// populated resolves the fields of a model insert. A zero-valued field with
// a default gets the default.
func populated(rv reflect.Value) resolution {
	return resolution{
		skip: skipInsert,
		value: func(fd *schema.FieldDefinition) (any, bool) {
			v := fd.Value(rv)
			if v.IsZero() && fd.Default != nil {
				return nil, false
			}
			return v.Interface(), true
		},
		fallback: insertDefault,
	}
}

// selected resolves an explicit field selection read from a model.
func selected(rv reflect.Value, fields []*schema.FieldDefinition, skip func(*schema.FieldDefinition) bool, fallback func(*schema.FieldDefinition) *schema.DefaultSpec) resolution {
	set := make(map[*schema.FieldDefinition]bool, len(fields))
	for _, fd := range fields {
		set[fd] = true
	}
	return resolution{
		skip: skip,
		value: func(fd *schema.FieldDefinition) (any, bool) {
			if !set[fd] {
				return nil, false
			}
			return fd.Value(rv).Interface(), true
		},
		fallback: fallback,
	}
}

// assigned resolves explicitly assigned values.
func assigned(values map[*schema.FieldDefinition]any, skip func(*schema.FieldDefinition) bool, fallback func(*schema.FieldDefinition) *schema.DefaultSpec) resolution {
	return resolution{
		skip: skip,
		value: func(fd *schema.FieldDefinition) (any, bool) {
			v, ok := values[fd]
			return v, ok
		},
		fallback: fallback,
	}
}

// fieldNames resolves a list of field names, case-insensitively. Names of
// skipped fields are dropped. Unknown names are dropped too, or fail with a
// MappingError in strict mode.
func (c *Compiler) fieldNames(md *schema.ModelDefinition, op string, names []string, strict bool, skip func(*schema.FieldDefinition) bool) ([]*schema.FieldDefinition, error) {
	fields := make([]*schema.FieldDefinition, 0, len(names))
	for _, name := range names {
		fd, ok := md.Field(name)
		switch {
		case !ok && strict:
			return nil, veloxsql.NewMappingError(md.Name, name, "")
		case !ok:
			c.logger.Debug("dropped unknown field name", "op", op, "model", md.Name, "field", name)
		case skip(fd):
			c.logger.Debug("dropped skipped field name", "op", op, "model", md.Name, "field", name)
		default:
			fields = append(fields, fd)
		}
	}
	return fields, nil
}

// payloadValues matches the entries of p to fields, case-insensitively.
// Unknown names and names of skipped fields are dropped. A later entry for
// the same field overrides an earlier one.
func (c *Compiler) payloadValues(md *schema.ModelDefinition, op string, p expr.Payload, skip func(*schema.FieldDefinition) bool) map[*schema.FieldDefinition]any {
	values := make(map[*schema.FieldDefinition]any)
	for name, v := range p.All() {
		fd, ok := md.Field(name)
		switch {
		case !ok:
			c.logger.Debug("dropped unknown payload entry", "op", op, "model", md.Name, "field", name)
		case skip(fd):
			c.logger.Debug("dropped skipped payload entry", "op", op, "model", md.Name, "field", name)
		default:
			values[fd] = v
		}
	}
	return values
}

// fieldValues maps evaluated initializer values to their fields. Names are
// Go field names of md.
func fieldValues(md *schema.ModelDefinition, fv *expr.FieldValues) map[*schema.FieldDefinition]any {
	values := make(map[*schema.FieldDefinition]any, fv.Len())
	for name, v := range fv.All() {
		if fd, ok := md.Field(name); ok {
			values[fd] = v
		}
	}
	return values
}
