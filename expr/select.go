package expr

import (
	"fmt"
	"reflect"

	"github.com/syssam/veloxsql"
	"github.com/syssam/veloxsql/schema"
)

// Selector identifies a subset of the fields of T without supplying values.
type Selector[T any] struct {
	columns []Column[T]
	fn      func(*T) []any
}

// Select returns a selector of the given field handles.
func Select[T any](columns ...Column[T]) *Selector[T] {
	return &Selector[T]{columns: columns}
}

// SelectFunc returns a selector from a function returning pointers to
// fields of the struct it is passed:
//
//	expr.SelectFunc(func(u *User) []any { return []any{&u.Name, &u.Age} })
func SelectFunc[T any](fn func(*T) []any) *Selector[T] {
	return &Selector[T]{fn: fn}
}

// Fields resolves the selection against md, in selection order and without
// duplicates. An empty selection resolves to no fields.
func (s *Selector[T]) Fields(md *schema.ModelDefinition) ([]*schema.FieldDefinition, error) {
	if s == nil {
		return nil, veloxsql.NewArgumentError("select", "selector", "must not be nil")
	}
	if s.fn != nil {
		return s.pointers(md)
	}
	fields := make([]*schema.FieldDefinition, 0, len(s.columns))
	for _, c := range s.columns {
		fd, ok := md.Field(c.Name())
		if !ok {
			return nil, veloxsql.NewMappingError(md.Name, c.Name(), "")
		}
		fields = appendUnique(fields, fd)
	}
	return fields, nil
}

type fieldAddr struct {
	ptr uintptr
	typ reflect.Type
}

// pointers maps the addresses returned by the selector function back to
// field definitions. The type is part of the key since a struct shares its
// address with its first field.
func (s *Selector[T]) pointers(md *schema.ModelDefinition) ([]*schema.FieldDefinition, error) {
	if md.Type != reflect.TypeFor[T]() {
		return nil, veloxsql.NewArgumentError("select", "model", fmt.Sprintf("selector of %s used with %s", reflect.TypeFor[T](), md.Type))
	}
	v := new(T)
	rv := reflect.ValueOf(v).Elem()
	byAddr := make(map[fieldAddr]*schema.FieldDefinition, len(md.Fields))
	for _, fd := range md.Fields {
		f := rv.FieldByIndex(fd.Index)
		byAddr[fieldAddr{ptr: f.Addr().Pointer(), typ: f.Type()}] = fd
	}
	ptrs := s.fn(v)
	fields := make([]*schema.FieldDefinition, 0, len(ptrs))
	for i, p := range ptrs {
		pv := reflect.ValueOf(p)
		if pv.Kind() != reflect.Pointer || pv.IsNil() {
			return nil, veloxsql.NewUnsupportedExpressionError(fmt.Sprintf("selector element %d (%T)", i, p), "expect a pointer to a model field")
		}
		fd, ok := byAddr[fieldAddr{ptr: pv.Pointer(), typ: pv.Type().Elem()}]
		if !ok {
			return nil, veloxsql.NewMappingError(md.Name, fmt.Sprintf("#%d (%s)", i, pv.Type().Elem()), "pointer does not address a mapped field")
		}
		fields = appendUnique(fields, fd)
	}
	return fields, nil
}

func appendUnique(fields []*schema.FieldDefinition, fd *schema.FieldDefinition) []*schema.FieldDefinition {
	for _, f := range fields {
		if f == fd {
			return fields
		}
	}
	return append(fields, fd)
}
