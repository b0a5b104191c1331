package expr

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/syssam/veloxsql"
	"github.com/syssam/veloxsql/schema"
)

// Assignment assigns a constant or a captured value to one field of T.
// Assignments are created by the Set and SetFunc methods of field handles.
type Assignment[T any] struct {
	name     string
	typ      reflect.Type
	value    any
	thunk    func() any
	captured bool
}

// Name returns the assigned field name.
func (a Assignment[T]) Name() string { return a.name }

// String implements fmt.Stringer.
func (a Assignment[T]) String() string {
	if a.captured {
		return a.name + " = func() " + fmt.Sprint(a.typ)
	}
	return fmt.Sprintf("%s = %#v", a.name, a.value)
}

// Initializer is an ordered list of assignments to the fields of T, the
// Go form of an object initializer:
//
//	init := expr.Init(
//	    UserName.Set("a8m"),
//	    UserAge.SetFunc(func() int { return age }),
//	)
type Initializer[T any] struct {
	assigns []Assignment[T]
}

// Init returns an initializer of the given assignments. An initializer
// without assignments is legal and evaluates to empty FieldValues.
func Init[T any](assigns ...Assignment[T]) *Initializer[T] {
	return &Initializer[T]{assigns: assigns}
}

// Len returns the number of assignments.
func (in *Initializer[T]) Len() int { return len(in.assigns) }

// plan is the cached extraction path of one initializer shape. It holds no
// values.
type plan struct {
	steps []step
}

type step struct {
	field   *schema.FieldDefinition
	convert func(any) (any, error)
}

type planKey struct {
	model *schema.ModelDefinition
	shape string
}

var plans Cache[planKey, *plan]

// PlanStats returns the usage counters of the extraction plan cache.
func PlanStats() CacheStats { return plans.Stats() }

// Evaluate resolves the assignments against md and returns the assigned
// values keyed by Go field name, in assignment order. Captured values are
// read on every call.
func (in *Initializer[T]) Evaluate(md *schema.ModelDefinition) (*FieldValues, error) {
	if in == nil {
		return nil, veloxsql.NewArgumentError("evaluate", "initializer", "must not be nil")
	}
	fv := NewFieldValues()
	if len(in.assigns) == 0 {
		return fv, nil
	}
	var shape strings.Builder
	for _, a := range in.assigns {
		shape.WriteString(a.name)
		if a.captured {
			shape.WriteString("\x00f:")
		} else {
			shape.WriteString("\x00c:")
		}
		if a.typ != nil {
			shape.WriteString(a.typ.PkgPath())
			shape.WriteByte('.')
			shape.WriteString(a.typ.String())
		}
		shape.WriteByte(0)
	}
	p, err := plans.Get(planKey{model: md, shape: shape.String()}, func(planKey) (*plan, error) {
		return buildPlan(md, in.assigns)
	})
	if err != nil {
		return nil, err
	}
	for i, a := range in.assigns {
		v := a.value
		if a.captured {
			if a.thunk == nil {
				return nil, veloxsql.NewUnsupportedExpressionError(a.String(), "nil value function")
			}
			v = a.thunk()
		}
		s := p.steps[i]
		cv, err := s.convert(v)
		if err != nil {
			return nil, veloxsql.NewUnsupportedExpressionError(a.String(), err.Error())
		}
		fv.Set(s.field.Name, cv)
	}
	return fv, nil
}

func buildPlan[T any](md *schema.ModelDefinition, assigns []Assignment[T]) (*plan, error) {
	p := &plan{steps: make([]step, len(assigns))}
	seen := make(map[*schema.FieldDefinition]bool, len(assigns))
	for i, a := range assigns {
		fd, ok := md.Field(a.name)
		if !ok {
			return nil, veloxsql.NewMappingError(md.Name, a.name, "")
		}
		if seen[fd] {
			return nil, veloxsql.NewUnsupportedExpressionError(a.String(), "field "+fd.Name+" is assigned more than once")
		}
		seen[fd] = true
		if a.typ == nil {
			return nil, veloxsql.NewUnsupportedExpressionError(a.String(), "untyped assignment")
		}
		switch a.typ.Kind() {
		case reflect.Func, reflect.Chan, reflect.UnsafePointer:
			return nil, veloxsql.NewUnsupportedExpressionError(a.String(), "value is not constant-foldable")
		}
		convert, ok := converter(a.typ, fd.GoType)
		if !ok {
			return nil, veloxsql.NewUnsupportedExpressionError(a.String(), fmt.Sprintf("cannot assign %s to field of type %s", a.typ, fd.GoType))
		}
		p.steps[i] = step{field: fd, convert: convert}
	}
	return p, nil
}

func identity(v any) (any, error) { return v, nil }

// errInexact is returned when a value changes under conversion to the field
// type.
var errInexact = errors.New("value is not representable")

// converter returns the conversion of values of type from to the field type
// to. Pointer fields accept values of their element type. Numeric
// conversions fail when the value does not fit the field type or loses its
// fractional part.
func converter(from, to reflect.Type) (func(any) (any, error), bool) {
	if from.Kind() == reflect.Interface || from.AssignableTo(to) {
		return identity, true
	}
	if to.Kind() == reflect.Pointer {
		to = to.Elem()
		if from.AssignableTo(to) {
			return identity, true
		}
	}
	if !sameClass(from, to) || !from.ConvertibleTo(to) {
		return nil, false
	}
	return func(v any) (any, error) {
		rv := reflect.ValueOf(v)
		if !rv.IsValid() {
			return nil, nil
		}
		if class(to) == 3 && !fits(rv, to) {
			return nil, fmt.Errorf("%w as %s: %v", errInexact, to, v)
		}
		return rv.Convert(to).Interface(), nil
	}, true
}

// fits reports whether the number v converts to type to without overflow,
// sign change or truncation. Float precision narrowing is allowed.
func fits(v reflect.Value, to reflect.Type) bool {
	dst := reflect.New(to).Elem()
	switch {
	case v.CanInt():
		i := v.Int()
		switch {
		case dst.CanInt():
			return !dst.OverflowInt(i)
		case dst.CanUint():
			return i >= 0 && !dst.OverflowUint(uint64(i))
		default:
			return int64(v.Convert(to).Float()) == i
		}
	case v.CanUint():
		u := v.Uint()
		switch {
		case dst.CanInt():
			return u <= math.MaxInt64 && !dst.OverflowInt(int64(u))
		case dst.CanUint():
			return !dst.OverflowUint(u)
		default:
			f := v.Convert(to).Float()
			return f < math.MaxUint64 && uint64(f) == u
		}
	default:
		f := v.Float()
		switch {
		case dst.CanInt():
			return f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 && !dst.OverflowInt(int64(f))
		case dst.CanUint():
			return f == math.Trunc(f) && f >= 0 && f < math.MaxUint64 && !dst.OverflowUint(uint64(f))
		default:
			return !dst.OverflowFloat(f)
		}
	}
}

// sameClass reports whether both types are numbers, strings or booleans.
func sameClass(a, b reflect.Type) bool {
	return class(a) != 0 && class(a) == class(b)
}

func class(t reflect.Type) int {
	switch t.Kind() {
	case reflect.Bool:
		return 1
	case reflect.String:
		return 2
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return 3
	}
	return 0
}
