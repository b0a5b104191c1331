package expr

import "reflect"

// Predicate is a boolean expression over the fields of the model T.
// The zero Predicate is empty.
type Predicate[T any] struct {
	x Expr
}

// Where wraps an untyped expression tree as a predicate over T. The tree is
// validated when compiled.
func Where[T any](x Expr) Predicate[T] {
	return Predicate[T]{x: x}
}

// Expr returns the expression tree, or nil for the empty predicate.
func (p Predicate[T]) Expr() Expr { return p.x }

// IsEmpty reports whether p holds no expression.
func (p Predicate[T]) IsEmpty() bool { return p.x == nil }

// String implements fmt.Stringer.
func (p Predicate[T]) String() string {
	if p.x == nil {
		return ""
	}
	return p.x.String()
}

// And returns the conjunction of the non-empty predicates. It is empty if
// every operand is.
func And[T any](ps ...Predicate[T]) Predicate[T] {
	return join(OpAnd, ps)
}

// Or returns the disjunction of the non-empty predicates.
func Or[T any](ps ...Predicate[T]) Predicate[T] {
	return join(OpOr, ps)
}

func join[T any](op LogicalOp, ps []Predicate[T]) Predicate[T] {
	operands := make([]Expr, 0, len(ps))
	for _, p := range ps {
		if p.x == nil {
			continue
		}
		// Flatten nested chains of the same operator: And(And(a, b), c) is And(a, b, c).
		if l, ok := p.x.(Logical); ok && l.Op == op {
			operands = append(operands, l.Operands...)
			continue
		}
		operands = append(operands, p.x)
	}
	switch len(operands) {
	case 0:
		return Predicate[T]{}
	case 1:
		return Predicate[T]{x: operands[0]}
	}
	return Predicate[T]{x: Logical{Op: op, Operands: operands}}
}

// Not negates p. The negation of the empty predicate is empty.
func Not[T any](p Predicate[T]) Predicate[T] {
	if p.x == nil {
		return p
	}
	return Predicate[T]{x: Negation{Operand: p.x}}
}

// Column is a typed handle naming a field of the model T.
type Column[T any] interface {
	Name() string
	column(*T)
}

// Field is a typed handle for the field of model T holding values of type V.
// The handle is the Go field name (or column name) of the field:
//
//	var (
//	    UserID   = expr.Field[User, int]("Id")
//	    UserName = expr.StringField[User]("Name")
//	)
//	expr.And(UserID.GT(10), UserName.HasPrefix("a"))
type Field[T, V any] string

// Name returns the field name.
func (f Field[T, V]) Name() string { return string(f) }

func (Field[T, V]) column(*T) {}

func (f Field[T, V]) compare(op Op, v V) Predicate[T] {
	return Predicate[T]{x: Compare{Op: op, Left: Ident(f), Right: Value{V: v}}}
}

// EQ returns a predicate that checks if the field equals v.
// A nil v checks for NULL.
func (f Field[T, V]) EQ(v V) Predicate[T] { return f.compare(OpEQ, v) }

// NEQ returns a predicate that checks if the field does not equal v.
// A nil v checks for NOT NULL.
func (f Field[T, V]) NEQ(v V) Predicate[T] { return f.compare(OpNEQ, v) }

// GT returns a predicate that checks if the field is greater than v.
func (f Field[T, V]) GT(v V) Predicate[T] { return f.compare(OpGT, v) }

// GTE returns a predicate that checks if the field is greater than or equal to v.
func (f Field[T, V]) GTE(v V) Predicate[T] { return f.compare(OpGTE, v) }

// LT returns a predicate that checks if the field is less than v.
func (f Field[T, V]) LT(v V) Predicate[T] { return f.compare(OpLT, v) }

// LTE returns a predicate that checks if the field is less than or equal to v.
func (f Field[T, V]) LTE(v V) Predicate[T] { return f.compare(OpLTE, v) }

// In returns a predicate that checks if the field value is in vs.
func (f Field[T, V]) In(vs ...V) Predicate[T] {
	return Predicate[T]{x: Membership{Left: Ident(f), Values: values(vs)}}
}

// NotIn returns a predicate that checks if the field value is not in vs.
func (f Field[T, V]) NotIn(vs ...V) Predicate[T] {
	return Predicate[T]{x: Membership{Left: Ident(f), Values: values(vs), Negate: true}}
}

// IsNull returns a predicate that checks if the field is NULL.
func (f Field[T, V]) IsNull() Predicate[T] {
	return Predicate[T]{x: Null{Operand: Ident(f)}}
}

// NotNull returns a predicate that checks if the field is not NULL.
func (f Field[T, V]) NotNull() Predicate[T] {
	return Predicate[T]{x: Null{Operand: Ident(f), Negate: true}}
}

// EQField returns a predicate that checks if the field equals the column o.
func (f Field[T, V]) EQField(o Field[T, V]) Predicate[T] {
	return Predicate[T]{x: Compare{Op: OpEQ, Left: Ident(f), Right: Ident(o)}}
}

// NEQField returns a predicate that checks if the field differs from the column o.
func (f Field[T, V]) NEQField(o Field[T, V]) Predicate[T] {
	return Predicate[T]{x: Compare{Op: OpNEQ, Left: Ident(f), Right: Ident(o)}}
}

// Set returns an assignment of the constant v to the field.
func (f Field[T, V]) Set(v V) Assignment[T] {
	return Assignment[T]{name: string(f), typ: reflect.TypeFor[V](), value: v}
}

// SetFunc returns an assignment of a value captured at evaluation time.
// fn is called once per evaluation.
func (f Field[T, V]) SetFunc(fn func() V) Assignment[T] {
	a := Assignment[T]{name: string(f), typ: reflect.TypeFor[V](), captured: true}
	if fn != nil {
		a.thunk = func() any { return fn() }
	}
	return a
}

func values[V any](vs []V) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

// StringField is a typed handle for a string field of model T. It adds
// pattern predicates to the Field operations.
type StringField[T any] string

func (f StringField[T]) field() Field[T, string] { return Field[T, string](f) }

// Name returns the field name.
func (f StringField[T]) Name() string { return string(f) }

func (StringField[T]) column(*T) {}

// EQ returns a predicate that checks if the field equals v.
func (f StringField[T]) EQ(v string) Predicate[T] { return f.field().EQ(v) }

// NEQ returns a predicate that checks if the field does not equal v.
func (f StringField[T]) NEQ(v string) Predicate[T] { return f.field().NEQ(v) }

// GT returns a predicate that checks if the field is greater than v.
func (f StringField[T]) GT(v string) Predicate[T] { return f.field().GT(v) }

// GTE returns a predicate that checks if the field is greater than or equal to v.
func (f StringField[T]) GTE(v string) Predicate[T] { return f.field().GTE(v) }

// LT returns a predicate that checks if the field is less than v.
func (f StringField[T]) LT(v string) Predicate[T] { return f.field().LT(v) }

// LTE returns a predicate that checks if the field is less than or equal to v.
func (f StringField[T]) LTE(v string) Predicate[T] { return f.field().LTE(v) }

// In returns a predicate that checks if the field value is in vs.
func (f StringField[T]) In(vs ...string) Predicate[T] { return f.field().In(vs...) }

// NotIn returns a predicate that checks if the field value is not in vs.
func (f StringField[T]) NotIn(vs ...string) Predicate[T] { return f.field().NotIn(vs...) }

// IsNull returns a predicate that checks if the field is NULL.
func (f StringField[T]) IsNull() Predicate[T] { return f.field().IsNull() }

// NotNull returns a predicate that checks if the field is not NULL.
func (f StringField[T]) NotNull() Predicate[T] { return f.field().NotNull() }

// Contains returns a predicate that checks if the field contains v.
func (f StringField[T]) Contains(v string) Predicate[T] { return f.field().compare(OpContains, v) }

// HasPrefix returns a predicate that checks if the field starts with v.
func (f StringField[T]) HasPrefix(v string) Predicate[T] { return f.field().compare(OpHasPrefix, v) }

// HasSuffix returns a predicate that checks if the field ends with v.
func (f StringField[T]) HasSuffix(v string) Predicate[T] { return f.field().compare(OpHasSuffix, v) }

// Set returns an assignment of the constant v to the field.
func (f StringField[T]) Set(v string) Assignment[T] { return f.field().Set(v) }

// SetFunc returns an assignment of a value captured at evaluation time.
func (f StringField[T]) SetFunc(fn func() string) Assignment[T] { return f.field().SetFunc(fn) }
