package expr

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/syssam/veloxsql"
	"github.com/syssam/veloxsql/dialect"
	"github.com/syssam/veloxsql/schema"
)

// likeEscape is the escape character of LIKE patterns.
const likeEscape = '!'

// Fragment is a compiled predicate: a cached template plus the constants of
// one expression, in slot order.
type Fragment struct {
	tmpl   *template
	values []any
}

// template is the dialect-rendered text of a predicate shape. Slots are
// bound from the expression constants at render time.
type template struct {
	parts []part
	slots int
}

type part struct {
	text string
	slot bool
	typ  schema.ColumnType
	like Op
}

// templateKey identifies a template. Models are keyed by definition since
// registries with different naming strategies map one type differently.
type templateKey struct {
	model       *schema.ModelDefinition
	dialect     string
	fingerprint string
}

var templates Cache[templateKey, *template]

// maxCachedArity bounds the IN lists whose templates are cached. The arity
// of a list is part of its fingerprint, so longer lists are compiled on
// every call to keep the cache bounded.
const maxCachedArity = 32

// TemplateStats returns the usage counters of the predicate template cache.
// The cache holds one entry per predicate shape; IN lists of up to 32
// values add one shape per distinct length.
func TemplateStats() CacheStats { return templates.Stats() }

// Compile compiles the predicate x over the model md for the dialect of p.
//
// Templates are cached by model, dialect and the structural fingerprint
// of x, so compiling expressions that differ only in their constants reuses
// one template.
func Compile(p dialect.Provider, md *schema.ModelDefinition, x Expr) (*Fragment, error) {
	if x == nil {
		return nil, veloxsql.NewArgumentError("compile", "predicate", "must not be nil")
	}
	var fp strings.Builder
	if err := fingerprint(&fp, x); err != nil {
		return nil, err
	}
	key := templateKey{model: md, dialect: p.Name(), fingerprint: fp.String()}
	build := func(templateKey) (*template, error) {
		c := &compiler{p: p, md: md}
		if err := c.expr(x); err != nil {
			return nil, err
		}
		c.flush()
		return &c.t, nil
	}
	var (
		tmpl *template
		err  error
	)
	if wide(x) {
		tmpl, err = build(key)
	} else {
		tmpl, err = templates.Get(key, build)
	}
	if err != nil {
		return nil, err
	}
	values := make([]any, 0, tmpl.slots)
	values = collect(values, x)
	if len(values) != tmpl.slots {
		return nil, fmt.Errorf("expr: template of %q expects %d values, got %d", x, tmpl.slots, len(values))
	}
	return &Fragment{tmpl: tmpl, values: values}, nil
}

// Render writes the fragment to b, binding its values through p in textual
// order.
func (f *Fragment) Render(p dialect.Provider, args *dialect.Args, b *strings.Builder) error {
	i := 0
	for _, pt := range f.tmpl.parts {
		if !pt.slot {
			b.WriteString(pt.text)
			continue
		}
		v := f.values[i]
		i++
		if pt.like != 0 {
			v = likePattern(pt.like, reflect.ValueOf(v).String())
		}
		ph, err := p.AddParameter(args, v, pt.typ)
		if err != nil {
			return err
		}
		b.WriteString(ph)
		if pt.like != 0 {
			b.WriteString(" ESCAPE '" + string(likeEscape) + "'")
		}
	}
	return nil
}

// SQL renders the fragment on its own.
func (f *Fragment) SQL(p dialect.Provider) (string, []dialect.Arg, error) {
	var (
		b    strings.Builder
		args dialect.Args
	)
	if err := f.Render(p, &args, &b); err != nil {
		return "", nil, err
	}
	return b.String(), args.List(), nil
}

func likePattern(op Op, s string) string {
	r := strings.NewReplacer(string(likeEscape), string(likeEscape)+string(likeEscape), "%", string(likeEscape)+"%", "_", string(likeEscape)+"_")
	s = r.Replace(s)
	switch op {
	case OpHasPrefix:
		return s + "%"
	case OpHasSuffix:
		return "%" + s
	default:
		return "%" + s + "%"
	}
}

// isNil reports whether v is nil or a nil pointer, map, slice or interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func typeName(v any) string {
	if isNil(v) {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}

func unsupported(x Expr, msg string) error {
	return veloxsql.NewUnsupportedExpressionError(fmt.Sprint(x), msg)
}

// fingerprint encodes the operator tree, field names and constant types of x.
func fingerprint(b *strings.Builder, x Expr) error {
	switch x := x.(type) {
	case Ident:
		b.WriteString(strconv.Quote(string(x)))
	case Value:
		b.WriteString("v:")
		b.WriteString(typeName(x.V))
	case Compare:
		b.WriteString("c" + strconv.Itoa(int(x.Op)) + "(")
		if err := fingerprint(b, x.Left); err != nil {
			return err
		}
		b.WriteByte(',')
		if err := fingerprint(b, x.Right); err != nil {
			return err
		}
		b.WriteByte(')')
	case Membership:
		if x.Negate {
			b.WriteString("m!(")
		} else {
			b.WriteString("m(")
		}
		if err := fingerprint(b, x.Left); err != nil {
			return err
		}
		for _, v := range x.Values {
			b.WriteByte(',')
			b.WriteString(typeName(v))
		}
		b.WriteByte(')')
	case Null:
		if x.Negate {
			b.WriteString("n!(")
		} else {
			b.WriteString("n(")
		}
		if err := fingerprint(b, x.Operand); err != nil {
			return err
		}
		b.WriteByte(')')
	case Logical:
		b.WriteString("l" + strconv.Itoa(int(x.Op)) + "(")
		for i, o := range x.Operands {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := fingerprint(b, o); err != nil {
				return err
			}
		}
		b.WriteByte(')')
	case Negation:
		b.WriteString("!(")
		if err := fingerprint(b, x.Operand); err != nil {
			return err
		}
		b.WriteByte(')')
	default:
		return unsupported(x, fmt.Sprintf("unknown node %T", x))
	}
	return nil
}

// wide reports whether x holds an IN list longer than maxCachedArity.
func wide(x Expr) bool {
	switch x := x.(type) {
	case Membership:
		return len(x.Values) > maxCachedArity
	case Logical:
		for _, o := range x.Operands {
			if wide(o) {
				return true
			}
		}
	case Negation:
		return wide(x.Operand)
	}
	return false
}

// collect appends the bound constants of x in slot order. It mirrors the
// slot emission of compiler.expr.
func collect(values []any, x Expr) []any {
	switch x := x.(type) {
	case Compare:
		if v, ok := x.Right.(Value); ok && !isNil(v.V) {
			values = append(values, v.V)
		}
	case Membership:
		values = append(values, x.Values...)
	case Logical:
		for _, o := range x.Operands {
			values = collect(values, o)
		}
	case Negation:
		values = collect(values, x.Operand)
	}
	return values
}

// compiler builds a template from a predicate tree.
type compiler struct {
	p   dialect.Provider
	md  *schema.ModelDefinition
	t   template
	buf strings.Builder
}

func (c *compiler) write(s string) { c.buf.WriteString(s) }

// flush moves the pending text into a part.
func (c *compiler) flush() {
	if c.buf.Len() > 0 {
		c.t.parts = append(c.t.parts, part{text: c.buf.String()})
		c.buf.Reset()
	}
}

func (c *compiler) slot(typ schema.ColumnType, like Op) {
	c.flush()
	c.t.parts = append(c.t.parts, part{slot: true, typ: typ, like: like})
	c.t.slots++
}

func (c *compiler) field(x Expr) (*schema.FieldDefinition, error) {
	id, ok := x.(Ident)
	if !ok {
		return nil, unsupported(x, "operand must be a field")
	}
	fd, ok := c.md.Field(string(id))
	if !ok {
		return nil, veloxsql.NewMappingError(c.md.Name, string(id), "")
	}
	return fd, nil
}

func (c *compiler) column(fd *schema.FieldDefinition) {
	c.write(c.p.QuoteIdentifier(fd.Column))
}

func (c *compiler) expr(x Expr) error {
	switch x := x.(type) {
	case Compare:
		return c.compare(x)
	case Membership:
		return c.membership(x)
	case Null:
		fd, err := c.field(x.Operand)
		if err != nil {
			return err
		}
		c.null(fd, x.Negate)
	case Logical:
		return c.logical(x)
	case Negation:
		if x.Operand == nil {
			return unsupported(x, "NOT without operand")
		}
		c.write("NOT (")
		if err := c.expr(x.Operand); err != nil {
			return err
		}
		c.write(")")
	case Ident, Value:
		return unsupported(x, "operand is not a predicate")
	default:
		return unsupported(x, fmt.Sprintf("unknown node %T", x))
	}
	return nil
}

func (c *compiler) null(fd *schema.FieldDefinition, negate bool) {
	c.column(fd)
	if negate {
		c.write(" IS NOT NULL")
	} else {
		c.write(" IS NULL")
	}
}

func (c *compiler) compare(x Compare) error {
	if x.Op < OpEQ || x.Op > OpHasSuffix {
		return unsupported(x, "unknown operator")
	}
	left, err := c.field(x.Left)
	if err != nil {
		return err
	}
	switch r := x.Right.(type) {
	case Ident:
		if x.Op.like() {
			return unsupported(x, "pattern operand must be a constant")
		}
		right, err := c.field(r)
		if err != nil {
			return err
		}
		c.column(left)
		c.write(" " + x.Op.String() + " ")
		c.column(right)
	case Value:
		if isNil(r.V) {
			switch x.Op {
			case OpEQ:
				c.null(left, false)
			case OpNEQ:
				c.null(left, true)
			default:
				return unsupported(x, "nil is only comparable for equality")
			}
			return nil
		}
		c.column(left)
		c.write(" " + x.Op.String() + " ")
		if x.Op.like() {
			if reflect.TypeOf(r.V).Kind() != reflect.String {
				return unsupported(x, "pattern operand must be a string")
			}
			c.slot(schema.TypeString, x.Op)
			return nil
		}
		c.slot(left.Type, 0)
	default:
		return unsupported(x, "right operand must be a field or a constant")
	}
	return nil
}

func (c *compiler) membership(x Membership) error {
	fd, err := c.field(x.Left)
	if err != nil {
		return err
	}
	if len(x.Values) == 0 {
		if x.Negate {
			c.write("1=1")
		} else {
			c.write("1=0")
		}
		return nil
	}
	c.column(fd)
	if x.Negate {
		c.write(" NOT IN (")
	} else {
		c.write(" IN (")
	}
	for i := range x.Values {
		if i > 0 {
			c.write(", ")
		}
		c.slot(fd.Type, 0)
	}
	c.write(")")
	return nil
}

func (c *compiler) logical(x Logical) error {
	switch len(x.Operands) {
	case 0:
		if x.Op == OpOr {
			c.write("1=0")
		} else {
			c.write("1=1")
		}
		return nil
	case 1:
		return c.expr(x.Operands[0])
	}
	for i, o := range x.Operands {
		if i > 0 {
			c.write(" " + x.Op.String() + " ")
		}
		_, nested := o.(Logical)
		if nested {
			c.write("(")
		}
		if err := c.expr(o); err != nil {
			return err
		}
		if nested {
			c.write(")")
		}
	}
	return nil
}
