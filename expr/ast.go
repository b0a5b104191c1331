package expr

import (
	"fmt"
	"strings"
)

// Expr is a node of a predicate tree. The nodes declared in this package are
// the only ones Compile understands; any other implementation is rejected
// with an unsupported expression error.
type Expr interface {
	fmt.Stringer
}

// Op is a binary comparison operator.
type Op int

// Comparison operators.
const (
	OpEQ Op = iota + 1
	OpNEQ
	OpGT
	OpGTE
	OpLT
	OpLTE
	OpContains  // LIKE '%v%'
	OpHasPrefix // LIKE 'v%'
	OpHasSuffix // LIKE '%v'
)

var ops = [...]string{
	OpEQ:        "=",
	OpNEQ:       "<>",
	OpGT:        ">",
	OpGTE:       ">=",
	OpLT:        "<",
	OpLTE:       "<=",
	OpContains:  "LIKE",
	OpHasPrefix: "LIKE",
	OpHasSuffix: "LIKE",
}

// String returns the SQL text of the operator.
func (o Op) String() string {
	if o > 0 && int(o) < len(ops) {
		return ops[o]
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

func (o Op) like() bool {
	return o == OpContains || o == OpHasPrefix || o == OpHasSuffix
}

// LogicalOp joins boolean operands.
type LogicalOp int

// Logical operators.
const (
	OpAnd LogicalOp = iota + 1
	OpOr
)

// String returns the SQL keyword of the operator.
func (o LogicalOp) String() string {
	if o == OpOr {
		return "OR"
	}
	return "AND"
}

type (
	// Ident references a model field by Go name or column name.
	Ident string

	// Value is a constant operand. It is always bound as a parameter.
	Value struct {
		V any
	}

	// Compare is a binary comparison. Left must be an Ident; Right is an
	// Ident (column-to-column) or a Value.
	Compare struct {
		Op    Op
		Left  Expr
		Right Expr
	}

	// Membership is an IN or NOT IN test against a list of constants.
	Membership struct {
		Left   Expr
		Values []any
		Negate bool
	}

	// Null is an IS NULL or IS NOT NULL test.
	Null struct {
		Operand Expr
		Negate  bool
	}

	// Logical joins operands with AND or OR.
	Logical struct {
		Op       LogicalOp
		Operands []Expr
	}

	// Negation negates its operand.
	Negation struct {
		Operand Expr
	}
)

func (x Ident) String() string { return string(x) }

func (x Value) String() string { return fmt.Sprintf("%#v", x.V) }

func (x Compare) String() string {
	return fmt.Sprintf("%v %s %v", x.Left, x.Op, x.Right)
}

func (x Membership) String() string {
	op := "IN"
	if x.Negate {
		op = "NOT IN"
	}
	return fmt.Sprintf("%v %s %v", x.Left, op, x.Values)
}

func (x Null) String() string {
	if x.Negate {
		return fmt.Sprintf("%v IS NOT NULL", x.Operand)
	}
	return fmt.Sprintf("%v IS NULL", x.Operand)
}

func (x Logical) String() string {
	parts := make([]string, len(x.Operands))
	for i, o := range x.Operands {
		parts[i] = fmt.Sprintf("(%v)", o)
	}
	return strings.Join(parts, " "+x.Op.String()+" ")
}

func (x Negation) String() string { return fmt.Sprintf("NOT (%v)", x.Operand) }
