package veloxsql

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for statement compilation.
var (
	// ErrArgument is returned when a required selector, expression or model is missing.
	ErrArgument = errors.New("veloxsql: invalid argument")

	// ErrMapping is returned when a requested field has no column metadata and the
	// operation requires an exact match.
	ErrMapping = errors.New("veloxsql: field mapping failed")

	// ErrUnsupportedExpression is returned when an expression uses a construct
	// the translator cannot compile.
	ErrUnsupportedExpression = errors.New("veloxsql: unsupported expression")
)

// ArgumentError represents a missing or invalid argument to a compile operation.
type ArgumentError struct {
	Op      string // Operation (e.g., "update-only", "update-add", "delete")
	Arg     string // Argument name
	Message string
}

// Error returns the error string.
func (e *ArgumentError) Error() string {
	var b strings.Builder
	b.WriteString("veloxsql: ")
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString("invalid argument ")
	b.WriteString(e.Arg)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target error matches ErrArgument.
func (e *ArgumentError) Is(err error) bool {
	return err == ErrArgument
}

// NewArgumentError returns a new ArgumentError.
func NewArgumentError(op, arg, message string) *ArgumentError {
	return &ArgumentError{Op: op, Arg: arg, Message: message}
}

// IsArgumentError returns true if the error is an ArgumentError.
func IsArgumentError(err error) bool {
	if err == nil {
		return false
	}
	var e *ArgumentError
	return errors.As(err, &e) || errors.Is(err, ErrArgument)
}

// MappingError represents a field name that could not be matched to column metadata.
type MappingError struct {
	Model   string // Model type name
	Field   string // Requested field name
	Message string
}

// Error returns the error string.
func (e *MappingError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "no such field"
	}
	if e.Model != "" {
		return fmt.Sprintf("veloxsql: %s.%s: %s", e.Model, e.Field, msg)
	}
	return fmt.Sprintf("veloxsql: field %q: %s", e.Field, msg)
}

// Is reports whether the target error matches ErrMapping.
func (e *MappingError) Is(err error) bool {
	return err == ErrMapping
}

// NewMappingError returns a new MappingError.
func NewMappingError(model, field, message string) *MappingError {
	return &MappingError{Model: model, Field: field, Message: message}
}

// IsMappingError returns true if the error is a MappingError.
func IsMappingError(err error) bool {
	if err == nil {
		return false
	}
	var e *MappingError
	return errors.As(err, &e) || errors.Is(err, ErrMapping)
}

// UnsupportedExpressionError represents an expression node the translator
// cannot compile into SQL.
type UnsupportedExpressionError struct {
	Expr    string // String form of the offending node
	Message string
}

// Error returns the error string.
func (e *UnsupportedExpressionError) Error() string {
	if e.Expr == "" {
		return "veloxsql: unsupported expression: " + e.Message
	}
	return fmt.Sprintf("veloxsql: unsupported expression %s: %s", e.Expr, e.Message)
}

// Is reports whether the target error matches ErrUnsupportedExpression.
func (e *UnsupportedExpressionError) Is(err error) bool {
	return err == ErrUnsupportedExpression
}

// NewUnsupportedExpressionError returns a new UnsupportedExpressionError.
func NewUnsupportedExpressionError(expr, message string) *UnsupportedExpressionError {
	return &UnsupportedExpressionError{Expr: expr, Message: message}
}

// IsUnsupportedExpression returns true if the error is an UnsupportedExpressionError.
func IsUnsupportedExpression(err error) bool {
	if err == nil {
		return false
	}
	var e *UnsupportedExpressionError
	return errors.As(err, &e) || errors.Is(err, ErrUnsupportedExpression)
}
