package compiler

import (
	"log/slog"

	"github.com/syssam/veloxsql/dialect"
	"github.com/syssam/veloxsql/schema"
)

// Op is the kind of a compiled statement.
type Op string

// Statement kinds.
const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Command describes the statement being compiled. It is passed to filters.
type Command struct {
	Op    Op
	Name  string // Operation name (e.g., "update-only", "insert-values")
	Model *schema.ModelDefinition
}

// Filter is invoked once per INSERT or UPDATE before the statement's fields
// are resolved and its parameters bound. row is the model pointer, the
// evaluated *expr.FieldValues of an initializer, or the update payload.
// A non-nil error aborts the compilation.
type Filter func(cmd *Command, row any) error

// Chain returns a filter running filters in order. The first error stops
// the chain.
func Chain(filters ...Filter) Filter {
	return func(cmd *Command, row any) error {
		for _, f := range filters {
			if f == nil {
				continue
			}
			if err := f(cmd, row); err != nil {
				return err
			}
		}
		return nil
	}
}

// Compiler compiles typed mutations into statements of one dialect.
// It is immutable after construction and safe for concurrent use.
type Compiler struct {
	provider     dialect.Provider
	registry     *schema.Registry
	logger       *slog.Logger
	insertFilter Filter
	updateFilter Filter
	strict       bool
}

// Option configures a Compiler.
type Option func(*Compiler) error

// WithRegistry sets the metadata registry. The default is schema.Default().
func WithRegistry(r *schema.Registry) Option {
	return func(c *Compiler) error {
		if r == nil {
			return NewConfigError("Registry", nil, "registry cannot be nil")
		}
		c.registry = r
		return nil
	}
}

// WithLogger sets the logger used for debug output. The default is
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.logger = l
		return nil
	}
}

// WithInsertFilter registers a filter invoked before every INSERT.
func WithInsertFilter(f Filter) Option {
	return func(c *Compiler) error {
		if f == nil {
			return NewConfigError("InsertFilter", nil, "filter cannot be nil")
		}
		c.insertFilter = f
		return nil
	}
}

// WithUpdateFilter registers a filter invoked before every UPDATE.
func WithUpdateFilter(f Filter) Option {
	return func(c *Compiler) error {
		if f == nil {
			return NewConfigError("UpdateFilter", nil, "filter cannot be nil")
		}
		c.updateFilter = f
		return nil
	}
}

// WithStrictFieldNames makes field-name lists fail with a MappingError on
// names that match no field, instead of dropping them.
func WithStrictFieldNames() Option {
	return func(c *Compiler) error {
		c.strict = true
		return nil
	}
}

// New returns a compiler rendering statements through p.
func New(p dialect.Provider, opts ...Option) (*Compiler, error) {
	if p == nil {
		return nil, NewConfigError("Provider", nil, "dialect provider cannot be nil")
	}
	c := &Compiler{
		provider: p,
		registry: schema.Default(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// With returns a copy of c with opts applied. Options setting a filter
// replace the filter of the copy only, which suits filters bound to a
// single request.
func (c *Compiler) With(opts ...Option) (*Compiler, error) {
	clone := *c
	for _, opt := range opts {
		if err := opt(&clone); err != nil {
			return nil, err
		}
	}
	return &clone, nil
}

// Provider returns the dialect provider of the compiler.
func (c *Compiler) Provider() dialect.Provider { return c.provider }

// Registry returns the metadata registry of the compiler.
func (c *Compiler) Registry() *schema.Registry { return c.registry }

// filter runs the filter registered for cmd.Op, if any.
func (c *Compiler) filter(cmd *Command, row any) error {
	var f Filter
	switch cmd.Op {
	case OpInsert:
		f = c.insertFilter
	case OpUpdate:
		f = c.updateFilter
	}
	if f == nil {
		return nil
	}
	if err := f(cmd, row); err != nil {
		return &FilterError{Cmd: cmd, Err: err}
	}
	return nil
}
