package compiler

import (
	"context"
	"log/slog"
	"strings"

	"github.com/syssam/veloxsql/dialect"
	"github.com/syssam/veloxsql/expr"
)

// builder renders one statement. Parameters are appended in textual order,
// so positional and numbered placeholders agree.
type builder struct {
	p    dialect.Provider
	b    strings.Builder
	args dialect.Args
}

func (b *builder) write(ss ...string) {
	for _, s := range ss {
		b.b.WriteString(s)
	}
}

func (b *builder) param(col column) error {
	ph, err := b.p.AddParameter(&b.args, col.value, col.field.Type)
	if err != nil {
		return err
	}
	b.write(ph)
	return nil
}

func (b *builder) value(col column) error {
	if col.def == nil {
		return b.param(col)
	}
	lit, err := b.p.RenderDefaultLiteral(col.def)
	if err != nil {
		return err
	}
	b.write(lit)
	return nil
}

func (b *builder) where(f *expr.Fragment) error {
	if f == nil {
		return nil
	}
	b.write(" WHERE ")
	return f.Render(b.p, &b.args, &b.b)
}

// compileWhere compiles x, or returns nil for an empty predicate.
func (c *Compiler) compileWhere(cmd *Command, x expr.Expr) (*expr.Fragment, error) {
	if x == nil {
		return nil, nil
	}
	return expr.Compile(c.provider, cmd.Model, x)
}

// update renders an UPDATE of cols. In additive mode numeric columns are
// incremented by their value.
func (c *Compiler) update(cmd *Command, cols []column, x expr.Expr, additive bool) (*Statement, error) {
	where, err := c.compileWhere(cmd, x)
	if err != nil {
		return nil, err
	}
	st := &Statement{Op: OpUpdate, Table: cmd.Model.Table}
	if len(cols) == 0 {
		c.logger.Debug("empty update", "op", cmd.Name, "table", st.Table)
		return st, nil
	}
	b := &builder{p: c.provider}
	b.write("UPDATE ", c.provider.QuoteTable(cmd.Model), " SET ")
	for i, col := range cols {
		if i > 0 {
			b.write(", ")
		}
		name := c.provider.QuoteIdentifier(col.field.Column)
		b.write(name, " = ")
		if additive && col.field.Type.Numeric() {
			b.write(name, " + ")
		}
		if err := b.value(col); err != nil {
			return nil, err
		}
	}
	if err := b.where(where); err != nil {
		return nil, err
	}
	return c.finish(cmd, st, b), nil
}

// insert renders an INSERT of cols.
func (c *Compiler) insert(cmd *Command, cols []column) (*Statement, error) {
	st := &Statement{Op: OpInsert, Table: cmd.Model.Table}
	b := &builder{p: c.provider}
	b.write("INSERT INTO ", c.provider.QuoteTable(cmd.Model), " ")
	if len(cols) == 0 {
		b.write(c.provider.EmptyInsert())
		return c.finish(cmd, st, b), nil
	}
	b.write("(")
	for i, col := range cols {
		if i > 0 {
			b.write(", ")
		}
		b.write(c.provider.QuoteIdentifier(col.field.Column))
	}
	b.write(") VALUES (")
	for i, col := range cols {
		if i > 0 {
			b.write(", ")
		}
		if err := b.value(col); err != nil {
			return nil, err
		}
	}
	b.write(")")
	return c.finish(cmd, st, b), nil
}

// delete renders a DELETE. An empty predicate deletes every row.
func (c *Compiler) delete(cmd *Command, x expr.Expr) (*Statement, error) {
	where, err := c.compileWhere(cmd, x)
	if err != nil {
		return nil, err
	}
	st := &Statement{Op: OpDelete, Table: cmd.Model.Table}
	b := &builder{p: c.provider}
	b.write("DELETE FROM ", c.provider.QuoteTable(cmd.Model))
	if err := b.where(where); err != nil {
		return nil, err
	}
	return c.finish(cmd, st, b), nil
}

func (c *Compiler) finish(cmd *Command, st *Statement, b *builder) *Statement {
	st.SQL = b.b.String()
	st.Args = b.args.List()
	c.logger.LogAttrs(context.Background(), slog.LevelDebug, "compiled statement",
		slog.String("op", cmd.Name),
		slog.String("table", st.Table),
		slog.String("sql", st.SQL),
		slog.Int("args", len(st.Args)),
	)
	return st
}
