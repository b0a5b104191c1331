package compiler_test

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/veloxsql"
	"github.com/syssam/veloxsql/compiler"
	"github.com/syssam/veloxsql/dialect"
	"github.com/syssam/veloxsql/dialect/sql"
	"github.com/syssam/veloxsql/expr"
	"github.com/syssam/veloxsql/schema"
)

type Defaults struct {
	Id         int `velox:",pk"`
	DefaultInt int `velox:",default=1,onupdate"`
	Name       string
}

type Article struct {
	Id        int `velox:",pk,autoincrement"`
	Title     string
	Views     int
	Score     float64
	Author    string    `velox:",skipupdate"`
	Status    string    `velox:",default='draft'"`
	UpdatedAt time.Time `velox:",default=$system_utc,onupdate"`
}

type Tag struct {
	Id   int `velox:",pk,autoincrement"`
	Name string
}

type Keyless struct {
	Name string
}

var (
	DefaultsID   = expr.Field[Defaults, int]("Id")
	DefaultsName = expr.StringField[Defaults]("Name")

	ArticleID        = expr.Field[Article, int]("Id")
	ArticleTitle     = expr.StringField[Article]("Title")
	ArticleViews     = expr.Field[Article, int]("Views")
	ArticleScore     = expr.Field[Article, float64]("Score")
	ArticleAuthor    = expr.StringField[Article]("Author")
	ArticleStatus    = expr.StringField[Article]("Status")
	ArticleUpdatedAt = expr.Field[Article, time.Time]("UpdatedAt")
)

const utcNow = `(now() at time zone 'utc')`

func newCompiler(t *testing.T, p dialect.Provider, opts ...compiler.Option) *compiler.Compiler {
	t.Helper()
	c, err := compiler.New(p, append([]compiler.Option{compiler.WithRegistry(schema.NewRegistry())}, opts...)...)
	require.NoError(t, err)
	return c
}

func values(st *compiler.Statement) []any { return st.Values() }

func TestUpdateInjectsOnUpdateDefault(t *testing.T) {
	t.Parallel()
	tests := []struct {
		p    dialect.Provider
		want string
	}{
		{sql.Postgres(), `UPDATE "Defaults" SET "DefaultInt" = 1, "Name" = $1`},
		{sql.MySQL(), "UPDATE `Defaults` SET `DefaultInt` = 1, `Name` = ?"},
		{sql.SQLite(), `UPDATE "Defaults" SET "DefaultInt" = 1, "Name" = ?`},
	}
	for _, tt := range tests {
		t.Run(tt.p.Name(), func(t *testing.T) {
			c := newCompiler(t, tt.p)
			st, err := compiler.Update(c, &Defaults{Id: 1})
			require.NoError(t, err)
			assert.Equal(t, tt.want, st.SQL)
			assert.Equal(t, []any{""}, values(st))
			assert.Equal(t, compiler.OpUpdate, st.Op)
			assert.Equal(t, "Defaults", st.Table)
		})
	}

	t.Run("ExplicitValueWins", func(t *testing.T) {
		c := newCompiler(t, sql.Postgres())
		st, err := compiler.Update(c, &Defaults{Id: 1, DefaultInt: 1, Name: "x"}, DefaultsID.EQ(1))
		require.NoError(t, err)
		assert.Equal(t, `UPDATE "Defaults" SET "DefaultInt" = $1, "Name" = $2 WHERE "Id" = $3`, st.SQL)
		assert.Equal(t, []any{1, "x", 1}, values(st))
	})
}

func TestUpdateOnlyFieldsSuppressesInjection(t *testing.T) {
	t.Parallel()
	c := newCompiler(t, sql.Postgres())
	st, err := compiler.UpdateOnlyFields(c, &Defaults{Id: 1, DefaultInt: 999, Name: "x"}, []string{"Name"})
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "Defaults" SET "Name" = $1`, st.SQL)
	assert.Equal(t, []any{"x"}, values(st))

	c = newCompiler(t, sql.MySQL())
	st, err = compiler.UpdateOnlyFields(c, &Defaults{Id: 1, Name: "x"}, []string{"name", "ID", "missing"}, DefaultsID.EQ(1))
	require.NoError(t, err)
	assert.Equal(t, "UPDATE `Defaults` SET `Name` = ? WHERE `Id` = ?", st.SQL)
	assert.Equal(t, []any{"x", 1}, values(st))

	// An empty list falls back to a full update.
	st, err = compiler.UpdateOnlyFields(c, &Defaults{Id: 1}, []string{})
	require.NoError(t, err)
	assert.Equal(t, "UPDATE `Defaults` SET `DefaultInt` = 1, `Name` = ?", st.SQL)

	// Names that all drop leave nothing to update.
	st, err = compiler.UpdateOnlyFields(c, &Defaults{Id: 1}, []string{"Id", "missing"})
	require.NoError(t, err)
	assert.True(t, st.Empty())
	assert.Empty(t, st.Args)
}

func TestDelete(t *testing.T) {
	t.Parallel()
	tests := []struct {
		p    dialect.Provider
		want string
	}{
		{sql.Postgres(), `DELETE FROM "Defaults" WHERE "Id" = $1`},
		{sql.MySQL(), "DELETE FROM `Defaults` WHERE `Id` = ?"},
		{sql.SQLite(), `DELETE FROM "Defaults" WHERE "Id" = ?`},
	}
	for _, tt := range tests {
		t.Run(tt.p.Name(), func(t *testing.T) {
			c := newCompiler(t, tt.p)
			st, err := compiler.Delete(c, DefaultsID.EQ(5))
			require.NoError(t, err)
			assert.Equal(t, tt.want, st.SQL)
			assert.Equal(t, []any{5}, values(st))
			assert.Equal(t, compiler.OpDelete, st.Op)
		})
	}

	c := newCompiler(t, sql.Postgres())
	_, err := compiler.Delete(c, expr.Predicate[Defaults]{})
	assert.True(t, veloxsql.IsArgumentError(err))
	_, err = compiler.Delete(c, expr.And[Defaults]())
	assert.True(t, veloxsql.IsArgumentError(err))

	st, err := compiler.DeleteQuery(c, compiler.From[Defaults](c))
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "Defaults"`, st.SQL)

	st, err = compiler.DeleteQuery(c, compiler.From[Defaults](c).
		Where(DefaultsID.GT(1), DefaultsName.HasPrefix("a")).
		Or(DefaultsID.EQ(0)))
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "Defaults" WHERE ("Id" > $1 AND "Name" LIKE $2 ESCAPE '!') OR "Id" = $3`, st.SQL)
	assert.Equal(t, []any{1, "a%", 0}, values(st))

	_, err = compiler.DeleteQuery[Defaults](c, nil)
	assert.True(t, veloxsql.IsArgumentError(err))
}

func TestUpdate(t *testing.T) {
	t.Parallel()
	c := newCompiler(t, sql.Postgres())
	a := &Article{Id: 3, Title: "t", Author: "x"}

	st, err := compiler.Update(c, a, ArticleID.EQ(3))
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "Article" SET "Title" = $1, "Views" = $2, "Score" = $3, "Status" = $4, "UpdatedAt" = `+utcNow+` WHERE "Id" = $5`, st.SQL)
	assert.Equal(t, []any{"t", 0, 0.0, "", 3}, values(st))

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	a.UpdatedAt = at
	st, err = compiler.Update(c, a)
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "Article" SET "Title" = $1, "Views" = $2, "Score" = $3, "Status" = $4, "UpdatedAt" = $5`, st.SQL)
	assert.Equal(t, at, st.Args[4].Value)
	assert.Equal(t, schema.TypeTime, st.Args[4].Type)
}

func TestUpdateNonDefaults(t *testing.T) {
	t.Parallel()
	c := newCompiler(t, sql.Postgres())
	st, err := compiler.UpdateNonDefaults(c, &Article{Id: 3, Title: "t", Author: "x"}, ArticleID.EQ(3))
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "Article" SET "Title" = $1, "UpdatedAt" = `+utcNow+` WHERE "Id" = $2`, st.SQL)
	assert.Equal(t, []any{"t", 3}, values(st))

	// Only the on-update default remains for an empty model.
	st, err = compiler.UpdateNonDefaults(c, &Tag{})
	require.NoError(t, err)
	assert.True(t, st.Empty())
}

func TestUpdateByKey(t *testing.T) {
	t.Parallel()
	c := newCompiler(t, sql.MySQL())
	st, err := compiler.UpdateByKey(c, &Tag{Id: 7, Name: "go"})
	require.NoError(t, err)
	assert.Equal(t, "UPDATE `Tag` SET `Name` = ? WHERE `Id` = ?", st.SQL)
	assert.Equal(t, []any{"go", 7}, values(st))

	_, err = compiler.UpdateByKey(c, &Keyless{Name: "x"})
	assert.True(t, veloxsql.IsMappingError(err))

	_, err = compiler.UpdateByKey[Tag](c, nil)
	assert.True(t, veloxsql.IsArgumentError(err))
}

func TestUpdateOnlySelect(t *testing.T) {
	t.Parallel()
	c := newCompiler(t, sql.Postgres())
	a := &Article{Id: 1, Title: "t", Views: 4, Author: "x"}

	t.Run("Handles", func(t *testing.T) {
		st, err := compiler.UpdateOnlySelect(c, a, expr.Select[Article](ArticleTitle, ArticleAuthor), ArticleID.EQ(1))
		require.NoError(t, err)
		// Author is never updated; UpdatedAt is stamped.
		assert.Equal(t, `UPDATE "Article" SET "Title" = $1, "UpdatedAt" = `+utcNow+` WHERE "Id" = $2`, st.SQL)
		assert.Equal(t, []any{"t", 1}, values(st))
	})

	t.Run("Pointers", func(t *testing.T) {
		st, err := compiler.UpdateOnlySelect(c, a, expr.SelectFunc(func(a *Article) []any {
			return []any{&a.Views, &a.Score}
		}))
		require.NoError(t, err)
		assert.Equal(t, `UPDATE "Article" SET "Views" = $1, "Score" = $2, "UpdatedAt" = `+utcNow, st.SQL)
		assert.Equal(t, []any{4, 0.0}, values(st))
	})

	t.Run("ExplicitDefaultField", func(t *testing.T) {
		st, err := compiler.UpdateOnlySelect(c, a, expr.Select[Article](ArticleTitle, ArticleUpdatedAt))
		require.NoError(t, err)
		assert.Equal(t, `UPDATE "Article" SET "Title" = $1, "UpdatedAt" = $2`, st.SQL)
		assert.Equal(t, []any{"t", time.Time{}}, values(st))
	})

	t.Run("EmptyFallsBackToUpdate", func(t *testing.T) {
		st, err := compiler.UpdateOnlySelect(c, a, expr.Select[Article]())
		require.NoError(t, err)
		want, err := compiler.Update(c, a)
		require.NoError(t, err)
		assert.Equal(t, want.SQL, st.SQL)
		assert.Equal(t, want.Args, st.Args)
	})

	t.Run("Errors", func(t *testing.T) {
		_, err := compiler.UpdateOnlySelect[Article](c, a, nil)
		assert.True(t, veloxsql.IsArgumentError(err))
		_, err = compiler.UpdateOnlySelect(c, nil, expr.Select[Article](ArticleTitle))
		assert.True(t, veloxsql.IsArgumentError(err))
		_, err = compiler.UpdateOnlySelect(c, a, expr.Select[Article](expr.StringField[Article]("Body")))
		assert.True(t, veloxsql.IsMappingError(err))
		_, err = compiler.UpdateOnlySelect(c, a, expr.SelectFunc(func(*Article) []any { return []any{1} }))
		assert.True(t, veloxsql.IsUnsupportedExpression(err))
	})
}

func TestUpdateOnly(t *testing.T) {
	t.Parallel()
	c := newCompiler(t, sql.Postgres())
	a := &Article{Id: 1, Title: "t", Views: 2}

	st, err := compiler.UpdateOnly(c, a, compiler.From[Article](c).
		Where(ArticleID.EQ(1)).
		UpdateNames("title", "nope", "author"))
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "Article" SET "Title" = $1 WHERE "Id" = $2`, st.SQL)
	assert.Equal(t, []any{"t", 1}, values(st))

	// A selector takes precedence over names.
	st, err = compiler.UpdateOnly(c, a, compiler.From[Article](c).
		UpdateNames("Title").
		Update(expr.Select[Article](ArticleViews)))
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "Article" SET "Views" = $1, "UpdatedAt" = `+utcNow, st.SQL)

	// No update fields: a full update.
	st, err = compiler.UpdateOnly(c, a, compiler.From[Article](c).Where(ArticleID.EQ(1)))
	require.NoError(t, err)
	assert.Contains(t, st.SQL, `"Status" = $4, "UpdatedAt" = `+utcNow+` WHERE "Id" = $5`)

	_, err = compiler.UpdateOnly(c, a, compiler.From[Article](c).UpdateNames("nope").Strict())
	assert.True(t, veloxsql.IsMappingError(err))

	_, err = compiler.UpdateOnly[Article](c, a, nil)
	assert.True(t, veloxsql.IsArgumentError(err))

	other := newCompiler(t, sql.Postgres())
	_, err = compiler.UpdateOnly(c, a, compiler.From[Article](other))
	assert.True(t, veloxsql.IsArgumentError(err))
}

func TestStrictFieldNames(t *testing.T) {
	t.Parallel()
	c := newCompiler(t, sql.SQLite(), compiler.WithStrictFieldNames())
	_, err := compiler.UpdateOnlyFields(c, &Tag{Name: "x"}, []string{"Name", "Label"})
	require.Error(t, err)
	assert.True(t, veloxsql.IsMappingError(err))
	assert.Contains(t, err.Error(), "Tag.Label")

	_, err = compiler.InsertOnly(c, &Tag{Name: "x"}, []string{"Label"})
	assert.True(t, veloxsql.IsMappingError(err))

	// Skip-marked names are dropped even in strict mode.
	st, err := compiler.UpdateOnlyFields(c, &Tag{Id: 1, Name: "x"}, []string{"id", "name"})
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "Tag" SET "Name" = ?`, st.SQL)
}

func TestUpdateValues(t *testing.T) {
	t.Parallel()
	c := newCompiler(t, sql.Postgres())
	title := "first"
	init := expr.Init(ArticleViews.Set(10), ArticleTitle.SetFunc(func() string { return title }))

	st, err := compiler.UpdateValues(c, init, ArticleID.EQ(7))
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "Article" SET "Title" = $1, "Views" = $2, "UpdatedAt" = `+utcNow+` WHERE "Id" = $3`, st.SQL)
	assert.Equal(t, []any{"first", 10, 7}, values(st))

	title = "second"
	st, err = compiler.UpdateValues(c, init, ArticleID.EQ(8))
	require.NoError(t, err)
	assert.Equal(t, []any{"second", 10, 8}, values(st))

	at := time.Unix(0, 0).UTC()
	st, err = compiler.UpdateValues(c, expr.Init(ArticleUpdatedAt.Set(at), ArticleAuthor.Set("x")))
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "Article" SET "UpdatedAt" = $1`, st.SQL)

	st, err = compiler.UpdateValues(c, expr.Init[Article]())
	require.NoError(t, err)
	assert.True(t, st.Empty())

	_, err = compiler.UpdateValues[Article](c, nil)
	assert.True(t, veloxsql.IsArgumentError(err))
	_, err = compiler.UpdateValues(c, expr.Init(expr.Field[Article, int]("Missing").Set(1)))
	assert.True(t, veloxsql.IsMappingError(err))
	_, err = compiler.UpdateValues(c, expr.Init(expr.Field[Article, []int]("Views").Set(nil)))
	assert.True(t, veloxsql.IsUnsupportedExpression(err))

	st, err = compiler.UpdateValues(c, expr.Init(expr.Field[Article, float64]("Views").Set(2)), ArticleID.EQ(1))
	require.NoError(t, err)
	assert.Equal(t, []any{2, 1}, values(st)[:2])
	_, err = compiler.UpdateValues(c, expr.Init(expr.Field[Article, float64]("Views").Set(1.9)), ArticleID.EQ(1))
	assert.True(t, veloxsql.IsUnsupportedExpression(err), "%v", err)
	_, err = compiler.UpdateAdd(c, expr.Init(expr.Field[Article, uint64]("Views").Set(math.MaxUint64)), ArticleID.EQ(1))
	assert.True(t, veloxsql.IsUnsupportedExpression(err), "%v", err)
}

func TestUpdatePayload(t *testing.T) {
	t.Parallel()
	c := newCompiler(t, sql.MySQL())
	st, err := compiler.UpdatePayload(c, expr.Map{"title": "x", "AUTHOR": "y", "bogus": 1, "id": 9}, ArticleID.EQ(1))
	require.NoError(t, err)
	assert.Equal(t, "UPDATE `Article` SET `Title` = ?, `UpdatedAt` = UTC_TIMESTAMP() WHERE `Id` = ?", st.SQL)
	assert.Equal(t, []any{"x", 1}, values(st))

	fv := expr.NewFieldValues()
	fv.Set("views", 5)
	fv.Set("score", 1.5)
	st, err = compiler.UpdatePayload[Article](c, fv)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE `Article` SET `Views` = ?, `Score` = ?, `UpdatedAt` = UTC_TIMESTAMP()", st.SQL)
	assert.Equal(t, []any{5, 1.5}, values(st))

	st, err = compiler.UpdatePayload[Article](c, expr.Map{"bogus": 1})
	require.NoError(t, err)
	assert.True(t, st.Empty())

	_, err = compiler.UpdatePayload[Article](c, nil)
	assert.True(t, veloxsql.IsArgumentError(err))
	var nilValues *expr.FieldValues
	_, err = compiler.UpdatePayload[Article](c, nilValues)
	assert.True(t, veloxsql.IsArgumentError(err))
}

func TestUpdateAdd(t *testing.T) {
	t.Parallel()
	init := expr.Init(ArticleViews.Set(1), ArticleScore.Set(0.5), ArticleTitle.Set("t"))
	tests := []struct {
		p    dialect.Provider
		want string
	}{
		{sql.Postgres(), `UPDATE "Article" SET "Title" = $1, "Views" = "Views" + $2, "Score" = "Score" + $3 WHERE "Id" = $4`},
		{sql.MySQL(), "UPDATE `Article` SET `Title` = ?, `Views` = `Views` + ?, `Score` = `Score` + ? WHERE `Id` = ?"},
	}
	for _, tt := range tests {
		t.Run(tt.p.Name(), func(t *testing.T) {
			c := newCompiler(t, tt.p)
			st, err := compiler.UpdateAdd(c, init, ArticleID.EQ(9))
			require.NoError(t, err)
			assert.Equal(t, tt.want, st.SQL)
			assert.Equal(t, []any{"t", 1, 0.5, 9}, values(st))
		})
	}

	c := newCompiler(t, sql.Postgres())
	_, err := compiler.UpdateAdd(c, init, expr.Predicate[Article]{})
	assert.True(t, veloxsql.IsArgumentError(err))
	_, err = compiler.UpdateAdd(c, init, expr.Or[Article]())
	assert.True(t, veloxsql.IsArgumentError(err))
	_, err = compiler.UpdateAdd[Article](c, nil, ArticleID.EQ(1))
	assert.True(t, veloxsql.IsArgumentError(err))

	// Skip-marked fields are never written.
	st, err := compiler.UpdateAdd(c, expr.Init(ArticleAuthor.Set("x"), ArticleID.Set(2)), ArticleID.EQ(1))
	require.NoError(t, err)
	assert.True(t, st.Empty())
}

func TestInsert(t *testing.T) {
	t.Parallel()
	c := newCompiler(t, sql.Postgres())

	st, err := compiler.Insert(c, &Article{Id: 5, Title: "t"})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "Article" ("Title", "Views", "Score", "Author", "Status", "UpdatedAt") VALUES ($1, $2, $3, $4, 'draft', `+utcNow+`)`, st.SQL)
	assert.Equal(t, []any{"t", 0, 0.0, ""}, values(st))
	assert.Equal(t, compiler.OpInsert, st.Op)

	st, err = compiler.Insert(c, &Article{Title: "t", Status: "live"})
	require.NoError(t, err)
	assert.Contains(t, st.SQL, `"Status", "UpdatedAt") VALUES ($1, $2, $3, $4, $5, `+utcNow+`)`)
	assert.Equal(t, "live", st.Args[4].Value)

	st, err = compiler.Insert(c, &Tag{})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "Tag" ("Name") VALUES ($1)`, st.SQL)

	_, err = compiler.Insert[Tag](c, nil)
	assert.True(t, veloxsql.IsArgumentError(err))
}

func TestInsertOnly(t *testing.T) {
	t.Parallel()
	c := newCompiler(t, sql.Postgres())
	a := &Article{Id: 5, Title: "t", Views: 3}

	st, err := compiler.InsertOnly(c, a, []string{"Title", "Id", "zzz"})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "Article" ("Title", "Status", "UpdatedAt") VALUES ($1, 'draft', `+utcNow+`)`, st.SQL)
	assert.Equal(t, []any{"t"}, values(st))

	st, err = compiler.InsertOnly(c, a, []string{})
	require.NoError(t, err)
	want, err := compiler.Insert(c, a)
	require.NoError(t, err)
	assert.Equal(t, want.SQL, st.SQL)

	_, err = compiler.InsertOnly(c, a, nil)
	assert.True(t, veloxsql.IsArgumentError(err))
}

func TestInsertValues(t *testing.T) {
	t.Parallel()
	c := newCompiler(t, sql.Postgres())
	st, err := compiler.InsertValues(c, expr.Init(ArticleTitle.Set("a"), ArticleID.Set(4)))
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "Article" ("Title", "Status", "UpdatedAt") VALUES ($1, 'draft', `+utcNow+`)`, st.SQL)

	st, err = compiler.InsertValues(c, expr.Init[Article]())
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "Article" ("Status", "UpdatedAt") VALUES ('draft', `+utcNow+`)`, st.SQL)

	st, err = compiler.InsertValues(c, expr.Init[Tag]())
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "Tag" DEFAULT VALUES`, st.SQL)

	c = newCompiler(t, sql.MySQL())
	st, err = compiler.InsertValues(c, expr.Init[Tag]())
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO `Tag` () VALUES ()", st.SQL)
}

type Token struct {
	Id    int    `velox:",pk,autoincrement"`
	Value string `velox:",default=$uuid"`
}

func TestProviderErrorsPropagate(t *testing.T) {
	t.Parallel()
	c := newCompiler(t, sql.SQLite())
	_, err := compiler.Insert(c, &Token{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrUnsupportedDefault))

	// A value provided explicitly needs no default.
	st, err := compiler.Insert(c, &Token{Value: "v"})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "Token" ("Value") VALUES (?)`, st.SQL)
}

func TestFilters(t *testing.T) {
	t.Parallel()
	var (
		updates []*compiler.Command
		inserts []*compiler.Command
		rows    []any
	)
	c := newCompiler(t, sql.Postgres(),
		compiler.WithUpdateFilter(func(cmd *compiler.Command, row any) error {
			updates = append(updates, cmd)
			rows = append(rows, row)
			switch row := row.(type) {
			case *Article:
				row.Title = "stamped"
			case *expr.FieldValues:
				row.Set("Title", "stamped")
			}
			return nil
		}),
		compiler.WithInsertFilter(func(cmd *compiler.Command, row any) error {
			inserts = append(inserts, cmd)
			if a, ok := row.(*Article); ok {
				a.Status = "audited"
			}
			return nil
		}),
	)

	a := &Article{Id: 1}
	st, err := compiler.UpdateOnlyFields(c, a, []string{"Title"})
	require.NoError(t, err)
	assert.Equal(t, []any{"stamped"}, values(st))
	require.Len(t, updates, 1)
	assert.Equal(t, compiler.OpUpdate, updates[0].Op)
	assert.Equal(t, "update-only-fields", updates[0].Name)
	assert.Equal(t, "Article", updates[0].Model.Name)
	assert.Same(t, a, rows[0])

	st, err = compiler.UpdateAdd(c, expr.Init(ArticleViews.Set(1)), ArticleID.EQ(1))
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "Article" SET "Title" = $1, "Views" = "Views" + $2 WHERE "Id" = $3`, st.SQL)
	require.Len(t, updates, 2)
	assert.IsType(t, &expr.FieldValues{}, rows[1])

	payload := expr.Map{"views": 2}
	_, err = compiler.UpdatePayload[Article](c, payload)
	require.NoError(t, err)
	require.Len(t, updates, 3)
	assert.Equal(t, payload, rows[2])

	st, err = compiler.Insert(c, &Article{Title: "t"})
	require.NoError(t, err)
	assert.Equal(t, "audited", st.Args[4].Value)
	require.Len(t, inserts, 1)
	assert.Len(t, updates, 3)

	// Deletes are not filtered.
	_, err = compiler.Delete(c, ArticleID.EQ(1))
	require.NoError(t, err)
	assert.Len(t, updates, 3)
	assert.Len(t, inserts, 1)
}

func TestFilterError(t *testing.T) {
	t.Parallel()
	errDenied := errors.New("denied")
	c := newCompiler(t, sql.Postgres(), compiler.WithUpdateFilter(func(*compiler.Command, any) error {
		return errDenied
	}))
	st, err := compiler.Update(c, &Article{Id: 1})
	require.Error(t, err)
	assert.Nil(t, st)
	assert.ErrorIs(t, err, errDenied)
	var fe *compiler.FilterError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "update", fe.Cmd.Name)
	assert.Contains(t, err.Error(), "update filter on Article: denied")

	// Argument errors come first: the filter is not reached.
	_, err = compiler.UpdateAdd(c, expr.Init(ArticleViews.Set(1)), expr.Predicate[Article]{})
	assert.True(t, veloxsql.IsArgumentError(err))
}

func TestChainAndWith(t *testing.T) {
	t.Parallel()
	var seen []string
	record := func(name string) compiler.Filter {
		return func(cmd *compiler.Command, _ any) error {
			seen = append(seen, name+":"+cmd.Name)
			return nil
		}
	}
	errStop := errors.New("stop")
	base := newCompiler(t, sql.Postgres())
	c, err := base.With(compiler.WithInsertFilter(compiler.Chain(record("audit"), nil, record("acl"))))
	require.NoError(t, err)
	assert.Same(t, base.Registry(), c.Registry())

	_, err = compiler.Insert(c, &Tag{Name: "go"})
	require.NoError(t, err)
	assert.Equal(t, []string{"audit:insert", "acl:insert"}, seen)

	// The derived filter does not leak into the base compiler.
	_, err = compiler.Insert(base, &Tag{Name: "go"})
	require.NoError(t, err)
	assert.Len(t, seen, 2)

	seen = nil
	stopped, err := base.With(compiler.WithInsertFilter(compiler.Chain(
		func(*compiler.Command, any) error { return errStop },
		record("never"),
	)))
	require.NoError(t, err)
	_, err = compiler.InsertValues(stopped, expr.Init(ArticleTitle.Set("x")))
	assert.ErrorIs(t, err, errStop)
	assert.Empty(t, seen)

	// Queries built by the base compiler remain valid on derived ones.
	st, err := compiler.DeleteQuery(c, compiler.From[Tag](base))
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "Tag"`, st.SQL)

	_, err = base.With(compiler.WithLogger(nil))
	assert.True(t, compiler.IsConfigError(err))
}

func TestNew(t *testing.T) {
	t.Parallel()
	_, err := compiler.New(nil)
	assert.True(t, compiler.IsConfigError(err))
	assert.ErrorIs(t, err, compiler.ErrInvalidConfig)

	for _, opt := range []compiler.Option{
		compiler.WithRegistry(nil),
		compiler.WithLogger(nil),
		compiler.WithInsertFilter(nil),
		compiler.WithUpdateFilter(nil),
	} {
		_, err := compiler.New(sql.Postgres(), opt)
		assert.True(t, compiler.IsConfigError(err), "%v", err)
	}

	r := schema.NewRegistry()
	c, err := compiler.New(sql.MySQL(), compiler.WithRegistry(r))
	require.NoError(t, err)
	assert.Same(t, r, c.Registry())
	assert.Equal(t, dialect.MySQL, c.Provider().Name())

	c, err = compiler.New(sql.MySQL())
	require.NoError(t, err)
	assert.Same(t, schema.Default(), c.Registry())

	_, err = compiler.Update[Article](nil, &Article{})
	assert.True(t, veloxsql.IsArgumentError(err))
	_, _, err = compiler.From[Article](nil).WhereExpression()
	assert.True(t, veloxsql.IsArgumentError(err))

	q := compiler.From[Article](c).Where(ArticleID.EQ(1))
	_, err = compiler.UpdateOnly[Article](nil, &Article{Id: 1}, q)
	assert.True(t, veloxsql.IsArgumentError(err), "%v", err)
	_, err = compiler.DeleteQuery[Article](nil, q)
	assert.True(t, veloxsql.IsArgumentError(err), "%v", err)

	_, err = compiler.DeleteQuery(c, new(compiler.Query[Article]))
	assert.True(t, veloxsql.IsArgumentError(err), "%v", err)
	_, _, err = new(compiler.Query[Article]).WhereExpression()
	assert.True(t, veloxsql.IsArgumentError(err), "%v", err)
}

func TestQueryWhereExpression(t *testing.T) {
	t.Parallel()
	c := newCompiler(t, sql.Postgres())
	q := compiler.From[Article](c)
	require.NoError(t, q.Err())

	where, args, err := q.WhereExpression()
	require.NoError(t, err)
	assert.Empty(t, where)
	assert.Empty(t, args)

	q.Where(ArticleViews.GT(10)).Where(ArticleTitle.Contains("go"))
	where, args, err = q.WhereExpression()
	require.NoError(t, err)
	assert.Equal(t, `"Views" > $1 AND "Title" LIKE $2 ESCAPE '!'`, where)
	require.Len(t, args, 2)
	assert.Equal(t, schema.TypeInt, args[0].Type)
	assert.Equal(t, "%go%", args[1].Value)
	assert.Equal(t, q.Predicate().String(), expr.And(ArticleViews.GT(10), ArticleTitle.Contains("go")).String())

	// Same shape, same text.
	again, _, err := compiler.From[Article](c).Where(ArticleViews.GT(1), ArticleTitle.Contains("x")).WhereExpression()
	require.NoError(t, err)
	assert.Equal(t, where, again)

	bad := compiler.From[struct{}](c)
	assert.Error(t, bad.Err())
	_, err = compiler.DeleteQuery(c, bad)
	assert.Error(t, err)
}

func TestDebugLogging(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := newCompiler(t, sql.Postgres(), compiler.WithLogger(logger))

	_, err := compiler.UpdateOnlyFields(c, &Tag{Name: "x"}, []string{"Name", "Label"})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "dropped unknown field name")
	assert.Contains(t, out, "field=Label")
	assert.Contains(t, out, "compiled statement")
	assert.Contains(t, out, "op=update-only-fields")
	assert.Contains(t, out, "table=Tag")
}
