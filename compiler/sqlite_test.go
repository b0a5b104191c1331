package compiler_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/veloxsql/compiler"
	"github.com/syssam/veloxsql/dialect"
	"github.com/syssam/veloxsql/dialect/sql"
	"github.com/syssam/veloxsql/expr"
)

// Runs the compiled statements against an in-memory SQLite database and
// reads back what the database stored.
func TestSQLiteDefaults(t *testing.T) {
	drv, err := sql.Open(dialect.SQLite, "file:compiler_defaults?mode=memory&cache=shared")
	require.NoError(t, err)
	defer drv.Close()
	drv.DB().SetMaxOpenConns(1)

	ctx := context.Background()
	require.NoError(t, drv.Exec(ctx, `CREATE TABLE "Article" (
		"Id" INTEGER PRIMARY KEY AUTOINCREMENT,
		"Title" TEXT NOT NULL,
		"Views" INTEGER NOT NULL,
		"Score" REAL NOT NULL,
		"Author" TEXT NOT NULL,
		"Status" TEXT NOT NULL,
		"UpdatedAt" DATETIME
	)`, []any{}, nil))

	c := newCompiler(t, sql.SQLite())
	row := func(id int) (title string, views int, score float64, author, status, updatedAt string) {
		t.Helper()
		require.NoError(t, sql.QueryRow(ctx, drv,
			`SELECT "Title", "Views", "Score", "Author", "Status", CAST("UpdatedAt" AS TEXT) FROM "Article" WHERE "Id" = ?`,
			[]any{id}, &title, &views, &score, &author, &status, &updatedAt))
		return
	}

	st, err := compiler.Insert(c, &Article{Title: "intro", Author: "a8m"})
	require.NoError(t, err)
	n, err := st.Exec(ctx, drv)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	title, views, _, author, status, stamped := row(1)
	assert.Equal(t, "intro", title)
	assert.Zero(t, views)
	assert.Equal(t, "a8m", author)
	assert.Equal(t, "draft", status)
	assert.NotEmpty(t, stamped)

	st, err = compiler.UpdateAdd(c, expr.Init(ArticleViews.Set(5), ArticleScore.Set(1.5)), ArticleID.EQ(1))
	require.NoError(t, err)
	_, err = st.Exec(ctx, drv)
	require.NoError(t, err)
	st, err = compiler.UpdateAdd(c, expr.Init(ArticleViews.Set(2)), ArticleID.EQ(1))
	require.NoError(t, err)
	_, err = st.Exec(ctx, drv)
	require.NoError(t, err)
	_, views, score, _, _, _ := row(1)
	assert.Equal(t, 7, views)
	assert.Equal(t, 1.5, score)

	// Author is skip-on-update and survives a full update.
	st, err = compiler.Update(c, &Article{Id: 1, Title: "renamed", Author: "other", Status: "live"}, ArticleID.EQ(1))
	require.NoError(t, err)
	_, err = st.Exec(ctx, drv)
	require.NoError(t, err)
	title, views, _, author, status, _ = row(1)
	assert.Equal(t, "renamed", title)
	assert.Zero(t, views)
	assert.Equal(t, "a8m", author)
	assert.Equal(t, "live", status)

	st, err = compiler.UpdateOnlyFields(c, &Article{Title: "only", Status: "ignored"}, []string{"title"}, ArticleID.EQ(1))
	require.NoError(t, err)
	_, err = st.Exec(ctx, drv)
	require.NoError(t, err)
	title, _, _, _, status, _ = row(1)
	assert.Equal(t, "only", title)
	assert.Equal(t, "live", status)

	st, err = compiler.UpdatePayload[Article](c, expr.Map{"status": "archived"}, ArticleTitle.HasPrefix("on"))
	require.NoError(t, err)
	n, err = st.Exec(ctx, drv)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, _, _, _, status, _ = row(1)
	assert.Equal(t, "archived", status)

	st, err = compiler.Delete(c, expr.And(ArticleID.EQ(1), ArticleStatus.In("archived", "draft")))
	require.NoError(t, err)
	n, err = st.Exec(ctx, drv)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	st, err = compiler.DeleteQuery(c, compiler.From[Article](c))
	require.NoError(t, err)
	n, err = st.Exec(ctx, drv)
	require.NoError(t, err)
	assert.Zero(t, n)
}
