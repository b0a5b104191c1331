// Package veloxsql compiles typed predicate expressions, field selectors and
// partially-populated models into dialect-correct, parameterized INSERT, UPDATE
// and DELETE statements.
//
// The root package holds the error taxonomy shared by every subpackage:
//
//   - ArgumentError: a required selector, expression or model is missing.
//   - MappingError: a requested field has no column metadata.
//   - UnsupportedExpressionError: an expression cannot be compiled.
//
// All three are returned before any SQL text is produced.
//
// # Sub-packages
//
//   - schema: model and field metadata built from struct tags
//   - dialect: the dialect provider contract
//   - dialect/sql: Postgres, MySQL and SQLite providers and an execution adapter
//   - expr: predicates, selectors, initializers and their compile caches
//   - compiler: field resolution and statement assembly
//
// # Usage
//
//	type User struct {
//	    ID        int       `velox:"id,pk,autoincrement"`
//	    Name      string    `velox:"name"`
//	    Visits    int       `velox:"visits"`
//	    UpdatedAt time.Time `velox:"updated_at,default=$system_utc,onupdate"`
//	}
//
//	var (
//	    UserID     = expr.Field[User, int]("ID")
//	    UserVisits = expr.Field[User, int]("Visits")
//	)
//
//	c, _ := compiler.New(sql.Postgres())
//	st, err := compiler.UpdateAdd(c,
//	    expr.Init(UserVisits.Set(1)),
//	    UserID.EQ(42),
//	)
//	// UPDATE "User" SET "visits" = "visits" + $1 WHERE "id" = $2
package veloxsql
