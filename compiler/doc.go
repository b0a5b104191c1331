// Package compiler resolves the fields written by a mutation and assembles
// parameterized INSERT, UPDATE and DELETE statements through a dialect
// provider.
//
// The fields of an UPDATE come from one of three sources: a typed selector,
// a list of field names, or the model itself minus the fields marked
// skip-on-update. Fields with an on-update default that receive no explicit
// value are set to their rendered default:
//
//	c, err := compiler.New(sql.Postgres())
//	st, err := compiler.UpdateOnlySelect(c, &user,
//	    expr.Select[User](UserName),
//	    UserID.EQ(user.Id),
//	)
//	// UPDATE "User" SET "Name" = $1, "UpdatedAt" = (now() at time zone 'utc') WHERE "Id" = $2
//
// Additive updates increment numeric columns and require a predicate:
//
//	st, err := compiler.UpdateAdd(c, expr.Init(UserVisits.Set(1)), UserID.EQ(42))
//	// UPDATE "User" SET "Visits" = "Visits" + $1 WHERE "Id" = $2
//
// Filters run before an INSERT or UPDATE is assembled and may reject it.
// Request-scoped filters, such as the policies of the privacy package, are
// attached to a derived compiler:
//
//	rc, err := c.With(compiler.WithUpdateFilter(policy.Filter(ctx)))
//
// Statements are executed by any Execer, such as the drivers of the
// dialect/sql package:
//
//	n, err := st.Exec(ctx, drv)
package compiler
