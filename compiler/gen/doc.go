// Package gen generates typed field handles for model structs.
//
// Handles are what predicates, selectors and initializers are built from.
// Given
//
//	type User struct {
//	    ID   int64 `velox:",pk"`
//	    Name string
//	}
//
// the generator writes user_fields.go:
//
//	var (
//	    UserID   = expr.Field[User, int64]("ID")
//	    UserName = expr.StringField[User]("Name")
//	)
//
// Fields are collected the way schema.Registry collects them, so every
// handle names a field the registry knows.
package gen
