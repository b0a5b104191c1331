// Package expr provides typed predicate, selector and initializer
// expressions over model fields, and compiles predicates into
// dialect-rendered SQL fragments.
//
// # Predicates
//
// Field handles build predicate trees:
//
//	var (
//	    UserID   = expr.Field[User, int]("Id")
//	    UserName = expr.StringField[User]("Name")
//	)
//	p := expr.Or(UserID.In(1, 2, 3), UserName.HasPrefix("a8"))
//
// Compile renders a tree for a dialect. Every constant becomes one bound
// parameter. Templates are cached by model, dialect and the structural
// fingerprint of the tree, so trees differing only in their constants share
// a template.
//
// # Selectors and Initializers
//
// A Selector names fields without values; an Initializer assigns values:
//
//	expr.Select[User](UserName, UserAge)
//	expr.SelectFunc(func(u *User) []any { return []any{&u.Name} })
//	expr.Init(UserName.Set("a8m"), UserAge.SetFunc(func() int { return age }))
//
// Initializer extraction plans are cached by shape; values are read on every
// evaluation.
package expr
