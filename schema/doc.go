// Package schema builds the column metadata of model types.
//
// A model is a Go struct. Each exported field maps to one column; the
// `velox` struct tag overrides the column name and declares column options:
//
//	type DefaultValues struct {
//	    ID         int       `velox:",pk"`
//	    DefaultInt int       `velox:",default=1,onupdate"`
//	    Name       string    `velox:"name"`
//	    Secret     string    `velox:"-"`
//	    CreatedAt  time.Time `velox:",default=$system_utc"`
//	    UpdatedAt  time.Time `velox:",default=$system_utc,onupdate"`
//	    Version    int       `velox:",skipupdate"`
//	}
//
// # Defaults
//
// A default applies on INSERT whenever the field has no explicit value. With
// onupdate it also applies to replace-UPDATE statements. Literal defaults are
// parsed according to the field type; quoted values are strings:
//
//	`velox:",default=1"`          // int64(1)
//	`velox:",default=1.1"`        // float64(1.1)
//	`velox:",default='String'"`   // "String"
//	`velox:",default=$now"`       // CURRENT_TIMESTAMP
//
// # Registry
//
// ModelDefinitions are built on first use and cached for the process
// lifetime. Field lookups ignore case and accept either the Go field name or
// the column name:
//
//	md, err := schema.For[DefaultValues](schema.Default())
//	fd, ok := md.Field("defaultint")
//
// # Naming
//
// NamingIdentity (default) keeps Go names. NamingSnake derives snake_case
// column names and pluralized snake_case table names:
//
//	r := schema.NewRegistry(schema.WithNaming(schema.NamingSnake))
//	// DefaultValues => table "default_values", column "default_int"
//
// Models implementing Tabler choose their own table name.
package schema
