package schema

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-openapi/inflect"
	"golang.org/x/sync/singleflight"
)

// Naming selects how table and column names are derived when a model does not
// declare them.
type Naming string

// Naming strategies.
const (
	// NamingIdentity uses the Go type name as table name and the Go field name as column name.
	NamingIdentity Naming = "identity"
	// NamingSnake uses pluralized snake_case table names and snake_case column names.
	NamingSnake Naming = "snake"
)

// ParseNaming returns the naming strategy with the given name.
func ParseNaming(s string) (Naming, error) {
	switch n := Naming(strings.ToLower(s)); n {
	case "", NamingIdentity:
		return NamingIdentity, nil
	case NamingSnake:
		return n, nil
	default:
		return "", fmt.Errorf("schema: unknown naming strategy %q", s)
	}
}

func (n Naming) column(field string) string {
	if n == NamingSnake {
		return inflect.Underscore(field)
	}
	return field
}

func (n Naming) table(typ string) string {
	if n == NamingSnake {
		return inflect.Pluralize(inflect.Underscore(typ))
	}
	return typ
}

// Tabler is implemented by models that declare their own table name.
// A name of the form "schema.table" sets the schema qualifier.
type Tabler interface {
	TableName() string
}

// Registry builds ModelDefinitions on first use and caches them for the life
// of the process. It is safe for concurrent use.
type Registry struct {
	naming Naming
	models sync.Map // reflect.Type => *ModelDefinition
	group  singleflight.Group
}

// Option configures a Registry.
type Option func(*Registry)

// WithNaming sets the naming strategy. The default is NamingIdentity.
func WithNaming(n Naming) Option {
	return func(r *Registry) {
		r.naming = n
	}
}

// NewRegistry returns an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{naming: NamingIdentity}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// Naming returns the naming strategy of the registry.
func (r *Registry) Naming() Naming { return r.naming }

// For returns the ModelDefinition of T.
func For[T any](r *Registry) (*ModelDefinition, error) {
	return r.Load(reflect.TypeFor[T]())
}

// Load returns the ModelDefinition of the struct type t (or pointer to it).
//
// Concurrent first loads of one type are collapsed into a single build, and
// every caller observes the same stored value.
func (r *Registry) Load(t reflect.Type) (*ModelDefinition, error) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, &Error{Type: fmt.Sprint(t), Message: "model must be a struct"}
	}
	if v, ok := r.models.Load(t); ok {
		return v.(*ModelDefinition), nil
	}
	v, err, _ := r.group.Do(t.PkgPath()+"."+t.String(), func() (any, error) {
		return r.store(t)
	})
	if err != nil {
		return nil, err
	}
	md := v.(*ModelDefinition)
	if md.Type != t {
		// Two distinct types share a qualified name (e.g. function-local types).
		return r.store(t)
	}
	return md, nil
}

func (r *Registry) store(t reflect.Type) (*ModelDefinition, error) {
	if v, ok := r.models.Load(t); ok {
		return v.(*ModelDefinition), nil
	}
	md, err := r.build(t)
	if err != nil {
		return nil, err
	}
	v, _ := r.models.LoadOrStore(t, md)
	return v.(*ModelDefinition), nil
}

func (r *Registry) build(t reflect.Type) (*ModelDefinition, error) {
	md := &ModelDefinition{
		Type:  t,
		Name:  t.Name(),
		Table: r.naming.table(t.Name()),
	}
	if tb, ok := reflect.New(t).Interface().(Tabler); ok {
		md.Table = tb.TableName()
	}
	if s, table, ok := strings.Cut(md.Table, "."); ok {
		md.Schema, md.Table = s, table
	}
	if md.Table == "" {
		return nil, &Error{Type: t.String(), Message: "empty table name"}
	}
	if err := r.collect(md, t, nil); err != nil {
		return nil, err
	}
	if len(md.Fields) == 0 {
		return nil, &Error{Type: t.String(), Message: "model has no fields"}
	}
	columns := make(map[string]string, len(md.Fields))
	for _, fd := range md.Fields {
		k := fold(fd.Column)
		if prev, ok := columns[k]; ok {
			return nil, &Error{Type: t.String(), Field: fd.Name, Message: fmt.Sprintf("column %q already used by %s", fd.Column, prev)}
		}
		columns[k] = fd.Name
		if fd.PrimaryKey {
			if md.PrimaryKey != nil {
				return nil, &Error{Type: t.String(), Field: fd.Name, Message: "multiple primary keys"}
			}
			md.PrimaryKey = fd
		}
	}
	md.index()
	return md, nil
}

// collect appends the fields of t to md, flattening embedded structs.
func (r *Registry) collect(md *ModelDefinition, t reflect.Type, parent []int) error {
	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, hasTag := sf.Tag.Lookup(TagName)
		index := append(append([]int(nil), parent...), i)
		if sf.Anonymous && !hasTag && sf.Type.Kind() == reflect.Struct && TypeOf(sf.Type) == TypeJSON {
			if err := r.collect(md, sf.Type, index); err != nil {
				return err
			}
			continue
		}
		ft, err := parseTag(tag)
		if err != nil {
			return &Error{Type: md.Type.String(), Field: sf.Name, Cause: err}
		}
		if ft.ignore {
			continue
		}
		fd := &FieldDefinition{
			Name:          sf.Name,
			Column:        ft.column,
			Type:          ft.typ,
			GoType:        sf.Type,
			Index:         index,
			PrimaryKey:    ft.pk,
			AutoIncrement: ft.autoIncrement,
			SkipUpdate:    ft.skipUpdate,
		}
		switch sf.Type.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
			fd.Nullable = true
		}
		if fd.Column == "" {
			fd.Column = r.naming.column(sf.Name)
		}
		if fd.Type == TypeUnknown {
			fd.Type = TypeOf(sf.Type)
		}
		if ft.hasDefault {
			if fd.Default, err = parseDefault(ft.defaultRaw, sf.Type, ft.onUpdate); err != nil {
				return &Error{Type: md.Type.String(), Field: sf.Name, Cause: err}
			}
		}
		md.Fields = append(md.Fields, fd)
	}
	return nil
}
