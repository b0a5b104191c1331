package gen

import (
	"context"
	"errors"
	"fmt"
	"go/types"
	"path/filepath"
	"reflect"

	"golang.org/x/tools/go/packages"

	"github.com/syssam/veloxsql/schema"
)

// Model is a struct type whose field handles are generated.
type Model struct {
	Name    string
	PkgPath string
	PkgName string
	// Dir is the source directory of the package, when loaded from disk.
	Dir    string
	Fields []*Field
}

// Field is an exported field of a model, after embedded structs are
// flattened.
type Field struct {
	Name string
	Type types.Type
}

// IsString reports whether the field is a plain string and receives a
// StringField handle.
func (f *Field) IsString() bool {
	return types.Identical(f.Type, types.Typ[types.String])
}

// ErrNoModels is returned when a load matches no struct types.
var ErrNoModels = errors.New("gen: no model types found")

// Load type-checks the package matching pattern and collects the named
// struct types. With no names, every exported struct type is collected.
func Load(ctx context.Context, cfg *Config, pattern string, names ...string) ([]*Model, error) {
	pcfg := &packages.Config{
		Mode:       packages.NeedName | packages.NeedFiles | packages.NeedTypes,
		Context:    ctx,
		Dir:        cfg.Dir,
		BuildFlags: cfg.BuildFlags,
	}
	pkgs, err := packages.Load(pcfg, pattern)
	if err != nil {
		return nil, fmt.Errorf("load package %q: %w", pattern, err)
	}
	if len(pkgs) != 1 {
		return nil, fmt.Errorf("load package %q: expected one package, got %d", pattern, len(pkgs))
	}
	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		return nil, fmt.Errorf("load package %q: %w", pattern, pkg.Errors[0])
	}
	models, err := Collect(pkg.Types, names...)
	if err != nil {
		return nil, err
	}
	if len(pkg.GoFiles) > 0 {
		for _, m := range models {
			m.Dir = filepath.Dir(pkg.GoFiles[0])
		}
	}
	return models, nil
}

// Collect reads the named struct types of pkg in the order given. With no
// names, every exported struct type is collected in name order.
func Collect(pkg *types.Package, names ...string) ([]*Model, error) {
	scope := pkg.Scope()
	if len(names) == 0 {
		for _, name := range scope.Names() {
			tn, ok := scope.Lookup(name).(*types.TypeName)
			if !ok || !tn.Exported() || tn.IsAlias() {
				continue
			}
			if _, ok := tn.Type().Underlying().(*types.Struct); ok {
				names = append(names, name)
			}
		}
	}
	models := make([]*Model, 0, len(names))
	for _, name := range names {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok {
			return nil, fmt.Errorf("gen: type %s not found in %s", name, pkg.Path())
		}
		named, ok := tn.Type().(*types.Named)
		if !ok {
			return nil, fmt.Errorf("gen: %s.%s is not a defined type", pkg.Path(), name)
		}
		if named.TypeParams().Len() > 0 {
			return nil, fmt.Errorf("gen: %s.%s is generic", pkg.Path(), name)
		}
		st, ok := named.Underlying().(*types.Struct)
		if !ok {
			return nil, fmt.Errorf("gen: %s.%s is not a struct", pkg.Path(), name)
		}
		m := &Model{Name: name, PkgPath: pkg.Path(), PkgName: pkg.Name()}
		collect(m, st)
		models = append(models, m)
	}
	if len(models) == 0 {
		return nil, ErrNoModels
	}
	return models, nil
}

// collect mirrors the field walk of schema.Registry: unexported fields and
// fields tagged "-" are skipped, untagged embedded plain structs are
// flattened.
func collect(m *Model, st *types.Struct) {
	for i := range st.NumFields() {
		v := st.Field(i)
		if !v.Exported() {
			continue
		}
		tag, hasTag := reflect.StructTag(st.Tag(i)).Lookup(schema.TagName)
		if v.Embedded() && !hasTag {
			if inner, ok := plainStruct(v.Type()); ok {
				collect(m, inner)
				continue
			}
		}
		if tag == "-" {
			continue
		}
		m.Fields = append(m.Fields, &Field{Name: v.Name(), Type: v.Type()})
	}
}

// plainStruct reports whether t is a struct stored as a whole document
// rather than a column value such as time.Time or a driver.Valuer.
func plainStruct(t types.Type) (*types.Struct, bool) {
	named, ok := types.Unalias(t).(*types.Named)
	if !ok {
		return nil, false
	}
	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return nil, false
	}
	if obj := named.Obj(); obj.Pkg() != nil && obj.Pkg().Path() == "time" && obj.Name() == "Time" {
		return nil, false
	}
	for _, recv := range []types.Type{named, types.NewPointer(named)} {
		if sel := types.NewMethodSet(recv).Lookup(nil, "Value"); sel != nil {
			return nil, false
		}
	}
	return st, true
}
