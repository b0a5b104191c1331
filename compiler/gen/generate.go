package gen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"
)

const exprPkg = "github.com/syssam/veloxsql/expr"

// Config controls where models are loaded from and handles are written to.
type Config struct {
	// Dir is the directory packages are loaded from. Empty means the
	// current directory.
	Dir        string
	BuildFlags []string

	// Target is the output directory.
	Target string
	// Package is the import path of the output package. Empty means the
	// model package.
	Package string
	// PackageName is the name of the output package. It defaults to the
	// base of Target, or the model package name when Package is empty.
	PackageName string

	Workers int
}

// Option configures a Config.
type Option func(*Config) error

// WithTarget sets the output directory.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return errors.New("gen: target directory cannot be empty")
		}
		c.Target = dir
		return nil
	}
}

// WithPackage sets the import path and name of the output package.
func WithPackage(path, name string) Option {
	return func(c *Config) error {
		c.Package = path
		c.PackageName = name
		return nil
	}
}

// WithDir sets the directory packages are loaded from.
func WithDir(dir string) Option {
	return func(c *Config) error {
		c.Dir = dir
		return nil
	}
}

// WithBuildFlags sets the build flags used when loading packages.
func WithBuildFlags(flags ...string) Option {
	return func(c *Config) error {
		c.BuildFlags = flags
		return nil
	}
}

// WithWorkers sets the number of files written in parallel.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return fmt.Errorf("gen: invalid worker count %d", n)
		}
		c.Workers = n
		return nil
	}
}

// NewConfig returns a Config with opts applied.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{Target: ".", Workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Metrics counts the output of a Generate call.
type Metrics struct {
	FilesGenerated int
	TotalBytes     int64
}

// Generate writes one <model>_fields.go file per model to the target
// directory.
func Generate(ctx context.Context, cfg *Config, models []*Model) (*Metrics, error) {
	if err := os.MkdirAll(cfg.Target, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	var (
		mu      sync.Mutex
		metrics Metrics
	)
	eg, ctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		eg.SetLimit(cfg.Workers)
	}
	for _, m := range models {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(cfg.Target, Filename(m))
			src, err := Render(cfg, m)
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, src, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			mu.Lock()
			metrics.FilesGenerated++
			metrics.TotalBytes += int64(len(src))
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return &metrics, nil
}

// Filename returns the name of the file holding the handles of m.
func Filename(m *Model) string {
	return inflect.Underscore(m.Name) + "_fields.go"
}

// Render returns the formatted source of the handles of m.
func Render(cfg *Config, m *Model) ([]byte, error) {
	f, err := File(cfg, m)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", m.Name, err)
	}
	src, err := imports.Process(Filename(m), buf.Bytes(), nil)
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", m.Name, err)
	}
	return src, nil
}

// File builds the handle declarations of m:
//
//	var (
//	    UserID   = expr.Field[User, int64]("ID")
//	    UserName = expr.StringField[User]("Name")
//	)
func File(cfg *Config, m *Model) (*jen.File, error) {
	pkgPath, pkgName := cfg.Package, cfg.PackageName
	if pkgPath == "" {
		pkgPath = m.PkgPath
	}
	if pkgName == "" {
		if pkgPath == m.PkgPath {
			pkgName = m.PkgName
		} else {
			pkgName = filepath.Base(cfg.Target)
		}
	}
	if pkgPath != m.PkgPath && !token.IsExported(m.Name) {
		return nil, fmt.Errorf("gen: unexported model %s is not visible from %s", m.Name, pkgPath)
	}
	f := jen.NewFilePathName(pkgPath, pkgName)
	f.HeaderComment("Code generated by veloxsqlgen. DO NOT EDIT.")

	model := jen.Qual(m.PkgPath, m.Name)
	defs := make([]jen.Code, 0, len(m.Fields))
	for _, fd := range m.Fields {
		var handle *jen.Statement
		if fd.IsString() {
			handle = jen.Qual(exprPkg, "StringField").Types(model.Clone())
		} else {
			typ, err := typeCode(fd.Type, pkgPath)
			if err != nil {
				return nil, fmt.Errorf("gen: %s.%s: %w", m.Name, fd.Name, err)
			}
			handle = jen.Qual(exprPkg, "Field").Types(model.Clone(), typ)
		}
		defs = append(defs, jen.Id(m.Name+fd.Name).Op("=").Add(handle).Call(jen.Lit(fd.Name)))
	}
	f.Commentf("Field handles of %s.", m.Name)
	f.Var().Defs(defs...)
	return f, nil
}

// typeCode renders t as seen from the package at path local.
func typeCode(t types.Type, local string) (*jen.Statement, error) {
	switch t := types.Unalias(t).(type) {
	case *types.Basic:
		if t.Kind() == types.UnsafePointer {
			return jen.Qual("unsafe", "Pointer"), nil
		}
		return jen.Id(t.Name()), nil
	case *types.Named:
		obj := t.Obj()
		var s *jen.Statement
		switch {
		case obj.Pkg() == nil:
			s = jen.Id(obj.Name())
		case obj.Pkg().Path() != local && !obj.Exported():
			return nil, fmt.Errorf("unexported type %s is not visible from %s", obj.Name(), local)
		default:
			s = jen.Qual(obj.Pkg().Path(), obj.Name())
		}
		if args := t.TypeArgs(); args.Len() > 0 {
			codes := make([]jen.Code, 0, args.Len())
			for i := range args.Len() {
				c, err := typeCode(args.At(i), local)
				if err != nil {
					return nil, err
				}
				codes = append(codes, c)
			}
			s = s.Types(codes...)
		}
		return s, nil
	case *types.Pointer:
		elem, err := typeCode(t.Elem(), local)
		if err != nil {
			return nil, err
		}
		return jen.Op("*").Add(elem), nil
	case *types.Slice:
		elem, err := typeCode(t.Elem(), local)
		if err != nil {
			return nil, err
		}
		return jen.Index().Add(elem), nil
	case *types.Array:
		elem, err := typeCode(t.Elem(), local)
		if err != nil {
			return nil, err
		}
		return jen.Index(jen.Lit(int(t.Len()))).Add(elem), nil
	case *types.Map:
		key, err := typeCode(t.Key(), local)
		if err != nil {
			return nil, err
		}
		elem, err := typeCode(t.Elem(), local)
		if err != nil {
			return nil, err
		}
		return jen.Map(key).Add(elem), nil
	case *types.Interface:
		if t.Empty() {
			return jen.Id("any"), nil
		}
	}
	return nil, fmt.Errorf("unsupported field type %s", t)
}
