// veloxsqlgen writes typed field handles for the model structs of a package.
//
//	go run github.com/syssam/veloxsql/cmd/veloxsqlgen -types User,Post ./models
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/syssam/veloxsql/compiler/gen"
)

func main() {
	var (
		typeList = flag.String("types", "", "comma separated model type names; empty selects every exported struct")
		target   = flag.String("target", "", "output directory; defaults to the package directory")
		pkgPath  = flag.String("package", "", "import path of the output package; defaults to the model package")
		pkgName  = flag.String("name", "", "name of the output package")
		tags     = flag.String("tags", "", "build tags used when loading the package")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: veloxsqlgen [flags] <package>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	pattern := flag.Arg(0)

	opts := []gen.Option{gen.WithPackage(*pkgPath, *pkgName)}
	if *target != "" {
		opts = append(opts, gen.WithTarget(*target))
	}
	if *tags != "" {
		opts = append(opts, gen.WithBuildFlags("-tags="+*tags))
	}
	cfg, err := gen.NewConfig(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "veloxsqlgen: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var names []string
	if *typeList != "" {
		for name := range strings.SplitSeq(*typeList, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
	}
	models, err := gen.Load(ctx, cfg, pattern, names...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "veloxsqlgen: %v\n", err)
		os.Exit(1)
	}
	if *target == "" {
		cfg.Target = models[0].Dir
	}
	metrics, err := gen.Generate(ctx, cfg, models)
	if err != nil {
		fmt.Fprintf(os.Stderr, "veloxsqlgen: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("veloxsqlgen: wrote %d files (%d bytes) to %s\n", metrics.FilesGenerated, metrics.TotalBytes, cfg.Target)
}
