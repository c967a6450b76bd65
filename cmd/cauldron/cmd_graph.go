package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ochairo/cauldron/internal/external-adapters/graphviz"
)

func runGraph(_ context.Context, args []string) {
	fs := flag.NewFlagSet("graph", flag.ExitOnError)
	var (
		format = fs.String("format", "dot", "Output format: dot or svg")
		output = fs.String("output", "", "Output file (default: stdout)")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cauldron graph <pipeline-file> [options]

Render the job graph of a pipeline. Stages become clusters (dot) or
columns (svg); edges are job needs.

Examples:
  cauldron graph ci.yml
  cauldron graph ci.yml --format svg --output ci.svg
  cauldron graph ci.yml | dot -Tpng -o ci.png

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(2)
	}

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: pipeline file is required\n\n")
		fs.Usage()
		os.Exit(2)
	}

	def := loadPipeline(fs.Arg(0))

	drawer, err := graphviz.FromPipeline(def)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var out io.Writer = os.Stdout
	if *output != "" {
		//nolint:gosec // G304: output path is user-provided
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		//nolint:errcheck // Best-effort close on exit path
		defer f.Close()
		out = f
	}

	switch *format {
	case "dot":
		err = drawer.WriteDOT(out)
	case "svg":
		err = drawer.WriteSVG(out)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown format %q (want dot or svg)\n", *format)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
