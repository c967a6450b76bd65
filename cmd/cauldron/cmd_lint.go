package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ochairo/cauldron/internal/domain/entities"
	"github.com/ochairo/cauldron/internal/domain/services"
)

func runLint(_ context.Context, args []string) {
	fs := flag.NewFlagSet("lint", flag.ExitOnError)
	var (
		quiet = fs.Bool("quiet", false, "Only output errors (exit code indicates success/failure)")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cauldron lint <pipeline-file> [options]

Check a pipeline definition for problems: undeclared stages, missing
scripts, unknown or cyclic needs, invalid branch patterns.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Exit Codes:
  0  No errors (warnings may be present)
  1  Lint errors found
  2  Usage error or unparseable pipeline

Examples:
  cauldron lint ci.yml
  cauldron lint ci.yml --quiet
`)
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
	report := services.NewLinter().Lint(def)

	if !*quiet {
		fmt.Printf("🔍 Linting %s (%d jobs, %d stages)\n\n", def.Name, len(def.Jobs), len(def.Stages))
		for _, finding := range report.Findings {
			printFinding(finding)
		}
		if len(report.Findings) > 0 {
			fmt.Println()
		}
	}

	errCount := len(report.Errors())
	warnCount := len(report.Warnings())

	if report.HasErrors() {
		if !*quiet {
			fmt.Printf("❌ FAILED: %d error(s), %d warning(s)\n", errCount, warnCount)
		} else {
			for _, finding := range report.Errors() {
				printFinding(finding)
			}
		}
		os.Exit(1)
	}

	if !*quiet {
		if warnCount > 0 {
			fmt.Printf("✅ OK with %d warning(s)\n", warnCount)
		} else {
			fmt.Println("✅ OK: no problems found")
		}
	}
}

func printFinding(finding entities.Finding) {
	marker := "⚠️ "
	if finding.Severity == entities.SeverityError {
		marker = "❌"
	}
	if finding.Job != "" {
		fmt.Printf("  %s [%s] %s: %s\n", marker, finding.Rule, finding.Job, finding.Message)
	} else {
		fmt.Printf("  %s [%s] %s\n", marker, finding.Rule, finding.Message)
	}
}
