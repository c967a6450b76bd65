package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ochairo/cauldron/internal/domain-adapters/gateways"
	"github.com/ochairo/cauldron/internal/domain/services"
	"github.com/ochairo/cauldron/internal/external-adapters/yaml"
)

func runWatch(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	var (
		branch     = fs.String("branch", "master", "Branch to evaluate only/except filters against")
		debounceMs = fs.Int("debounce", 300, "Debounce interval in milliseconds")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cauldron watch <pipeline-file> [options]

Watch a pipeline file and re-lint it on every change. Editors that
replace the file on save are handled. Stop with Ctrl-C.

Examples:
  cauldron watch ci.yml
  cauldron watch ci.yml --branch develop --debounce 500

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

	filePath := fs.Arg(0)

	// Initial check before waiting for changes
	checkPipeline(filePath, *branch)

	fmt.Printf("👀 Watching %s for changes...\n\n", filePath)

	watcher := gateways.NewFileWatcher(time.Duration(*debounceMs) * time.Millisecond)
	err := watcher.Watch(ctx, filePath, func() {
		fmt.Printf("── %s changed at %s ──\n", filePath, time.Now().Format("15:04:05"))
		checkPipeline(filePath, *branch)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}

// checkPipeline parses, lints, and summarizes the plan. Unlike the
// lint subcommand it never exits; a broken file is just reported so
// the watch loop keeps going.
func checkPipeline(filePath, branch string) {
	def, err := yaml.NewPipelineParser().ParseFile(filePath)
	if err != nil {
		fmt.Printf("❌ Parse error: %v\n\n", err)
		return
	}

	report := services.NewLinter().Lint(def)
	for _, finding := range report.Findings {
		printFinding(finding)
	}

	if report.HasErrors() {
		fmt.Printf("❌ %d error(s), %d warning(s)\n\n", len(report.Errors()), len(report.Warnings()))
		return
	}

	plan, err := services.NewPlanner().Plan(def, branch)
	if err != nil {
		fmt.Printf("❌ Plan error: %v\n\n", err)
		return
	}

	total := 0
	for _, stage := range plan.Stages {
		total += stage.JobCount()
	}
	fmt.Printf("✅ OK: %d stage(s), %d runnable job(s) on %s\n\n", len(plan.Stages), total, branch)
}
