package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ochairo/cauldron/internal/domain/entities"
	"github.com/ochairo/cauldron/internal/domain/interfaces/repositories"
	"github.com/ochairo/cauldron/internal/external-adapters/yaml"
)

func runList(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	var (
		pipelinesDir = fs.String("dir", "pipelines", "Path to pipelines directory")
		stage        = fs.String("stage", "", "Filter by declared stage (e.g., test)")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cauldron list [options]

List all available pipeline definitions.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  cauldron list
  cauldron list --dir ./ci
  cauldron list --stage deploy
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(2)
	}

	// Initialize repository
	var defRepo repositories.PipelineRepository = yaml.NewPipelineRepository(*pipelinesDir)

	var defs []*entities.Pipeline
	var err error

	if *stage != "" {
		defs, err = defRepo.GetPipelinesByStage(ctx, *stage)
	} else {
		defs, err = defRepo.ListPipelines(ctx)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing pipelines: %v\n", err)
		os.Exit(2)
	}

	if *stage != "" {
		fmt.Printf("Pipelines with stage %s (%d total):\n\n", *stage, len(defs))
	} else {
		fmt.Printf("Available pipelines (%d total):\n\n", len(defs))
	}

	for _, def := range defs {
		jobNames := make([]string, 0, len(def.Jobs))
		for _, job := range def.Jobs {
			jobNames = append(jobNames, job.Name)
		}

		fmt.Printf("  %-20s %d stage(s), %d job(s)\n", def.Name, len(def.Stages), len(def.Jobs))
		fmt.Printf("  %-20s Stages: %s\n", "", strings.Join(def.Stages, " → "))
		fmt.Printf("  %-20s Jobs: %s\n", "", strings.Join(jobNames, ", "))
		fmt.Println()
	}
}
