package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ochairo/cauldron/internal/domain/services"
)

func runPlan(_ context.Context, args []string) {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	var (
		branch = fs.String("branch", "master", "Branch to evaluate only/except filters against")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cauldron plan <pipeline-file> [options]

Show the execution plan for a pipeline without running anything:
stage order, parallel job groups, and jobs skipped by branch filters.

Examples:
  cauldron plan ci.yml
  cauldron plan ci.yml --branch develop

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

	plan, err := services.NewPlanner().Plan(def, *branch)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Execution plan for %s (branch %s):\n\n", plan.Pipeline, plan.Branch)

	for _, stage := range plan.Stages {
		fmt.Printf("Stage %s (%d jobs):\n", stage.Name, stage.JobCount())

		for i, wave := range stage.Waves {
			if len(stage.Waves) > 1 {
				fmt.Printf("  Group %d: %s\n", i+1, strings.Join(wave, ", "))
			} else {
				for _, job := range wave {
					fmt.Printf("  ▶ %s\n", job)
				}
			}
		}

		for _, skipped := range stage.Skipped {
			fmt.Printf("  ⏭️  %s (skipped: %s)\n", skipped.Name, skipped.Reason)
		}

		fmt.Println()
	}
}
