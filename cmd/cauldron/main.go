package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ochairo/cauldron/internal/domain/entities"
	"github.com/ochairo/cauldron/internal/external-adapters/yaml"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	command := os.Args[1]

	// Dispatch to subcommand
	switch command {
	case "run":
		runRun(ctx, os.Args[2:])
	case "lint":
		runLint(ctx, os.Args[2:])
	case "plan":
		runPlan(ctx, os.Args[2:])
	case "graph":
		runGraph(ctx, os.Args[2:])
	case "verify":
		runVerify(ctx, os.Args[2:])
	case "list":
		runList(ctx, os.Args[2:])
	case "watch":
		runWatch(ctx, os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`cauldron - Pipeline definition linter and local runner

Usage:
  cauldron <command> [options]

Commands:
  run     Execute a pipeline locally
  lint    Check a pipeline definition for problems
  plan    Show the execution plan for a pipeline
  graph   Render the job graph as dot or SVG
  verify  Verify the GPG signature of a pipeline file
  list    List available pipeline definitions
  watch   Re-lint and re-plan a pipeline on every change

Use "cauldron <command> --help" for more information about a command.`)
}

// loadPipeline parses a pipeline definition file, exiting on failure.
// Shared by the subcommands that take a pipeline file argument.
func loadPipeline(filePath string) *entities.Pipeline {
	def, err := yaml.NewPipelineParser().ParseFile(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	return def
}
