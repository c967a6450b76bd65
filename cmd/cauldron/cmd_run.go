// Package main provides the cauldron CLI for linting and running pipelines.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ochairo/cauldron/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/cauldron/internal/domain-orchestrators"
	"github.com/ochairo/cauldron/internal/domain/entities"
	"github.com/ochairo/cauldron/internal/domain/interfaces"
)

// RunReport represents the JSON output of a pipeline run
type RunReport struct {
	Pipeline        string      `json:"pipeline"`
	RunID           string      `json:"run_id"`
	Branch          string      `json:"branch,omitempty"`
	OK              bool        `json:"ok"`
	SuccessfulJobs  int         `json:"successful_jobs"`
	FailedJobs      int         `json:"failed_jobs"`
	TimeoutJobs     int         `json:"timeout_jobs"`
	SkippedJobs     int         `json:"skipped_jobs"`
	JobDetails      []JobDetail `json:"job_details"`
	DurationSeconds float64     `json:"duration_seconds"`
}

// JobDetail represents the outcome of a single job
type JobDetail struct {
	Job       string   `json:"job"`
	Stage     string   `json:"stage"`
	Status    string   `json:"status"`
	Reason    string   `json:"reason,omitempty"`
	Steps     int      `json:"steps"`
	Artifacts []string `json:"artifacts,omitempty"`
}

func runRun(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	var (
		branch         = fs.String("branch", "master", "Branch to evaluate only/except filters against")
		workDir        = fs.String("workdir", ".", "Working directory for script steps")
		artifactsDir   = fs.String("artifacts-dir", "artifacts", "Directory to collect declared artifacts into")
		timeoutMinutes = fs.Int("timeout", 60, "Default timeout per job in minutes")
		successFile    = fs.String("successes", "", "Optional file to write successful job names")
		failureFile    = fs.String("failures", "", "Optional file to write failed job names")
		jsonOutput     = fs.String("json-output", "", "Optional JSON file for detailed report")
		quiet          = fs.Bool("quiet", false, "Quiet mode - minimal output")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cauldron run <pipeline-file> [options]

Execute a pipeline locally: stages in declared order, jobs within a
stage in parallel. A failing job stops later stages; jobs marked
allow_failure do not.

Examples:
  cauldron run ci.yml
  cauldron run ci.yml --branch develop
  cauldron run ci.yml --workdir ./project --artifacts-dir ./out
  cauldron run ci.yml --json-output run-report.json --quiet

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

	var logger interfaces.Logger = interfaces.NewStderrLogger()
	if *quiet {
		logger = &interfaces.NoOpLogger{}
	}

	orch := orchestrators.NewRunOrchestrator(
		gateways.NewShellRunner(),
		gateways.NewArtifactCollector(),
		logger,
		orchestrators.RunOrchestratorConfig{
			WorkDir:        *workDir,
			ArtifactsDir:   *artifactsDir,
			DefaultTimeout: time.Duration(*timeoutMinutes) * time.Minute,
		},
	)

	if !*quiet {
		fmt.Printf("Running pipeline %s (branch %s)\n\n", def.Name, *branch)
	}

	run, err := orch.RunPipeline(ctx, def, *branch)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	report := buildRunReport(run)

	if *successFile != "" {
		if err := writeJobNamesFile(*successFile, run.JobsByStatus(entities.StatusSuccess)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to write success file: %v\n", err)
		}
	}
	if *failureFile != "" {
		failed := append(run.JobsByStatus(entities.StatusFailed), run.JobsByStatus(entities.StatusTimeout)...)
		if err := writeJobNamesFile(*failureFile, failed); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to write failure file: %v\n", err)
		}
	}

	if *jsonOutput != "" {
		reportData, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to marshal JSON report: %v\n", err)
		} else {
			if err := os.WriteFile(*jsonOutput, reportData, 0600); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to write JSON report: %v\n", err)
			}
		}
	}

	if !*quiet {
		printRunSummary(run)
	}

	if !run.OK() {
		os.Exit(1)
	}
}

func buildRunReport(run *entities.PipelineRun) RunReport {
	report := RunReport{
		Pipeline:        run.Pipeline,
		RunID:           run.ID,
		Branch:          run.Branch,
		OK:              run.OK(),
		SuccessfulJobs:  run.CountByStatus(entities.StatusSuccess),
		FailedJobs:      run.CountByStatus(entities.StatusFailed),
		TimeoutJobs:     run.CountByStatus(entities.StatusTimeout),
		SkippedJobs:     run.CountByStatus(entities.StatusSkipped),
		DurationSeconds: run.Duration.Seconds(),
	}

	for _, job := range run.Jobs {
		report.JobDetails = append(report.JobDetails, JobDetail{
			Job:       job.JobName,
			Stage:     job.Stage,
			Status:    string(job.Status),
			Reason:    job.Reason,
			Steps:     len(job.Steps),
			Artifacts: job.Artifacts,
		})
	}

	return report
}

func writeJobNamesFile(filename string, jobs []entities.JobResult) error {
	if len(jobs) == 0 {
		return os.WriteFile(filename, []byte{}, 0600)
	}

	var lines []string
	for _, j := range jobs {
		lines = append(lines, j.JobName)
	}

	return os.WriteFile(filename, []byte(strings.Join(lines, "\n")+"\n"), 0600)
}

func printRunSummary(run *entities.PipelineRun) {
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("📊 Run Summary for %s\n", run.Pipeline)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	for _, job := range run.Jobs {
		switch job.Status {
		case entities.StatusSuccess:
			fmt.Printf("  ✅ %s (%s)\n", job.JobName, job.Stage)
		case entities.StatusFailed:
			fmt.Printf("  ❌ %s (%s)", job.JobName, job.Stage)
			if job.AllowFailure {
				fmt.Printf(" - allowed failure")
			}
			fmt.Println()
		case entities.StatusTimeout:
			fmt.Printf("  ⏱️  %s (%s) - %s\n", job.JobName, job.Stage, job.Reason)
		case entities.StatusSkipped:
			fmt.Printf("  ⏭️  %s (%s) - %s\n", job.JobName, job.Stage, job.Reason)
		}
	}

	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("⏱️  Duration: %.2f seconds\n", run.Duration.Seconds())

	if run.OK() {
		fmt.Println("✅ Pipeline succeeded")
	} else {
		fmt.Println("❌ Pipeline failed")
	}
}
