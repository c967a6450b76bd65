// Package gateways contains adapters that touch the host system.
package gateways

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// ShellRunner executes single pipeline script steps on the host shell.
type ShellRunner struct {
	defaultTimeout time.Duration
}

// NewShellRunner creates a new shell runner
func NewShellRunner() *ShellRunner {
	return &ShellRunner{
		defaultTimeout: 60 * time.Minute,
	}
}

// StepConfig contains configuration for executing one script step.
type StepConfig struct {
	Command    string
	WorkingDir string
	Env        map[string]string
	Timeout    time.Duration
}

// StepOutcome contains the result of a step execution
type StepOutcome struct {
	Success  bool
	TimedOut bool
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	Error    error
}

// RunStep runs one script step with the given configuration.
// Use /bin/sh for maximum compatibility.
func (r *ShellRunner) RunStep(ctx context.Context, config StepConfig) *StepOutcome {
	startTime := time.Now()
	outcome := &StepOutcome{}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = r.defaultTimeout
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // G204: Step execution is intentional and controlled by the pipeline definition
	cmd := exec.CommandContext(execCtx, "/bin/sh", "-c", config.Command)

	if config.WorkingDir != "" {
		cmd.Dir = config.WorkingDir
	}

	env := os.Environ()
	for key, value := range config.Env {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	outcome.Duration = time.Since(startTime)
	outcome.Stdout = stdout.String()
	outcome.Stderr = stderr.String()

	if err != nil {
		outcome.Error = err
		var exitErr *exec.ExitError
		//nolint:gocritic // ifElseChain: checking different error types, not suitable for switch
		if execCtx.Err() == context.DeadlineExceeded {
			outcome.TimedOut = true
			outcome.Error = fmt.Errorf("step timed out after %v", timeout)
			outcome.ExitCode = -1
		} else if errors.As(err, &exitErr) {
			outcome.ExitCode = exitErr.ExitCode()
		} else {
			outcome.ExitCode = -1
		}
		return outcome
	}

	outcome.Success = true
	outcome.ExitCode = 0
	return outcome
}
