package gateways

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestShellRunner_RunStep_Success(t *testing.T) {
	r := NewShellRunner()

	outcome := r.RunStep(context.Background(), StepConfig{
		Command: "echo 'Hello, World!'",
	})

	if !outcome.Success {
		t.Errorf("RunStep() failed: %v", outcome.Error)
	}
	if outcome.ExitCode != 0 {
		t.Errorf("RunStep() exit code = %d, want 0", outcome.ExitCode)
	}
	if outcome.Stdout != "Hello, World!\n" {
		t.Errorf("RunStep() stdout = %q, want %q", outcome.Stdout, "Hello, World!\n")
	}
}

func TestShellRunner_RunStep_NonZeroExit(t *testing.T) {
	r := NewShellRunner()

	outcome := r.RunStep(context.Background(), StepConfig{
		Command: "exit 42",
	})

	if outcome.Success {
		t.Error("RunStep() should have failed")
	}
	if outcome.ExitCode != 42 {
		t.Errorf("RunStep() exit code = %d, want 42", outcome.ExitCode)
	}
	if outcome.TimedOut {
		t.Error("RunStep() should not report timeout for a plain failure")
	}
}

func TestShellRunner_RunStep_Environment(t *testing.T) {
	r := NewShellRunner()

	outcome := r.RunStep(context.Background(), StepConfig{
		Command: "echo $CAULDRON_JOB",
		Env: map[string]string{
			"CAULDRON_JOB": "test:py36",
		},
	})

	if !outcome.Success {
		t.Fatalf("RunStep() failed: %v", outcome.Error)
	}
	if strings.TrimSpace(outcome.Stdout) != "test:py36" {
		t.Errorf("RunStep() stdout = %q, want test:py36", outcome.Stdout)
	}
}

func TestShellRunner_RunStep_WorkingDir(t *testing.T) {
	r := NewShellRunner()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "marker"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	outcome := r.RunStep(context.Background(), StepConfig{
		Command:    "ls",
		WorkingDir: dir,
	})

	if !outcome.Success {
		t.Fatalf("RunStep() failed: %v", outcome.Error)
	}
	if !strings.Contains(outcome.Stdout, "marker") {
		t.Errorf("RunStep() stdout = %q, want listing containing marker", outcome.Stdout)
	}
}

func TestShellRunner_RunStep_Timeout(t *testing.T) {
	r := NewShellRunner()

	outcome := r.RunStep(context.Background(), StepConfig{
		Command: "sleep 5",
		Timeout: 100 * time.Millisecond,
	})

	if outcome.Success {
		t.Error("RunStep() should have timed out")
	}
	if !outcome.TimedOut {
		t.Error("RunStep() TimedOut = false, want true")
	}
	if outcome.ExitCode != -1 {
		t.Errorf("RunStep() exit code = %d, want -1", outcome.ExitCode)
	}
}

func TestShellRunner_RunStep_Stderr(t *testing.T) {
	r := NewShellRunner()

	outcome := r.RunStep(context.Background(), StepConfig{
		Command: "echo oops >&2; exit 1",
	})

	if outcome.Success {
		t.Error("RunStep() should have failed")
	}
	if !strings.Contains(outcome.Stderr, "oops") {
		t.Errorf("RunStep() stderr = %q, want to contain oops", outcome.Stderr)
	}
}
