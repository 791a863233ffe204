package process_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/skillsenselab/diarized/process"
)

func TestRunCapturesOutput(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "sh",
		Args:   []string{"-c", "echo out; echo err >&2"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", result.ExitCode)
	}
	if got := strings.TrimSpace(string(result.Stdout)); got != "out" {
		t.Fatalf("expected 'out' on stdout, got %q", got)
	}
	if got := strings.TrimSpace(string(result.Stderr)); got != "err" {
		t.Fatalf("expected 'err' on stderr, got %q", got)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "sh",
		Args:   []string{"-c", "exit 3"},
	})
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if result.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", result.ExitCode)
	}
}

func TestRunReclaimOnDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	result, err := process.Run(ctx, process.Command{
		Binary:      "sleep",
		Args:        []string{"30"},
		GracePeriod: 300 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected error when deadline kills the process")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected error to wrap DeadlineExceeded, got %v", err)
	}
	if result.ExitCode != -1 {
		t.Fatalf("expected exit code -1 for killed process, got %d", result.ExitCode)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("reclaim took too long: %v", elapsed)
	}
}

func TestRunGracefulTermination(t *testing.T) {
	// The process exits cleanly on SIGTERM, so Run should return well
	// before the grace period would force a SIGKILL.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := process.Run(ctx, process.Command{
		Binary:      "sh",
		Args:        []string{"-c", "trap 'exit 0' TERM; sleep 30 & wait"},
		GracePeriod: 5 * time.Second,
	})
	if err == nil {
		t.Fatal("expected error from context cancellation")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("SIGTERM did not terminate the process group promptly: %v", elapsed)
	}
}

func TestRunEmptyBinary(t *testing.T) {
	_, err := process.Run(context.Background(), process.Command{})
	if err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestRunMissingBinary(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "definitely-not-a-real-binary-xyz",
	})
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
	if result == nil {
		t.Fatal("expected a result even when the process never started")
	}
}

func TestRunExtraEnv(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "sh",
		Args:   []string{"-c", "echo $DIARIZED_TEST_VAR"},
		Env:    []string{"DIARIZED_TEST_VAR=present"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(string(result.Stdout)); got != "present" {
		t.Fatalf("expected 'present', got %q", got)
	}
}
