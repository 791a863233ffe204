// Package supervisor runs diarization jobs in disposable child processes.
//
// The accelerator backend is known to corrupt or crash its host process
// under repeated use, so inference never runs inside the long-lived server.
// Each job spawns a fresh worker process, waits up to a deadline, reclaims
// the child with an escalating SIGTERM→SIGKILL shutdown on timeout, and
// reads the result back over a single-use filesystem artifact. The two
// sides share nothing but primitive arguments and that file.
package supervisor

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/skillsenselab/diarized/logger"
	"github.com/skillsenselab/diarized/process"
	"github.com/skillsenselab/diarized/validation"
)

// Config holds supervisor settings.
type Config struct {
	// WorkerBinary is the executable spawned per job. Defaults to the
	// running binary itself (re-exec with the worker subcommand).
	WorkerBinary string `yaml:"worker_binary" mapstructure:"worker_binary"`
	// WorkerArgs are prepended to the per-job arguments. Defaults to
	// ["worker"].
	WorkerArgs []string `yaml:"worker_args" mapstructure:"worker_args"`
	// GracePeriod is the SIGTERM→SIGKILL window when reclaiming a worker.
	GracePeriod time.Duration `yaml:"grace_period" mapstructure:"grace_period"`
	// DefaultDeadline applies when a job carries no deadline.
	DefaultDeadline time.Duration `yaml:"default_deadline" mapstructure:"default_deadline"`
	// ArtifactDir hosts the result-channel files. Defaults to the OS temp dir.
	ArtifactDir string `yaml:"artifact_dir" mapstructure:"artifact_dir"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.WorkerBinary == "" {
		if exe, err := os.Executable(); err == nil {
			c.WorkerBinary = exe
		}
	}
	if len(c.WorkerArgs) == 0 {
		c.WorkerArgs = []string{"worker"}
	}
	if c.GracePeriod == 0 {
		c.GracePeriod = 5 * time.Second
	}
	if c.DefaultDeadline == 0 {
		c.DefaultDeadline = 10 * time.Minute
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.WorkerBinary == "" {
		return fmt.Errorf("supervisor.worker_binary could not be resolved")
	}
	if c.GracePeriod < 0 {
		return fmt.Errorf("supervisor.grace_period must be non-negative")
	}
	if c.DefaultDeadline <= 0 {
		return fmt.Errorf("supervisor.default_deadline must be positive")
	}
	return nil
}

// Job is one immutable diarization request. Created by the caller and
// read-only for the supervisor's lifetime.
type Job struct {
	// InputPath is the audio file to diarize.
	InputPath string
	// PreferAccelerated requests the accelerator device if usable.
	PreferAccelerated bool
	// BatchSize is the embedding batch hint for the accelerator path.
	BatchSize int
	// Deadline bounds the whole child lifetime. Zero means the
	// configured default.
	Deadline time.Duration
}

// Supervisor executes jobs in isolated child processes. It is safe for
// concurrent use: invocations share no state beyond device contention and
// uniquely-named artifact paths.
type Supervisor struct {
	cfg Config
	log *logger.Logger
}

// New creates a Supervisor.
func New(cfg Config) *Supervisor {
	cfg.ApplyDefaults()
	return &Supervisor{
		cfg: cfg,
		log: logger.Get("supervisor"),
	}
}

// Execute runs one job in a disposable worker process and normalizes every
// possible ending into exactly one Outcome. At most one child is ever alive
// per call; the artifact file is gone by the time Execute returns, on every
// path. The call blocks until the child exits or the deadline (plus the
// bounded shutdown grace) has passed.
func (s *Supervisor) Execute(ctx context.Context, job Job) Outcome {
	v := validation.New()
	v.Required("input", job.InputPath)
	v.Positive("batch_size", job.BatchSize)
	if appErr := v.Validate(); appErr != nil {
		return failureOutcome(appErr.Message)
	}

	deadline := job.Deadline
	if deadline <= 0 {
		deadline = s.cfg.DefaultDeadline
	}

	artifactPath := newArtifactPath(s.cfg.ArtifactDir)
	defer removeArtifact(artifactPath)

	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	args := make([]string, 0, len(s.cfg.WorkerArgs)+8)
	args = append(args, s.cfg.WorkerArgs...)
	args = append(args,
		"--input", job.InputPath,
		"--artifact", artifactPath,
		"--batch-size", strconv.Itoa(job.BatchSize),
	)
	if job.PreferAccelerated {
		args = append(args, "--accelerator")
	}

	s.log.Info("Spawning worker", map[string]interface{}{
		"input":    job.InputPath,
		"deadline": deadline.String(),
		"batch":    job.BatchSize,
	})

	start := time.Now()
	result, err := process.Run(runCtx, process.Command{
		Binary:      s.cfg.WorkerBinary,
		Args:        args,
		GracePeriod: s.cfg.GracePeriod,
	})
	elapsed := time.Since(start)

	if err != nil && runCtx.Err() != nil {
		// Deadline-driven reclaim: the process group has been terminated
		// (gracefully, then forcibly) by the time Run returns.
		s.log.Warn("Worker deadline elapsed, process reclaimed", map[string]interface{}{
			"deadline":           deadline.String(),
			logger.FieldDuration: elapsed.Milliseconds(),
		})
		return timeoutOutcome()
	}

	exitCode := -1
	if result != nil {
		exitCode = result.ExitCode
	}
	if err != nil {
		// Non-zero exit alone is not a failure: the worker encodes the
		// real error into the artifact. A readable document wins.
		s.log.Warn("Worker exited non-zero", map[string]interface{}{
			logger.FieldExitCode: exitCode,
			"stderr":             tail(resultStderr(result)),
		})
	}

	doc, readErr := readArtifact(artifactPath)
	if readErr != nil {
		s.log.Error("Worker left no readable result", map[string]interface{}{
			logger.FieldExitCode: exitCode,
			logger.FieldError:    readErr.Error(),
		})
		return crashedOutcome(exitCode)
	}

	if !doc.Success {
		return failureOutcome(doc.Error)
	}

	s.log.Info("Worker finished", map[string]interface{}{
		logger.FieldDevice:   doc.DeviceUsed,
		logger.FieldDuration: elapsed.Milliseconds(),
		"segments":           doc.TotalSegments,
		"fallback_cpu":       doc.FallbackCPU,
	})
	return successOutcome(doc)
}

func resultStderr(result *process.Result) string {
	if result == nil {
		return ""
	}
	return string(result.Stderr)
}

// tail keeps log lines bounded when the worker dumps a long trace.
func tail(s string) string {
	s = strings.TrimSpace(s)
	const limit = 512
	if len(s) <= limit {
		return s
	}
	return "…" + s[len(s)-limit:]
}
