// Package worker is the child-process side of the isolated execution pair.
// One Runner.Run call is one job: bind a device, convert the audio, run
// inference through the memory-managed wrapper (with a single CPU retry on
// accelerator memory exhaustion), and publish exactly one result document
// to the artifact path the supervisor provided.
//
// The runner never reports failure back through its own exit status alone:
// every classified failure is encoded into the artifact so the parent can
// distinguish "the job failed" from "the process died".
package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/skillsenselab/diarized/device"
	"github.com/skillsenselab/diarized/diarization"
	"github.com/skillsenselab/diarized/logger"
	"github.com/skillsenselab/diarized/validation"
)

// DefaultBatchSize is the reduced embedding batch used on accelerator
// devices to bound the memory footprint.
const DefaultBatchSize = 16

// cpuBatchSize is the standard batch on the CPU path, where memory
// exhaustion is not the failure mode under management.
const cpuBatchSize = 32

// Config holds worker-side settings.
type Config struct {
	// FFmpegBinary is the transcoder executable. Defaults to "ffmpeg".
	FFmpegBinary string `yaml:"ffmpeg_binary" mapstructure:"ffmpeg_binary"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.FFmpegBinary == "" {
		c.FFmpegBinary = "ffmpeg"
	}
}

// Params are the primitive arguments a supervisor passes across the
// process boundary. Nothing else is shared between the two sides.
type Params struct {
	// InputPath is the uploaded audio file.
	InputPath string
	// ArtifactPath is where the result document must be published.
	ArtifactPath string
	// PreferAccelerated requests the accelerator device if usable.
	PreferAccelerated bool
	// BatchSize is the embedding batch hint for the accelerator path.
	BatchSize int
}

// Runner executes diarization jobs inside the worker process.
type Runner struct {
	cfg     Config
	backend device.Backend
	factory diarization.PipelineFactory
	log     *logger.Logger
}

// NewRunner creates a Runner. backend may be nil when no accelerator
// runtime is configured; jobs then always run on the CPU.
func NewRunner(cfg Config, backend device.Backend, factory diarization.PipelineFactory) *Runner {
	cfg.ApplyDefaults()
	return &Runner{
		cfg:     cfg,
		backend: backend,
		factory: factory,
		log:     logger.Get("worker"),
	}
}

// Run executes one job end to end. The returned error doubles as the
// process exit signal; by the time Run returns, the artifact has been
// written whenever the path was usable, success or failure alike.
func (r *Runner) Run(ctx context.Context, p Params) error {
	v := validation.New()
	v.Required("input", p.InputPath)
	v.Required("artifact", p.ArtifactPath)
	v.Positive("batch_size", p.BatchSize)
	if appErr := v.Validate(); appErr != nil {
		return r.fail(p.ArtifactPath, appErr)
	}

	dev := device.Select(ctx, p.PreferAccelerated, r.backend)
	r.log.Info("Device bound", map[string]interface{}{
		logger.FieldDevice: dev.String(),
		logger.FieldPID:    os.Getpid(),
	})

	batch := cpuBatchSize
	if dev != device.CPU {
		batch = p.BatchSize
	}
	pipeline, err := r.factory(ctx, diarization.PipelineConfig{
		Device:    dev,
		BatchSize: batch,
	})
	if err != nil {
		return r.fail(p.ArtifactPath, fmt.Errorf("build pipeline: %w", err))
	}

	converted, err := ConvertAudio(ctx, r.cfg.FFmpegBinary, p.InputPath)
	if err != nil {
		return r.fail(p.ArtifactPath, err)
	}
	// Cleanup on every exit path; leakage on a hard crash is tolerated.
	defer os.Remove(converted)

	start := time.Now()
	fallback := false

	segments, err := diarization.RunManaged(ctx, pipeline, converted, dev, r.backend)
	if err != nil {
		if !errors.Is(err, diarization.ErrOutOfMemory) || dev == device.CPU {
			return r.fail(p.ArtifactPath, err)
		}

		// One retry on the safe device. The pipeline is already built;
		// rebind and invoke inference directly; the CPU has no cache to
		// manage, so the managed wrapper is not needed a second time.
		r.log.Warn("Accelerator memory exhausted, retrying on CPU", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
		if bindErr := pipeline.Bind(ctx, device.CPU); bindErr != nil {
			return r.fail(p.ArtifactPath, fmt.Errorf("rebind to cpu: %w", bindErr))
		}
		segments, err = pipeline.Apply(ctx, converted)
		if err != nil {
			return r.fail(p.ArtifactPath, fmt.Errorf("cpu fallback: %w", err))
		}
		dev = device.CPU
		fallback = true
	}

	elapsed := time.Since(start)
	result := &diarization.Result{
		Success:        true,
		Speakers:       speakerLabels(segments),
		Segments:       segments,
		TotalSegments:  len(segments),
		DeviceUsed:     dev.String(),
		ProcessingTime: elapsed.Seconds(),
		FallbackCPU:    fallback,
	}

	if err := writeArtifact(p.ArtifactPath, result); err != nil {
		return err
	}

	r.log.Info("Diarization finished", map[string]interface{}{
		logger.FieldDevice:   dev.String(),
		logger.FieldDuration: elapsed.Milliseconds(),
		"speakers":           len(result.Speakers),
		"segments":           result.TotalSegments,
		"fallback_cpu":       fallback,
	})
	return nil
}

// fail publishes a failure document and returns the original error so the
// process exits non-zero. A failed artifact write is logged but does not
// mask the job error; the parent classifies the missing artifact instead.
func (r *Runner) fail(artifactPath string, cause error) error {
	r.log.Error("Job failed", map[string]interface{}{
		logger.FieldError: cause.Error(),
	})
	if artifactPath != "" {
		result := &diarization.Result{Success: false, Error: cause.Error()}
		if err := writeArtifact(artifactPath, result); err != nil {
			r.log.Error("Failed to write failure artifact", logger.ErrorFields("write_artifact", err))
		}
	}
	return cause
}

// speakerLabels returns the deduplicated, lexicographically sorted speaker
// labels across all segments.
func speakerLabels(segments []diarization.Segment) []string {
	seen := make(map[string]struct{}, len(segments))
	labels := make([]string, 0, len(segments))
	for _, seg := range segments {
		if _, ok := seen[seg.Speaker]; ok {
			continue
		}
		seen[seg.Speaker] = struct{}{}
		labels = append(labels, seg.Speaker)
	}
	sort.Strings(labels)
	return labels
}
