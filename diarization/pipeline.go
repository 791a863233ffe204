package diarization

import (
	"context"

	"github.com/skillsenselab/diarized/device"
)

// Pipeline is an opaque, device-bound diarization model. Implementations
// wrap the actual inference backend; the worker only needs to point it at a
// device and apply it to an audio file.
type Pipeline interface {
	// Bind moves the pipeline to the given device. Rebinding mid-job is
	// only done by the explicit CPU fallback path.
	Bind(ctx context.Context, dev device.Handle) error
	// Apply runs inference on a 16kHz mono WAV file and returns the raw
	// speaker turns in timeline order.
	Apply(ctx context.Context, audioPath string) ([]Segment, error)
}

// PipelineConfig carries the knobs a worker sets when building a pipeline.
type PipelineConfig struct {
	// Device is the initial device binding.
	Device device.Handle
	// BatchSize bounds the embedding batch. Smaller values bound the
	// accelerator memory footprint; only applied on accelerator devices.
	BatchSize int
}

// PipelineFactory builds a configured Pipeline. Construction happens inside
// the worker process so a crashing backend never touches the server.
type PipelineFactory func(ctx context.Context, cfg PipelineConfig) (Pipeline, error)
