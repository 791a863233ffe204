package diarization

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/skillsenselab/diarized/device"
)

// ErrOutOfMemory marks an inference failure caused by accelerator memory
// exhaustion. Detect it with errors.Is; it is the only recoverable
// inference error class.
var ErrOutOfMemory = errors.New("accelerator out of memory")

// RunManaged runs one inference call bracketed by cache clearing and a
// forced garbage-collection pass on both sides, independent of outcome.
// Clearing up front keeps a previous job's allocation spike from being
// blamed on this call; clearing afterwards does the same for the next one.
//
// A failure whose description indicates a memory condition is returned
// wrapping ErrOutOfMemory; anything else propagates as-is and is fatal.
func RunManaged(ctx context.Context, p Pipeline, audioPath string, dev device.Handle, backend device.Backend) ([]Segment, error) {
	clearDeviceMemory(ctx, dev, backend)
	defer clearDeviceMemory(ctx, dev, backend)

	segments, err := p.Apply(ctx, audioPath)
	if err != nil {
		if IsMemoryError(err) {
			return nil, fmt.Errorf("%w: %s", ErrOutOfMemory, err.Error())
		}
		return nil, err
	}
	return segments, nil
}

// IsMemoryError classifies an inference error as a memory condition by
// substring match on its normalized description. No portable memory-error
// type exists across accelerator backends, so wording is the only signal;
// this function is the single place that policy lives.
func IsMemoryError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrOutOfMemory) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "out of memory") || strings.Contains(msg, "memory")
}

// clearDeviceMemory purges the accelerator allocator cache and forces a GC
// pass. Best-effort: the CPU has no comparable cache, and a failed purge
// must not fail the job.
func clearDeviceMemory(ctx context.Context, dev device.Handle, backend device.Backend) {
	if dev != device.CPU && backend != nil {
		_ = backend.ClearCache(ctx)
	}
	runtime.GC()
	debug.FreeOSMemory()
}
