// Package device decides which compute device a diarization job targets.
//
// Capability reporting for GPU-class backends is optimistic: a backend may
// report itself available and still fail the first real allocation. The
// selector therefore verifies a requested accelerator with a synchronous
// self-test (allocate a small tensor, run one op, release, purge the cache)
// before handing it out, and falls back to the CPU on any failure.
package device

import (
	"context"

	"github.com/skillsenselab/diarized/logger"
)

// Handle identifies a compute device. Selected once per job; a job never
// migrates devices except through the explicit CPU fallback path.
type Handle string

// CPU is the always-available fallback device.
const CPU Handle = "cpu"

// String returns the handle as a plain string.
func (h Handle) String() string { return string(h) }

// Backend models the accelerator runtime the worker talks to. The inference
// internals are opaque; this is the minimal surface the selector needs.
type Backend interface {
	// Name returns the device handle this backend drives (e.g. "mps", "cuda").
	Name() Handle
	// Available reports whether the runtime claims the accelerator exists.
	Available(ctx context.Context) bool
	// SelfTest allocates a small tensor on the accelerator, performs one
	// arithmetic op, and releases it. Only a real allocation proves usability.
	SelfTest(ctx context.Context) error
	// ClearCache forces the accelerator allocator to purge cached memory.
	ClearCache(ctx context.Context) error
}

// Select returns the device a job should run on. With preferAccelerated
// false, a nil backend, or an unavailable accelerator it returns CPU.
// Otherwise the backend must pass a single self-test; one failure is
// decisive and selects CPU with a warning.
func Select(ctx context.Context, preferAccelerated bool, backend Backend) Handle {
	log := logger.Get("device")

	if !preferAccelerated || backend == nil {
		return CPU
	}
	if !backend.Available(ctx) {
		log.Debug("Accelerator not available, using CPU")
		return CPU
	}

	// The purge is part of the test: an allocator that cannot release what
	// the test allocated is as unusable as one that cannot allocate.
	err := backend.SelfTest(ctx)
	if err == nil {
		err = backend.ClearCache(ctx)
	}
	if err != nil {
		log.Warn("Accelerator self-test failed, falling back to CPU", map[string]interface{}{
			"device": backend.Name().String(),
			"error":  err.Error(),
		})
		return CPU
	}

	return backend.Name()
}
