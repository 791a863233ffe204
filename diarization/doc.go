// Package diarization defines the domain types for speaker diarization:
// segments, the child-to-parent result document, and the opaque Pipeline
// interface backends implement. It also provides the memory-managed
// execution wrapper that classifies accelerator out-of-memory failures.
//
// # Backends
//
//   - diarization/pyannote: Pyannote-based speaker diarization over the
//     local runtime sidecar
package diarization
