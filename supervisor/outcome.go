package supervisor

import (
	"time"

	"github.com/skillsenselab/diarized/diarization"
)

// OutcomeKind tags the result variant of one supervised job.
type OutcomeKind int

const (
	// OutcomeSuccess means the worker produced a valid success document.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeFailure means the worker ran and reported a classified error.
	OutcomeFailure
	// OutcomeTimeout means the deadline elapsed and the worker was reclaimed.
	OutcomeTimeout
	// OutcomeCrashed means the worker died without a readable result
	// document; the root cause is unknowable from the parent.
	OutcomeCrashed
)

// String returns the kind's name for logs.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeCrashed:
		return "crashed"
	default:
		return "unknown"
	}
}

// Outcome is the total return contract of Execute: every supervised job
// yields exactly one Outcome, never none and never two.
type Outcome struct {
	Kind OutcomeKind

	// Success fields.
	Speakers       []string
	Segments       []diarization.Segment
	DeviceUsed     string
	FallbackCPU    bool
	ProcessingTime time.Duration

	// Reason carries the worker-reported error for OutcomeFailure.
	Reason string

	// ExitCode is the child's exit status for OutcomeCrashed; -1 when the
	// process was killed or the status is unknown.
	ExitCode int
}

func successOutcome(doc *diarization.Result) Outcome {
	return Outcome{
		Kind:           OutcomeSuccess,
		Speakers:       doc.Speakers,
		Segments:       doc.Segments,
		DeviceUsed:     doc.DeviceUsed,
		FallbackCPU:    doc.FallbackCPU,
		ProcessingTime: time.Duration(doc.ProcessingTime * float64(time.Second)),
	}
}

func failureOutcome(reason string) Outcome {
	return Outcome{Kind: OutcomeFailure, Reason: reason}
}

func timeoutOutcome() Outcome {
	return Outcome{Kind: OutcomeTimeout}
}

func crashedOutcome(exitCode int) Outcome {
	return Outcome{Kind: OutcomeCrashed, ExitCode: exitCode}
}
