package diarization

// Segment represents a speaker-attributed time range.
type Segment struct {
	// Start is the segment start time in seconds.
	Start float64 `json:"start"`
	// End is the segment end time in seconds. Never less than Start.
	End float64 `json:"end"`
	// Speaker is the identified speaker label.
	Speaker string `json:"speaker"`
}

// Result is the document a worker hands back to its supervisor. It is the
// single wire format between the two processes: written exactly once by the
// child, read exactly once by the parent.
type Result struct {
	// Success distinguishes the success and failure shapes of the document.
	Success bool `json:"success"`
	// Speakers is the deduplicated, lexicographically sorted list of labels.
	Speakers []string `json:"speakers,omitempty"`
	// Segments contains the ordered speaker-attributed time segments.
	Segments []Segment `json:"segments,omitempty"`
	// TotalSegments equals len(Segments); kept explicit for API clients.
	TotalSegments int `json:"total_segments,omitempty"`
	// DeviceUsed is the device inference actually ran on.
	DeviceUsed string `json:"device_used,omitempty"`
	// ProcessingTime is the inference wall time in seconds.
	ProcessingTime float64 `json:"processing_time,omitempty"`
	// FallbackCPU is true when an accelerator memory failure forced the
	// CPU retry path.
	FallbackCPU bool `json:"fallback_cpu,omitempty"`
	// Error carries the failure reason when Success is false.
	Error string `json:"error,omitempty"`
}
