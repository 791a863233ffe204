package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeUnsupportedMedia indicates the uploaded file type is not allowed.
	ErrCodeUnsupportedMedia ErrorCode = "UNSUPPORTED_MEDIA"
	// ErrCodePayloadTooLarge indicates the upload exceeds the configured cap.
	ErrCodePayloadTooLarge ErrorCode = "PAYLOAD_TOO_LARGE"
)

// Job errors
const (
	// ErrCodeTimeout indicates the job exceeded its deadline and was reclaimed.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeJobFailed indicates the worker reported a failure.
	ErrCodeJobFailed ErrorCode = "JOB_FAILED"
	// ErrCodeJobCrashed indicates the worker died without a readable result.
	ErrCodeJobCrashed ErrorCode = "JOB_CRASHED"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTimeout:    true,
	ErrCodeJobCrashed: true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
