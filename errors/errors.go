// Package errors provides the unified application error type used across
// the service, with machine-readable codes and HTTP status mapping.
package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// --- Common Error Constructors ---

// Validation creates a new AppError for a request that fails validation.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// MissingField creates a new AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"field": field},
	}
}

// UnsupportedMedia creates a new AppError for a file extension outside the allow-list.
func UnsupportedMedia(extension string, allowed []string) *AppError {
	return &AppError{
		Code: ErrCodeUnsupportedMedia, Message: fmt.Sprintf("Unsupported audio format %q. Allowed: %v", extension, allowed),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"extension": extension, "allowed": allowed},
	}
}

// PayloadTooLarge creates a new AppError for an upload exceeding the size cap.
func PayloadTooLarge(maxSize string) *AppError {
	return &AppError{
		Code: ErrCodePayloadTooLarge, Message: fmt.Sprintf("File too large. Maximum size: %s", maxSize),
		HTTPStatus: http.StatusRequestEntityTooLarge, Retryable: false,
	}
}

// JobTimeout creates a new AppError for a diarization job that exceeded its deadline.
func JobTimeout(deadline string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: fmt.Sprintf("Diarization did not complete within %s", deadline),
		HTTPStatus: http.StatusInternalServerError, Retryable: true,
	}
}

// JobFailed creates a new AppError for a diarization job that reported an error.
func JobFailed(reason string) *AppError {
	if reason == "" {
		reason = "Unknown error"
	}
	return &AppError{
		Code: ErrCodeJobFailed, Message: reason,
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
	}
}

// JobCrashed creates a new AppError for a worker that died without reporting a result.
func JobCrashed(exitCode int) *AppError {
	return &AppError{
		Code: ErrCodeJobCrashed, Message: "Diarization worker exited without producing a result",
		HTTPStatus: http.StatusInternalServerError, Retryable: true,
		Details: map[string]any{"exit_code": exitCode},
	}
}

// Internal creates a new AppError wrapping an unexpected internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred. Please try again later.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Cause: cause,
	}
}
