package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeCaptureBlocked = "CAPTURE_BLOCKED"
	ErrCodeCaptureFailed  = "CAPTURE_FAILED"
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeRateLimited    = "RATE_LIMITED"
	ErrCodeUnauthorized   = "UNAUTHORIZED"
	ErrCodeInternal       = "INTERNAL_ERROR"

	// Narrative generator error codes.
	ErrCodeNarrativeFailure     = "NARRATIVE_FAILURE"
	ErrCodeNarrativeAuthFailure = "NARRATIVE_AUTH_FAILURE"
	ErrCodeNarrativeRateLimited = "NARRATIVE_RATE_LIMITED"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AnalysisError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type AnalysisError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// NewAnalysisError creates a new AnalysisError.
func NewAnalysisError(code, message string, err error) *AnalysisError {
	return &AnalysisError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *AnalysisError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}
