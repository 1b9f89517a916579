package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Extraction error kinds. These never escape the extraction engine as
// returned errors; they end up in the result metadata instead.
var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrCorruptFile     = errors.New("corrupt file")
	ErrOCREngine       = errors.New("ocr engine failure")
)

// Enrichment precondition kinds, surfaced as task failures.
var (
	ErrNoExtractedText = errors.New("no extracted text found for document")
	ErrTextTooShort    = errors.New("insufficient text for enrichment")
)

// Adapter and persistence kinds.
var (
	ErrAdapterUnavailable = errors.New("enrichment adapter unavailable")
	ErrMalformedResponse  = errors.New("malformed adapter response")
	ErrTimeout            = errors.New("enrichment call timed out")
	ErrPersistence        = errors.New("persistence failure")
)

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
)

// NewAppError constructs an AppError with a stable code.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Retryable reports whether a task failure is worth another attempt.
// Only transient adapter conditions qualify; precondition and
// persistence failures will not get better on their own.
func Retryable(err error) bool {
	return errors.Is(err, ErrAdapterUnavailable) || errors.Is(err, ErrTimeout)
}
