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

// Error taxonomy. Fatality scope differs per sentinel:
//   - ErrConfiguration aborts startup,
//   - ErrUnsupportedFormat / ErrCorruptFile / ErrClassification fail one document,
//   - ErrParseFailure fails one attempt (the gate retries via the fallback chain),
//   - ErrExtractionFailure fails one chunk,
//   - per-record validation failures never surface as errors at all.
var (
	ErrConfiguration     = errors.New("configuration error")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrCorruptFile       = errors.New("corrupt file")
	ErrClassification    = errors.New("classification error")
	ErrParseFailure      = errors.New("parse failure")
	ErrExtractionFailure = errors.New("extraction failure")
	ErrInvalidInput      = errors.New("invalid input")
)

// Error constructors
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

// ConfigurationErrorf builds a fatal rule-store/config error.
func ConfigurationErrorf(format string, args ...interface{}) error {
	return NewAppError("CONFIG_ERROR", fmt.Sprintf(format, args...), ErrConfiguration)
}

// ClassificationErrorf builds a per-document classification defect error.
func ClassificationErrorf(format string, args ...interface{}) error {
	return NewAppError("CLASSIFICATION_ERROR", fmt.Sprintf(format, args...), ErrClassification)
}
