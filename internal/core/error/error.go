package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "record not found"
	// ExtractionErrorMessage describes a failed or timed-out extraction call.
	ExtractionErrorMessage = "extraction unavailable"
	// FinalizationErrorMessage describes a failed invoice finalization.
	FinalizationErrorMessage = "order finalization failed"
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// WrapExtraction wraps a failed extraction call. The engine matches on the
// message to take the extraction-unavailable fallback path.
func WrapExtraction(err error) *AppError {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, ExtractionErrorMessage)
}

// WrapFinalization wraps a PDF or storage failure during finalize. The order
// stays complete so the next turn retries without re-collecting fields.
func WrapFinalization(err error) *AppError {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, FinalizationErrorMessage)
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}

// Status extracts the HTTP status of an error chain, defaulting to 500.
func Status(err error) int {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return http.StatusInternalServerError
}
