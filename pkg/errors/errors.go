// Package errors defines the sentinel errors shared across the service and
// maps them onto HTTP status codes.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInvalidInput         = errors.New("invalid input")
	ErrUnsupportedDocument  = errors.New("unsupported document type")
	ErrDocumentTooLarge     = errors.New("document too large")
	ErrAnalysisNotFound     = errors.New("analysis not found")
	ErrRateLimited          = errors.New("rate limit exceeded")
	ErrInternal             = errors.New("internal error")
	ErrTimeout              = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrAnalysisNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnsupportedDocument):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrDocumentTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
