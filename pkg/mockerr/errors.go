// Package mockerr defines the errors a mock request can fail with and the
// HTTP status each of them maps to.
package mockerr

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusCoder is implemented by errors that carry the HTTP status they
// should be reported with.
type StatusCoder interface {
	HTTPStatus() int
}

// NegotiationError reports a requested status, media type, example name or
// control value that the operation cannot satisfy. It is only raised when the
// caller was specific enough that a silent fallback would be misleading.
type NegotiationError struct {
	Message string
}

func (e *NegotiationError) Error() string { return e.Message }

// HTTPStatus returns 400.
func (e *NegotiationError) HTTPStatus() int { return http.StatusBadRequest }

// ResourceNotFoundError reports a missing operation or an operation without
// responses. This points at the API description, not at the client.
type ResourceNotFoundError struct {
	Message string
}

func (e *ResourceNotFoundError) Error() string { return e.Message }

// HTTPStatus returns 500.
func (e *ResourceNotFoundError) HTTPStatus() int { return http.StatusInternalServerError }

// GenerationError reports that fuzzing was requested for content without a schema.
type GenerationError struct {
	Message string
}

func (e *GenerationError) Error() string { return e.Message }

// HTTPStatus returns 400.
func (e *GenerationError) HTTPStatus() int { return http.StatusBadRequest }

// Negotiationf builds a NegotiationError.
func Negotiationf(format string, args ...any) error {
	return &NegotiationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a ResourceNotFoundError.
func NotFoundf(format string, args ...any) error {
	return &ResourceNotFoundError{Message: fmt.Sprintf(format, args...)}
}

// Generationf builds a GenerationError.
func Generationf(format string, args ...any) error {
	return &GenerationError{Message: fmt.Sprintf(format, args...)}
}

// StatusCode returns the HTTP status for err. Errors that do not carry one
// are internal errors.
func StatusCode(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatus()
	}
	return http.StatusInternalServerError
}
