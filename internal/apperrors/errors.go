// Package apperrors defines the failures a sync cycle can surface and how
// they map onto HTTP responses.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

const internalErrorMessage = "Erro interno do servidor"

// ValidationError is bad or missing caller input. It never reaches the network.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// UpstreamError is a non-2xx answer or transport failure from the PNCP API.
type UpstreamError struct {
	Status  int
	Message string
	Details string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pncp http %d: %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("pncp http %d: %s", e.Status, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// StorageError is an unavailable database or a rejected write.
type StorageError struct {
	Op   string
	Code string // postgres SQLSTATE when known
	Err  error
}

func (e *StorageError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("storage %s (%s): %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// HTTPStatus picks the response status for err, defaulting to 500.
func HTTPStatus(err error) int {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest
	}

	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) && upstreamErr.Status != 0 {
		return upstreamErr.Status
	}

	return http.StatusInternalServerError
}

// Message returns the text sent to the caller. Storage and unknown errors
// are not echoed back.
func Message(err error) string {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}

	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		return upstreamErr.Message
	}

	return internalErrorMessage
}
