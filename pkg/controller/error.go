// Package controller writes the JSON envelopes shared by every handler and
// maps errors to HTTP outcomes.
package controller

import (
	"errors"
	"net/http"
)

// GenericErrorMessage is the only detail exposed for unexpected failures.
const GenericErrorMessage = "Server Error"

// AppError is an error that carries its HTTP outcome.
// Message is shown to clients; Cause is kept for logs.
type AppError struct {
	Status  int
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewNotFoundError builds a 404 whose message is shown verbatim.
func NewNotFoundError(message string, cause error) *AppError {
	return &AppError{Status: http.StatusNotFound, Message: message, Cause: cause}
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// MapError returns the status and envelope for err. Anything that is not an
// AppError is a 500 with the generic message.
func MapError(err error) (int, ErrorResponse) {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 && appErr.Status < http.StatusInternalServerError {
		return appErr.Status, ErrorResponse{Success: false, Error: appErr.Message}
	}
	return http.StatusInternalServerError, ErrorResponse{Success: false, Error: GenericErrorMessage}
}
