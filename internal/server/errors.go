// Package server provides the HTTP REST API for the boxscore backend.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/boxscore-backend/internal/provider"
	"github.com/jonathan/boxscore-backend/internal/schemas"
)

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrUnknownJob indicates a job name that is not registered
type ErrUnknownJob struct {
	Name string
}

func (e *ErrUnknownJob) Error() string {
	return fmt.Sprintf("unknown job: %s", e.Name)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, provider.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, provider.ErrConflictingOverride):
		return http.StatusConflict
	case errors.Is(err, provider.ErrUnavailable):
		return http.StatusServiceUnavailable
	}

	var validationErr *schemas.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest
	}

	switch err.(type) {
	case *ErrInvalidCredentials:
		return http.StatusUnauthorized
	case *ErrUnknownJob:
		return http.StatusNotFound
	case *ErrValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
