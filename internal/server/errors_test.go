package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/jonathan/boxscore-backend/internal/provider"
	"github.com/jonathan/boxscore-backend/internal/schemas"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("key: %w", provider.ErrNotFound), http.StatusNotFound},
		{"conflicting override", fmt.Errorf("put: %w", provider.ErrConflictingOverride), http.StatusConflict},
		{"unavailable", fmt.Errorf("upstream: %w", provider.ErrUnavailable), http.StatusServiceUnavailable},
		{"schema validation", &schemas.ValidationError{}, http.StatusBadRequest},
		{"request validation", &ErrValidation{Field: "Email", Message: "required"}, http.StatusBadRequest},
		{"invalid credentials", &ErrInvalidCredentials{}, http.StatusUnauthorized},
		{"unknown job", &ErrUnknownJob{Name: "nope"}, http.StatusNotFound},
		{"unclassified", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus(%v) = %d, expected %d", tt.err, got, tt.want)
			}
		})
	}
}
