// Package middleware provides HTTP middleware for admin authentication.
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Identity is the authenticated admin carried through the request context.
type Identity struct {
	AdminID uuid.UUID
	Email   string
}

// TokenValidator validates a session token and returns the admin it names.
type TokenValidator interface {
	ValidateToken(token string) (Identity, error)
}

type contextKey string

const identityKey contextKey = "adminIdentity"

// AuthMiddleware rejects requests without a valid Bearer token and stores
// the authenticated admin in the request context.
func AuthMiddleware(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				unauthorized(w)
				return
			}

			ident, err := tokens.ValidateToken(token)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from an Authorization header. The scheme
// check is case-insensitive.
func bearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// unauthorized writes the JSON error envelope the rest of the API uses.
func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
}

// GetIdentity returns the authenticated admin from the request context.
func GetIdentity(r *http.Request) (Identity, error) {
	ident, ok := r.Context().Value(identityKey).(Identity)
	if !ok {
		return Identity{}, fmt.Errorf("no authenticated admin in request context")
	}
	return ident, nil
}

// WithIdentity returns a context carrying the admin identity. Tests use it
// to drive protected handlers directly.
func WithIdentity(ctx context.Context, ident Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}
