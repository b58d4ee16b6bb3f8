// Package server provides the HTTP REST API for the boxscore backend.
package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jonathan/boxscore-backend/internal/config"
	"github.com/jonathan/boxscore-backend/internal/db"
	"github.com/jonathan/boxscore-backend/internal/server/middleware"
)

// Claims are the session token claims for an authenticated admin. The email
// doubles as the subject so logs can name the actor without a database
// lookup.
type Claims struct {
	AdminID uuid.UUID `json:"admin_id"`
	Email   string    `json:"email"`
	jwt.RegisteredClaims
}

// JWTService issues and validates admin session tokens.
type JWTService struct {
	cfg *config.AuthConfig
}

// NewJWTService creates a token service over the auth configuration.
func NewJWTService(cfg *config.AuthConfig) *JWTService {
	return &JWTService{cfg: cfg}
}

// IssueToken signs a session token for the admin account.
func (s *JWTService) IssueToken(admin *db.AdminUser) (string, error) {
	now := time.Now()
	claims := &Claims{
		AdminID: admin.ID,
		Email:   admin.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.TokenIssuer,
			Subject:   admin.Email,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.TokenSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a session token, returning its claims.
// The parser enforces HS256, the configured issuer, and an expiry claim, so
// tokens signed with another algorithm or minted for another service are
// rejected before the claims are trusted.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token string is empty")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return []byte(s.cfg.TokenSecret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.TokenIssuer),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("token expired: %w", err)
	case errors.Is(err, jwt.ErrSignatureInvalid):
		return nil, fmt.Errorf("invalid token signature: %w", err)
	case err != nil:
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims.AdminID == uuid.Nil {
		return nil, fmt.Errorf("token carries no admin id")
	}
	return claims, nil
}

// AsTokenValidator adapts the service to the middleware contract without an
// import cycle.
func (s *JWTService) AsTokenValidator() middleware.TokenValidator {
	return tokenValidatorFunc(func(token string) (middleware.Identity, error) {
		claims, err := s.ValidateToken(token)
		if err != nil {
			return middleware.Identity{}, err
		}
		return middleware.Identity{AdminID: claims.AdminID, Email: claims.Email}, nil
	})
}

type tokenValidatorFunc func(string) (middleware.Identity, error)

func (f tokenValidatorFunc) ValidateToken(token string) (middleware.Identity, error) {
	return f(token)
}
