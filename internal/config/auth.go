package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// DefaultTokenIssuer names this backend in the tokens it signs.
const DefaultTokenIssuer = "boxscore-backend"

// AuthConfig holds the admin authentication settings: session token signing
// on one side, password hashing on the other.
type AuthConfig struct {
	TokenSecret string
	TokenTTL    time.Duration
	TokenIssuer string
	BcryptCost  int
	Pepper      string // optional global secret mixed into every password
}

// NewAuthConfig loads authentication settings from environment variables.
// It reads JWT_SECRET (required), JWT_TTL (a Go duration, default 24h),
// BCRYPT_COST (default 12) and optionally PASSWORD_PEPPER.
func NewAuthConfig() (*AuthConfig, error) {
	cfg := &AuthConfig{
		TokenSecret: os.Getenv("JWT_SECRET"),
		TokenTTL:    24 * time.Hour,
		TokenIssuer: DefaultTokenIssuer,
		BcryptCost:  12,
		Pepper:      os.Getenv("PASSWORD_PEPPER"),
	}

	if v := os.Getenv("JWT_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_TTL: %v", err)
		}
		cfg.TokenTTL = ttl
	}

	if v := os.Getenv("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid BCRYPT_COST: %v", err)
		}
		cfg.BcryptCost = cost
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize validates the configuration.
func (c *AuthConfig) normalize() error {
	if c.TokenSecret == "" {
		return fmt.Errorf("JWT_SECRET is required but not set")
	}
	if c.TokenTTL < time.Minute {
		return fmt.Errorf("JWT_TTL must be at least 1 minute, got: %s", c.TokenTTL)
	}
	if c.TokenIssuer == "" {
		c.TokenIssuer = DefaultTokenIssuer
	}
	if c.BcryptCost < 10 || c.BcryptCost > 14 {
		return fmt.Errorf("bcrypt cost out of range: %d (must be 10-14)", c.BcryptCost)
	}
	return nil
}

// HashPassword hashes a password using bcrypt (with optional pepper).
func (c *AuthConfig) HashPassword(pw string) (string, error) {
	password := pw
	if c.Pepper != "" {
		password = pw + c.Pepper
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), c.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hash), nil
}

// VerifyPassword verifies a password against a stored hash (with optional
// pepper).
func (c *AuthConfig) VerifyPassword(pw, storedHash string) bool {
	password := pw
	if c.Pepper != "" {
		password = pw + c.Pepper
	}

	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password)) == nil
}
