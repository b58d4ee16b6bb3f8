// Package server provides the HTTP REST API for the boxscore backend.
package server

import (
	"context"
	"fmt"

	"github.com/jonathan/boxscore-backend/internal/config"
	"github.com/jonathan/boxscore-backend/internal/db"
)

// AdminStore is the subset of the database used for admin authentication.
type AdminStore interface {
	GetAdminByEmail(ctx context.Context, email string) (*db.AdminUser, error)
}

// AdminService provides business logic for admin authentication.
type AdminService struct {
	store AdminStore
	auth  *config.AuthConfig
}

// NewAdminService creates a new AdminService with the given dependencies.
func NewAdminService(store AdminStore, auth *config.AuthConfig) *AdminService {
	return &AdminService{
		store: store,
		auth:  auth,
	}
}

// Login authenticates an admin and returns the account on success.
func (s *AdminService) Login(ctx context.Context, email, password string) (*db.AdminUser, error) {
	admin, err := s.store.GetAdminByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get admin by email: %w", err)
	}

	// Security: always return a generic error whether the account is
	// missing or the password is wrong.
	if admin == nil {
		return nil, &ErrInvalidCredentials{}
	}

	if !s.auth.VerifyPassword(password, admin.PasswordHash) {
		return nil, &ErrInvalidCredentials{}
	}

	return admin, nil
}
