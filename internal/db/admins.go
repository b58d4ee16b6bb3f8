package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AdminUser is an account allowed to use the admin API.
type AdminUser struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// GetAdminByEmail retrieves an admin account. Returns nil when not found.
func (db *DB) GetAdminByEmail(ctx context.Context, email string) (*AdminUser, error) {
	var a AdminUser
	err := db.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at
		 FROM admin_users WHERE email = $1`,
		normalizeEmail(email),
	).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return &a, nil
}

// CreateAdmin inserts a new admin account with a pre-hashed password.
func (db *DB) CreateAdmin(ctx context.Context, email, passwordHash string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := db.pool.Exec(ctx,
		`INSERT INTO admin_users (id, email, password_hash) VALUES ($1, $2, $3)`,
		id, normalizeEmail(email), passwordHash,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create admin: %w", err)
	}
	return id, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
