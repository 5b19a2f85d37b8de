package domain

import (
	"context"
	"time"
)

// User represents a registered learner.
type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// RevokedTokenRepository tracks refresh tokens that may no longer be used.
type RevokedTokenRepository interface {
	// Revoke reports false when jti was already revoked.
	Revoke(ctx context.Context, jti string, expiresAt time.Time) (bool, error)
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// PurgeExpired removes entries whose token would have expired anyway.
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}
