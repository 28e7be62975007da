package identity

import (
	"context"
	"time"
)

type UserRepository interface {
	// Create returns ErrUsernameTaken when the username exists.
	Create(ctx context.Context, u *User) error
	// GetByUsername returns ErrUserNotFound when no row matches.
	GetByUsername(ctx context.Context, username string) (*User, error)
	UpdateProfile(ctx context.Context, u *User) error
	UpdatePasswordHash(ctx context.Context, username, hash string) error
	TouchLastLogin(ctx context.Context, username string, at time.Time) error
}
