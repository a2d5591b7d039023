package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrUsernameTaken   = errors.New("username already taken")
)

type Repository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	SetStaff(ctx context.Context, id uuid.UUID, isStaff bool) error

	// UpsertProfile creates the profile on first assignment and replaces
	// the role on subsequent ones.
	UpsertProfile(ctx context.Context, p *Profile) error
	GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error)
	ListProfiles(ctx context.Context, limit, offset int) ([]*Profile, int, error)
}
