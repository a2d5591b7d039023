package identity

import (
	"time"

	"github.com/google/uuid"
)

// User is a login account. IsStaff grants every capability regardless of
// the profile role.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	IsStaff      bool      `db:"is_staff" json:"is_staff"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Profile attaches a clinical role to a user. Users without a profile
// have no role and fail every role gate unless they are staff.
type Profile struct {
	UserID   uuid.UUID `db:"user_id" json:"user_id"`
	Username string    `db:"-" json:"username"`
	Role     string    `db:"role" json:"role"`
}
