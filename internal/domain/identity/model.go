// Package identity manages user profiles and role assignments. Authentication
// itself happens upstream at the identity provider; this package owns the
// profile data captured at signup completion and the user_roles table that
// feeds authorization.
package identity

import (
	"errors"
	"time"

	"github.com/afyalink/afyalink-api/internal/platform/auth"
)

var (
	// ErrProfileNotFound is returned when no profile row exists for a user.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrRoleAlreadyGranted is returned on a duplicate grant.
	ErrRoleAlreadyGranted = errors.New("role already granted")
	// ErrRoleNotGranted is returned when revoking a role the user lacks.
	ErrRoleNotGranted = errors.New("role not granted")
)

// Profile holds the user-supplied identity details. The user id is the
// subject from the identity provider, so there is at most one profile per
// account.
type Profile struct {
	UserID      string     `db:"user_id" json:"user_id"`
	FullName    string     `db:"full_name" json:"full_name"`
	Email       string     `db:"email" json:"email"`
	Phone       *string    `db:"phone" json:"phone,omitempty"`
	Country     *string    `db:"country" json:"country,omitempty"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender      *string    `db:"gender" json:"gender,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// UserWithRoles is the admin management view: a profile joined with the
// user's granted roles.
type UserWithRoles struct {
	Profile
	Roles []auth.Role `json:"roles"`
}
