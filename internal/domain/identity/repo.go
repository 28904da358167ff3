package identity

import (
	"context"

	"github.com/afyalink/afyalink-api/internal/platform/auth"
)

// Repository defines persistence for profiles and role grants.
type Repository interface {
	UpsertProfile(ctx context.Context, p *Profile) error
	GetProfile(ctx context.Context, userID string) (*Profile, error)

	GrantRole(ctx context.Context, userID string, role auth.Role) error
	RevokeRole(ctx context.Context, userID string, role auth.Role) error
	RolesForUser(ctx context.Context, userID string) ([]auth.Role, error)

	ListUsersWithRoles(ctx context.Context, limit, offset int) ([]*UserWithRoles, int, error)
}
