package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/afyalink/afyalink-api/internal/platform/auth"
)

const profileCols = `user_id, full_name, email, phone, country, date_of_birth, gender, created_at, updated_at`

// PGRepository is the Postgres-backed Repository.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository creates a repository on the given pool.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(&p.UserID, &p.FullName, &p.Email, &p.Phone, &p.Country, &p.DateOfBirth, &p.Gender, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	return &p, nil
}

// UpsertProfile inserts or updates the profile row, keeping the original
// created_at on update.
func (r *PGRepository) UpsertProfile(ctx context.Context, p *Profile) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profiles (`+profileCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			country = EXCLUDED.country,
			date_of_birth = EXCLUDED.date_of_birth,
			gender = EXCLUDED.gender,
			updated_at = EXCLUDED.updated_at`,
		p.UserID, p.FullName, p.Email, p.Phone, p.Country, p.DateOfBirth, p.Gender, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// GetProfile fetches a profile by user id.
func (r *PGRepository) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+profileCols+` FROM profiles WHERE user_id = $1`, userID)
	return scanProfile(row)
}

// GrantRole inserts the (user_id, role) pair. A duplicate pair is rejected.
func (r *PGRepository) GrantRole(ctx context.Context, userID string, role auth.Role) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO user_roles (user_id, role, granted_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id, role) DO NOTHING`,
		userID, string(role),
	)
	if err != nil {
		return fmt.Errorf("grant role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRoleAlreadyGranted
	}
	return nil
}

// RevokeRole deletes the (user_id, role) pair.
func (r *PGRepository) RevokeRole(ctx context.Context, userID string, role auth.Role) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND role = $2`,
		userID, string(role),
	)
	if err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRoleNotGranted
	}
	return nil
}

// RolesForUser returns the roles granted to a user, sorted.
func (r *PGRepository) RolesForUser(ctx context.Context, userID string) ([]auth.Role, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT role FROM user_roles WHERE user_id = $1 ORDER BY role`, userID)
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()

	roles := make([]auth.Role, 0)
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, auth.Role(role))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}
	return roles, nil
}

// ListUsersWithRoles returns profiles joined with their role sets, newest
// profile first.
func (r *PGRepository) ListUsersWithRoles(ctx context.Context, limit, offset int) ([]*UserWithRoles, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT p.user_id, p.full_name, p.email, p.phone, p.country, p.date_of_birth, p.gender, p.created_at, p.updated_at,
			COALESCE(array_agg(ur.role ORDER BY ur.role) FILTER (WHERE ur.role IS NOT NULL), '{}')
		FROM profiles p
		LEFT JOIN user_roles ur ON ur.user_id = p.user_id
		GROUP BY p.user_id, p.full_name, p.email, p.phone, p.country, p.date_of_birth, p.gender, p.created_at, p.updated_at
		ORDER BY p.created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]*UserWithRoles, 0)
	for rows.Next() {
		var u UserWithRoles
		var roleStrs []string
		err := rows.Scan(&u.UserID, &u.FullName, &u.Email, &u.Phone, &u.Country, &u.DateOfBirth, &u.Gender, &u.CreatedAt, &u.UpdatedAt, &roleStrs)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		u.Roles = make([]auth.Role, 0, len(roleStrs))
		for _, s := range roleStrs {
			u.Roles = append(u.Roles, auth.Role(s))
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}
	return users, total, nil
}
