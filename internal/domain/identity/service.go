package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/afyalink/afyalink-api/internal/platform/auth"
)

// Service implements profile management and role administration.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// NewService creates an identity service.
func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// ProfileInput carries the profile fields a user may set about themselves.
type ProfileInput struct {
	FullName    string
	Email       string
	Phone       *string
	Country     *string
	DateOfBirth *time.Time
	Gender      *string
}

// CompleteSignup upserts the user's profile and ensures the baseline patient
// role. Called when the user finishes onboarding; calling it again simply
// updates the profile.
func (s *Service) CompleteSignup(ctx context.Context, userID string, in ProfileInput) (*Profile, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if in.FullName == "" {
		return nil, fmt.Errorf("full_name is required")
	}
	if in.Email == "" {
		return nil, fmt.Errorf("email is required")
	}

	now := time.Now().UTC()
	p := &Profile{
		UserID:      userID,
		FullName:    in.FullName,
		Email:       in.Email,
		Phone:       in.Phone,
		Country:     in.Country,
		DateOfBirth: in.DateOfBirth,
		Gender:      in.Gender,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.UpsertProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}

	// Every account starts as a patient. A repeat signup completion finds
	// the role already there, which is fine.
	if err := s.repo.GrantRole(ctx, userID, auth.RolePatient); err != nil && !errors.Is(err, ErrRoleAlreadyGranted) {
		return nil, fmt.Errorf("grant patient role: %w", err)
	}

	return p, nil
}

// GetProfile returns the user's profile.
func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

// Contact resolves a user's email and display name for notifications. A
// missing profile is not an error: the caller gets empty strings and decides
// what to do without one.
func (s *Service) Contact(ctx context.Context, userID string) (string, string, error) {
	p, err := s.repo.GetProfile(ctx, userID)
	if errors.Is(err, ErrProfileNotFound) {
		return "", "", nil
	}
	if err != nil {
		return "", "", err
	}
	return p.Email, p.FullName, nil
}

// GrantRole grants a role to a user. The role string must name a known role
// and the pair must not already exist.
func (s *Service) GrantRole(ctx context.Context, userID, roleStr string) error {
	role, err := auth.ParseRole(roleStr)
	if err != nil {
		return err
	}
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if err := s.repo.GrantRole(ctx, userID, role); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", userID).Str("role", string(role)).Msg("role granted")
	return nil
}

// RevokeRole removes a role from a user. Takes effect on the user's next
// token refresh.
func (s *Service) RevokeRole(ctx context.Context, userID, roleStr string) error {
	role, err := auth.ParseRole(roleStr)
	if err != nil {
		return err
	}
	if err := s.repo.RevokeRole(ctx, userID, role); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", userID).Str("role", string(role)).Msg("role revoked")
	return nil
}

// RolesForUser returns the roles granted to a user.
func (s *Service) RolesForUser(ctx context.Context, userID string) ([]auth.Role, error) {
	return s.repo.RolesForUser(ctx, userID)
}

// ListUsers returns the admin management view of users and their roles.
func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*UserWithRoles, int, error) {
	users, total, err := s.repo.ListUsersWithRoles(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}
