package hospital

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for the hospital catalog.
type Repository interface {
	Create(ctx context.Context, h *Hospital) error
	GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error)
	GetBySlug(ctx context.Context, slug string) (*Hospital, error)
	List(ctx context.Context, limit, offset int) ([]*Hospital, int, error)
	Update(ctx context.Context, h *Hospital) error
	Delete(ctx context.Context, id uuid.UUID) error

	CreateSpecialist(ctx context.Context, s *Specialist) error
	GetSpecialist(ctx context.Context, id uuid.UUID) (*Specialist, error)
	ListSpecialists(ctx context.Context, hospitalID uuid.UUID) ([]*Specialist, error)
	UpdateSpecialist(ctx context.Context, s *Specialist) error
	DeleteSpecialist(ctx context.Context, id uuid.UUID) error
}
