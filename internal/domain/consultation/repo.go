package consultation

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a consultation does not exist or the caller
// is not allowed to see it.
var ErrNotFound = errors.New("consultation not found")

// Repository defines the persistence operations for consultations.
type Repository interface {
	Create(ctx context.Context, c *Consultation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error)
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Consultation, int, error)
	// List returns all consultations newest first, optionally filtered by
	// status when status is non-empty, with the total matching count.
	List(ctx context.Context, status string, limit, offset int) ([]*Consultation, int, error)
	Update(ctx context.Context, c *Consultation) error
}
