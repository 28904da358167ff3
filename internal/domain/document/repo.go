package document

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence operations for document metadata.
// There is deliberately no update or delete: uploads are immutable.
type Repository interface {
	Create(ctx context.Context, d *Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*Document, error)
	ListByConsultation(ctx context.Context, consultationID uuid.UUID) ([]*Document, error)
}
