package document

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/afyalink/afyalink-api/internal/domain/consultation"
	"github.com/afyalink/afyalink-api/internal/platform/analytics"
	"github.com/afyalink/afyalink-api/internal/platform/blobstore"
)

// ConsultationReader resolves a consultation so uploads and downloads can be
// scoped to its owning patient. The consultation repository satisfies this.
type ConsultationReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*consultation.Consultation, error)
}

// Service implements document upload, listing, and download with ownership
// checks on every operation.
type Service struct {
	repo          Repository
	consultations ConsultationReader
	store         blobstore.BlobStore
	bucket        string
	sink          analytics.Sink
	logger        zerolog.Logger
}

// NewService creates a document service storing content in the given bucket.
func NewService(repo Repository, consultations ConsultationReader, store blobstore.BlobStore, bucket string, sink analytics.Sink, logger zerolog.Logger) *Service {
	return &Service{
		repo:          repo,
		consultations: consultations,
		store:         store,
		bucket:        bucket,
		sink:          sink,
		logger:        logger,
	}
}

// authorize loads the consultation and verifies the actor may touch its
// documents. Non-owners get not-found, never forbidden, so document routes
// do not leak which consultation ids exist.
func (s *Service) authorize(ctx context.Context, actorID string, admin bool, consultationID uuid.UUID) (*consultation.Consultation, error) {
	c, err := s.consultations.GetByID(ctx, consultationID)
	if err != nil {
		return nil, err
	}
	if !admin && c.PatientID != actorID {
		return nil, consultation.ErrNotFound
	}
	return c, nil
}

// Upload validates the file, stores the content, and records the metadata.
// The storage path is always built here from the owning patient and
// consultation; nothing the caller sends influences it.
func (s *Service) Upload(ctx context.Context, actorID string, admin bool, consultationID uuid.UUID, fileName, contentType string, size int64, content io.Reader) (*Document, error) {
	c, err := s.authorize(ctx, actorID, admin, consultationID)
	if err != nil {
		return nil, err
	}

	if err := blobstore.ValidateUpload(fileName, contentType, size); err != nil {
		return nil, err
	}

	path := blobstore.ObjectPath(c.PatientID, consultationID.String(), fileName)
	if err := s.store.Put(ctx, s.bucket, path, contentType, content); err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	d := &Document{
		ID:             uuid.New(),
		ConsultationID: consultationID,
		FileName:       fileName,
		StoragePath:    path,
		ContentType:    contentType,
		SizeBytes:      size,
		UploadedAt:     time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, d); err != nil {
		// Orphaned blob cleanup, best effort.
		if delErr := s.store.Delete(ctx, s.bucket, path); delErr != nil {
			s.logger.Warn().Err(delErr).Str("path", path).Msg("could not remove orphaned document blob")
		}
		return nil, fmt.Errorf("record document metadata: %w", err)
	}

	if err := s.sink.Track(ctx, analytics.Event{
		Name:   "document_uploaded",
		UserID: actorID,
		Properties: map[string]string{
			"consultation_id": consultationID.String(),
			"content_type":    contentType,
		},
	}); err != nil {
		s.logger.Debug().Err(err).Msg("analytics track failed")
	}

	return d, nil
}

// List returns the documents of a consultation the actor may see.
func (s *Service) List(ctx context.Context, actorID string, admin bool, consultationID uuid.UUID) ([]*Document, error) {
	if _, err := s.authorize(ctx, actorID, admin, consultationID); err != nil {
		return nil, err
	}
	docs, err := s.repo.ListByConsultation(ctx, consultationID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Download returns the document metadata and a reader over its content.
// The caller must close the reader.
func (s *Service) Download(ctx context.Context, actorID string, admin bool, documentID uuid.UUID) (*Document, io.ReadCloser, error) {
	d, err := s.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.authorize(ctx, actorID, admin, d.ConsultationID); err != nil {
		return nil, nil, ErrNotFound
	}

	content, _, err := s.store.Get(ctx, s.bucket, d.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch document content: %w", err)
	}
	return d, content, nil
}
