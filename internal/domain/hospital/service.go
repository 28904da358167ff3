package hospital

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/afyalink/afyalink-api/internal/platform/blobstore"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// imageContentTypes are the MIME types accepted for catalog images, a
// stricter subset of the document upload types.
var imageContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Service implements catalog management and image storage.
type Service struct {
	repo   Repository
	store  blobstore.BlobStore
	bucket string
	logger zerolog.Logger
}

// NewService creates a hospital catalog service storing images in the given
// bucket.
func NewService(repo Repository, store blobstore.BlobStore, bucket string, logger zerolog.Logger) *Service {
	return &Service{repo: repo, store: store, bucket: bucket, logger: logger}
}

// HospitalInput carries the writable hospital fields.
type HospitalInput struct {
	Slug          string
	Name          string
	City          string
	Country       string
	Description   *string
	Specialties   []string
	Accreditation *string
	Rating        *float64
}

func (in *HospitalInput) validate() error {
	if !slugPattern.MatchString(in.Slug) {
		return fmt.Errorf("slug must be lowercase letters, digits, and hyphens")
	}
	if in.Name == "" {
		return fmt.Errorf("name is required")
	}
	if in.City == "" || in.Country == "" {
		return fmt.Errorf("city and country are required")
	}
	if in.Rating != nil && (*in.Rating < 0 || *in.Rating > 5) {
		return fmt.Errorf("rating must be between 0 and 5")
	}
	return nil
}

// Create adds a hospital to the catalog.
func (s *Service) Create(ctx context.Context, in HospitalInput) (*Hospital, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	h := &Hospital{
		ID:            uuid.New(),
		Slug:          in.Slug,
		Name:          in.Name,
		City:          in.City,
		Country:       in.Country,
		Description:   in.Description,
		Specialties:   in.Specialties,
		Accreditation: in.Accreditation,
		Rating:        in.Rating,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if h.Specialties == nil {
		h.Specialties = []string{}
	}
	if err := s.repo.Create(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

// Get returns a hospital by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return s.repo.GetByID(ctx, id)
}

// GetBySlug returns a hospital by its public slug.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*Hospital, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// List returns the catalog page.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Hospital, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// Update rewrites the hospital's catalog fields. The image path is managed
// separately through UploadImage.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in HospitalInput) (*Hospital, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	h.Slug = in.Slug
	h.Name = in.Name
	h.City = in.City
	h.Country = in.Country
	h.Description = in.Description
	h.Specialties = in.Specialties
	if h.Specialties == nil {
		h.Specialties = []string{}
	}
	h.Accreditation = in.Accreditation
	h.Rating = in.Rating
	h.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

// Delete removes a hospital and cleans up its image, best effort.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if h.ImagePath != nil {
		if err := s.store.Delete(ctx, s.bucket, *h.ImagePath); err != nil {
			s.logger.Warn().Err(err).Str("path", *h.ImagePath).Msg("could not remove hospital image")
		}
	}
	return nil
}

// UploadImage stores the hospital's catalog image. The path is stable per
// hospital, so replacing an image overwrites the previous one in place.
func (s *Service) UploadImage(ctx context.Context, id uuid.UUID, contentType string, size int64, content io.Reader) (*Hospital, error) {
	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !imageContentTypes[contentType] {
		return nil, fmt.Errorf("%w: %q (allowed: JPEG, PNG)", blobstore.ErrInvalidContentType, contentType)
	}
	if size > blobstore.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", blobstore.ErrFileTooLarge, size, blobstore.MaxFileSize)
	}

	path := fmt.Sprintf("hospitals/%s", id)
	if err := s.store.Put(ctx, s.bucket, path, contentType, content); err != nil {
		return nil, fmt.Errorf("store hospital image: %w", err)
	}

	h.ImagePath = &path
	h.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

// Image returns a reader over the hospital's catalog image.
func (s *Service) Image(ctx context.Context, id uuid.UUID) (io.ReadCloser, string, error) {
	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if h.ImagePath == nil {
		return nil, "", blobstore.ErrObjectNotFound
	}
	return s.store.Get(ctx, s.bucket, *h.ImagePath)
}

// SpecialistInput carries the writable specialist fields.
type SpecialistInput struct {
	Name            string
	Specialty       string
	Title           *string
	YearsExperience *int
	ImagePath       *string
}

func (in *SpecialistInput) validate() error {
	if in.Name == "" {
		return fmt.Errorf("name is required")
	}
	if in.Specialty == "" {
		return fmt.Errorf("specialty is required")
	}
	if in.YearsExperience != nil && *in.YearsExperience < 0 {
		return fmt.Errorf("years_experience must not be negative")
	}
	return nil
}

// AddSpecialist lists a specialist under a hospital.
func (s *Service) AddSpecialist(ctx context.Context, hospitalID uuid.UUID, in SpecialistInput) (*Specialist, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(ctx, hospitalID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sp := &Specialist{
		ID:              uuid.New(),
		HospitalID:      hospitalID,
		Name:            in.Name,
		Specialty:       in.Specialty,
		Title:           in.Title,
		YearsExperience: in.YearsExperience,
		ImagePath:       in.ImagePath,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.CreateSpecialist(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}

// ListSpecialists returns a hospital's specialists.
func (s *Service) ListSpecialists(ctx context.Context, hospitalID uuid.UUID) ([]*Specialist, error) {
	if _, err := s.repo.GetByID(ctx, hospitalID); err != nil {
		return nil, err
	}
	return s.repo.ListSpecialists(ctx, hospitalID)
}

// UpdateSpecialist rewrites a specialist's fields.
func (s *Service) UpdateSpecialist(ctx context.Context, id uuid.UUID, in SpecialistInput) (*Specialist, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	sp, err := s.repo.GetSpecialist(ctx, id)
	if err != nil {
		return nil, err
	}

	sp.Name = in.Name
	sp.Specialty = in.Specialty
	sp.Title = in.Title
	sp.YearsExperience = in.YearsExperience
	sp.ImagePath = in.ImagePath
	sp.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateSpecialist(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}

// RemoveSpecialist delists a specialist.
func (s *Service) RemoveSpecialist(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteSpecialist(ctx, id)
}
