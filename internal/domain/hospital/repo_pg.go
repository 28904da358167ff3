package hospital

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const hospitalCols = `id, slug, name, city, country, description, specialties, accreditation, rating, image_path, created_at, updated_at`

const specialistCols = `id, hospital_id, name, specialty, title, years_experience, image_path, created_at, updated_at`

// PGRepository is the Postgres-backed Repository.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository creates a repository on the given pool.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func scanHospital(row pgx.Row) (*Hospital, error) {
	var h Hospital
	err := row.Scan(&h.ID, &h.Slug, &h.Name, &h.City, &h.Country, &h.Description,
		&h.Specialties, &h.Accreditation, &h.Rating, &h.ImagePath, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan hospital: %w", err)
	}
	return &h, nil
}

func scanSpecialist(row pgx.Row) (*Specialist, error) {
	var s Specialist
	err := row.Scan(&s.ID, &s.HospitalID, &s.Name, &s.Specialty, &s.Title,
		&s.YearsExperience, &s.ImagePath, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSpecialistNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan specialist: %w", err)
	}
	return &s, nil
}

// isUniqueViolation reports whether the error is a unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Create inserts the hospital. A duplicate slug maps to ErrSlugTaken.
func (r *PGRepository) Create(ctx context.Context, h *Hospital) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO hospitals (`+hospitalCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		h.ID, h.Slug, h.Name, h.City, h.Country, h.Description,
		h.Specialties, h.Accreditation, h.Rating, h.ImagePath, h.CreatedAt, h.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrSlugTaken
	}
	if err != nil {
		return fmt.Errorf("insert hospital: %w", err)
	}
	return nil
}

// GetByID fetches a hospital by id.
func (r *PGRepository) GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+hospitalCols+` FROM hospitals WHERE id = $1`, id)
	return scanHospital(row)
}

// GetBySlug fetches a hospital by its public slug.
func (r *PGRepository) GetBySlug(ctx context.Context, slug string) (*Hospital, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+hospitalCols+` FROM hospitals WHERE slug = $1`, slug)
	return scanHospital(row)
}

// List returns the catalog ordered by name with the total count.
func (r *PGRepository) List(ctx context.Context, limit, offset int) ([]*Hospital, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM hospitals`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count hospitals: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+hospitalCols+` FROM hospitals
		ORDER BY name
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query hospitals: %w", err)
	}
	defer rows.Close()

	hospitals := make([]*Hospital, 0)
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, 0, err
		}
		hospitals = append(hospitals, h)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate hospitals: %w", err)
	}
	return hospitals, total, nil
}

// Update writes the hospital row back.
func (r *PGRepository) Update(ctx context.Context, h *Hospital) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE hospitals SET
			slug = $2, name = $3, city = $4, country = $5, description = $6,
			specialties = $7, accreditation = $8, rating = $9, image_path = $10, updated_at = $11
		WHERE id = $1`,
		h.ID, h.Slug, h.Name, h.City, h.Country, h.Description,
		h.Specialties, h.Accreditation, h.Rating, h.ImagePath, h.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrSlugTaken
	}
	if err != nil {
		return fmt.Errorf("update hospital: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the hospital. Specialists cascade at the schema level.
func (r *PGRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM hospitals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete hospital: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateSpecialist inserts the specialist.
func (r *PGRepository) CreateSpecialist(ctx context.Context, s *Specialist) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO specialists (`+specialistCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.HospitalID, s.Name, s.Specialty, s.Title,
		s.YearsExperience, s.ImagePath, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert specialist: %w", err)
	}
	return nil
}

// GetSpecialist fetches a specialist by id.
func (r *PGRepository) GetSpecialist(ctx context.Context, id uuid.UUID) (*Specialist, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+specialistCols+` FROM specialists WHERE id = $1`, id)
	return scanSpecialist(row)
}

// ListSpecialists returns a hospital's specialists ordered by name.
func (r *PGRepository) ListSpecialists(ctx context.Context, hospitalID uuid.UUID) ([]*Specialist, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+specialistCols+` FROM specialists
		WHERE hospital_id = $1
		ORDER BY name`, hospitalID)
	if err != nil {
		return nil, fmt.Errorf("query specialists: %w", err)
	}
	defer rows.Close()

	specialists := make([]*Specialist, 0)
	for rows.Next() {
		s, err := scanSpecialist(rows)
		if err != nil {
			return nil, err
		}
		specialists = append(specialists, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate specialists: %w", err)
	}
	return specialists, nil
}

// UpdateSpecialist writes the specialist row back.
func (r *PGRepository) UpdateSpecialist(ctx context.Context, s *Specialist) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE specialists SET
			name = $2, specialty = $3, title = $4, years_experience = $5, image_path = $6, updated_at = $7
		WHERE id = $1`,
		s.ID, s.Name, s.Specialty, s.Title, s.YearsExperience, s.ImagePath, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update specialist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSpecialistNotFound
	}
	return nil
}

// DeleteSpecialist removes the specialist.
func (r *PGRepository) DeleteSpecialist(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM specialists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete specialist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSpecialistNotFound
	}
	return nil
}
