// Package hospital implements the public hospital catalog: partner hospitals
// and their specialists. Reads are public; writes are restricted to catalog
// managers. The specialist fields on a consultation stay free text and are
// not linked to this catalog.
package hospital

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a hospital or specialist does not exist.
	ErrNotFound = errors.New("hospital not found")
	// ErrSpecialistNotFound is returned when a specialist does not exist.
	ErrSpecialistNotFound = errors.New("specialist not found")
	// ErrSlugTaken is returned when a hospital slug is already in use.
	ErrSlugTaken = errors.New("hospital slug already in use")
)

// Hospital is a partner hospital in the catalog.
type Hospital struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Slug          string    `db:"slug" json:"slug"`
	Name          string    `db:"name" json:"name"`
	City          string    `db:"city" json:"city"`
	Country       string    `db:"country" json:"country"`
	Description   *string   `db:"description" json:"description,omitempty"`
	Specialties   []string  `db:"specialties" json:"specialties"`
	Accreditation *string   `db:"accreditation" json:"accreditation,omitempty"`
	Rating        *float64  `db:"rating" json:"rating,omitempty"`
	ImagePath     *string   `db:"image_path" json:"image_path,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Specialist is a doctor listed under a hospital.
type Specialist struct {
	ID              uuid.UUID `db:"id" json:"id"`
	HospitalID      uuid.UUID `db:"hospital_id" json:"hospital_id"`
	Name            string    `db:"name" json:"name"`
	Specialty       string    `db:"specialty" json:"specialty"`
	Title           *string   `db:"title" json:"title,omitempty"`
	YearsExperience *int      `db:"years_experience" json:"years_experience,omitempty"`
	ImagePath       *string   `db:"image_path" json:"image_path,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
