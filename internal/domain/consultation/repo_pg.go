package consultation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const consultationCols = `id, patient_id, hospital_id, specialist_name, specialty, condition_description,
	medical_history, current_medications, preferred_date, urgency, status,
	scheduled_date, meeting_link, admin_notes, created_at, updated_at`

// PGRepository is the Postgres-backed Repository.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository creates a repository on the given pool.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func scanConsultation(row pgx.Row) (*Consultation, error) {
	var c Consultation
	err := row.Scan(
		&c.ID, &c.PatientID, &c.HospitalID, &c.SpecialistName, &c.Specialty, &c.ConditionDescription,
		&c.MedicalHistory, &c.CurrentMedications, &c.PreferredDate, &c.Urgency, &c.Status,
		&c.ScheduledDate, &c.MeetingLink, &c.AdminNotes, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan consultation: %w", err)
	}
	return &c, nil
}

// Create inserts the consultation.
func (r *PGRepository) Create(ctx context.Context, c *Consultation) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO consultations (`+consultationCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		c.ID, c.PatientID, c.HospitalID, c.SpecialistName, c.Specialty, c.ConditionDescription,
		c.MedicalHistory, c.CurrentMedications, c.PreferredDate, c.Urgency, c.Status,
		c.ScheduledDate, c.MeetingLink, c.AdminNotes, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert consultation: %w", err)
	}
	return nil
}

// GetByID fetches a single consultation.
func (r *PGRepository) GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+consultationCols+` FROM consultations WHERE id = $1`, id)
	return scanConsultation(row)
}

// ListByPatient returns the patient's consultations newest first with the
// total count.
func (r *PGRepository) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Consultation, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM consultations WHERE patient_id = $1`, patientID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count consultations: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+consultationCols+` FROM consultations
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query consultations: %w", err)
	}
	defer rows.Close()

	items, err := collectConsultations(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// List returns all consultations newest first, optionally filtered by status.
func (r *PGRepository) List(ctx context.Context, status string, limit, offset int) ([]*Consultation, int, error) {
	where := ""
	countArgs := []interface{}{}
	pageArgs := []interface{}{}
	if status != "" {
		where = " WHERE status = $1"
		countArgs = append(countArgs, status)
		pageArgs = append(pageArgs, status, limit, offset)
	} else {
		pageArgs = append(pageArgs, limit, offset)
	}

	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM consultations`+where, countArgs...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count consultations: %w", err)
	}

	idx := len(countArgs)
	query := fmt.Sprintf(`SELECT `+consultationCols+` FROM consultations%s
		ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, idx+1, idx+2)

	rows, err := r.pool.Query(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query consultations: %w", err)
	}
	defer rows.Close()

	items, err := collectConsultations(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Update writes every mutable column back.
func (r *PGRepository) Update(ctx context.Context, c *Consultation) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE consultations SET
			status = $2, scheduled_date = $3, meeting_link = $4, admin_notes = $5, updated_at = $6
		WHERE id = $1`,
		c.ID, c.Status, c.ScheduledDate, c.MeetingLink, c.AdminNotes, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update consultation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectConsultations(rows pgx.Rows) ([]*Consultation, error) {
	items := make([]*Consultation, 0)
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate consultations: %w", err)
	}
	return items, nil
}
