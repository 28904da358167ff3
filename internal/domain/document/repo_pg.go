package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const documentCols = `id, consultation_id, file_name, storage_path, content_type, size_bytes, uploaded_at`

// PGRepository is the Postgres-backed Repository.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository creates a repository on the given pool.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.ConsultationID, &d.FileName, &d.StoragePath, &d.ContentType, &d.SizeBytes, &d.UploadedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return &d, nil
}

// Create inserts the metadata row.
func (r *PGRepository) Create(ctx context.Context, d *Document) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO medical_documents (`+documentCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.ConsultationID, d.FileName, d.StoragePath, d.ContentType, d.SizeBytes, d.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// GetByID fetches a single document.
func (r *PGRepository) GetByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+documentCols+` FROM medical_documents WHERE id = $1`, id)
	return scanDocument(row)
}

// ListByConsultation returns a consultation's documents newest first.
func (r *PGRepository) ListByConsultation(ctx context.Context, consultationID uuid.UUID) ([]*Document, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+documentCols+` FROM medical_documents
		WHERE consultation_id = $1
		ORDER BY uploaded_at DESC`, consultationID)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := make([]*Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}
