// Package document manages medical document uploads attached to
// consultations. Metadata lives in Postgres; file content lives in the
// blobstore. Documents are immutable once uploaded: they can be created,
// listed, and downloaded, never edited or replaced.
package document

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a document does not exist or the caller is
// not allowed to see it.
var ErrNotFound = errors.New("document not found")

// Document is the metadata row for an uploaded file.
type Document struct {
	ID             uuid.UUID `db:"id" json:"id"`
	ConsultationID uuid.UUID `db:"consultation_id" json:"consultation_id"`
	FileName       string    `db:"file_name" json:"file_name"`
	StoragePath    string    `db:"storage_path" json:"storage_path"`
	ContentType    string    `db:"content_type" json:"content_type"`
	SizeBytes      int64     `db:"size_bytes" json:"size_bytes"`
	UploadedAt     time.Time `db:"uploaded_at" json:"uploaded_at"`
}
