// Package blobstore provides object storage for medical documents and catalog
// images. It defines the BlobStore interface, upload validation, the storage
// path convention, an in-memory implementation for testing and development,
// and an S3 backend for production.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

var (
	ErrObjectNotFound     = errors.New("object not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
	ErrMissingFileName    = errors.New("file name is required")
)

// MaxFileSize is the maximum allowed upload size in bytes (20 MB).
const MaxFileSize = 20 * 1024 * 1024

// AllowedContentTypes lists the MIME types accepted for medical document
// uploads.
var AllowedContentTypes = map[string]bool{
	"application/pdf":   true,
	"image/jpeg":        true,
	"image/png":         true,
	"application/dicom": true,
}

// BlobStore is the contract for object storage backends. Objects are
// addressed by bucket and path; metadata beyond content type lives in the
// database, not here.
type BlobStore interface {
	Put(ctx context.Context, bucket, path, contentType string, content io.Reader) error
	Get(ctx context.Context, bucket, path string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, bucket, path string) error
}

// ValidateUpload checks a prospective upload before anything is stored. DICOM
// files are often served with a generic MIME type, so a .dcm extension is
// accepted as a fallback. The returned error distinguishes type problems from
// size problems so handlers can map them to different status codes.
func ValidateUpload(fileName, contentType string, size int64) error {
	if fileName == "" {
		return ErrMissingFileName
	}
	if size > MaxFileSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, size, MaxFileSize)
	}
	if AllowedContentTypes[contentType] {
		return nil
	}
	if strings.HasSuffix(strings.ToLower(fileName), ".dcm") {
		return nil
	}
	return fmt.Errorf("%w: %q (allowed: PDF, JPEG, PNG, DICOM)", ErrInvalidContentType, contentType)
}

// ObjectPath builds the storage path for a document upload:
// <userID>/<consultationID>/<unixms>-<fileName>. Paths are always constructed
// server-side; caller-supplied paths are never trusted, since the leading
// user id segment is what scopes downloads to their owner.
func ObjectPath(userID, consultationID, fileName string) string {
	return fmt.Sprintf("%s/%s/%d-%s", userID, consultationID, time.Now().UnixMilli(), sanitizeFileName(fileName))
}

// PathOwner extracts the user id segment from a storage path.
func PathOwner(path string) string {
	idx := strings.Index(path, "/")
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

// sanitizeFileName strips path separators and other characters that could
// break the path convention.
func sanitizeFileName(name string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", "..", "_", " ", "_")
	cleaned := replacer.Replace(name)
	if cleaned == "" {
		cleaned = "file"
	}
	return cleaned
}
