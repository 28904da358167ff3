package blobstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name        string
		fileName    string
		contentType string
		size        int64
		wantErr     error
	}{
		{"pdf", "report.pdf", "application/pdf", 1024, nil},
		{"jpeg", "scan.jpg", "image/jpeg", 1024, nil},
		{"png", "scan.png", "image/png", 1024, nil},
		{"dicom mime", "scan.dcm", "application/dicom", 1024, nil},
		{"dcm extension with generic mime", "scan.dcm", "application/octet-stream", 1024, nil},
		{"dcm extension uppercase", "SCAN.DCM", "binary/octet-stream", 1024, nil},
		{"at size limit", "report.pdf", "application/pdf", MaxFileSize, nil},
		{"over size limit", "report.pdf", "application/pdf", MaxFileSize + 1, ErrFileTooLarge},
		{"executable rejected", "virus.exe", "application/x-msdownload", 1024, ErrInvalidContentType},
		{"text rejected", "notes.txt", "text/plain", 1024, ErrInvalidContentType},
		{"missing file name", "", "application/pdf", 1024, ErrMissingFileName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload(tt.fileName, tt.contentType, tt.size)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidateUpload() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateUpload() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestObjectPath(t *testing.T) {
	path := ObjectPath("user-1", "cons-9", "mri scan.pdf")

	if !strings.HasPrefix(path, "user-1/cons-9/") {
		t.Errorf("path = %q, want user/consultation prefix", path)
	}
	if !strings.HasSuffix(path, "-mri_scan.pdf") {
		t.Errorf("path = %q, want sanitized file name suffix", path)
	}
	if PathOwner(path) != "user-1" {
		t.Errorf("PathOwner(%q) = %q, want user-1", path, PathOwner(path))
	}
}

func TestObjectPath_StripsTraversal(t *testing.T) {
	path := ObjectPath("user-1", "cons-9", "../../etc/passwd")
	if strings.Contains(path, "..") {
		t.Errorf("path %q should not contain traversal sequences", path)
	}
	if PathOwner(path) != "user-1" {
		t.Errorf("owner segment must survive sanitization, got %q", PathOwner(path))
	}
}

func TestInMemoryStore_PutGet(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	err := store.Put(ctx, "medical-documents", "u1/c1/1-report.pdf", "application/pdf", strings.NewReader("pdf bytes"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	rc, contentType, err := store.Get(ctx, "medical-documents", "u1/c1/1-report.pdf")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer rc.Close()

	if contentType != "application/pdf" {
		t.Errorf("contentType = %q", contentType)
	}
	data, _ := io.ReadAll(rc)
	if string(data) != "pdf bytes" {
		t.Errorf("data = %q", data)
	}
}

func TestInMemoryStore_GetMissing(t *testing.T) {
	store := NewInMemoryStore()
	_, _, err := store.Get(context.Background(), "medical-documents", "nope")
	if !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestInMemoryStore_BucketIsolation(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, "medical-documents", "a/b/c.pdf", "application/pdf", strings.NewReader("x")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	_, _, err := store.Get(ctx, "hospital-images", "a/b/c.pdf")
	if !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound across buckets, got %v", err)
	}
}

func TestInMemoryStore_Overwrite(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	store.Put(ctx, "hospital-images", "acme/logo.png", "image/png", strings.NewReader("v1"))
	store.Put(ctx, "hospital-images", "acme/logo.png", "image/png", strings.NewReader("v2"))

	rc, _, err := store.Get(ctx, "hospital-images", "acme/logo.png")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "v2" {
		t.Errorf("expected overwrite to win, got %q", data)
	}
	if store.Len() != 1 {
		t.Errorf("expected single object after overwrite, got %d", store.Len())
	}
}

func TestInMemoryStore_Delete(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	store.Put(ctx, "medical-documents", "a/b/c.pdf", "application/pdf", strings.NewReader("x"))
	if err := store.Delete(ctx, "medical-documents", "a/b/c.pdf"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete(ctx, "medical-documents", "a/b/c.pdf"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound on second delete, got %v", err)
	}
}
