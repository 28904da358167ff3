package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store is a BlobStore backed by S3 or an S3-compatible service (MinIO in
// staging). Objects are stored with a private ACL; downloads always go
// through the API so ownership checks apply.
type S3Store struct {
	client *s3.Client
}

// NewS3Store creates an S3Store using the ambient AWS configuration
// (environment credentials, instance profile, or shared config). Path-style
// addressing keeps it compatible with MinIO.
func NewS3Store(ctx context.Context) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.New(s3.Options{
		Region:       cfg.Region,
		Credentials:  cfg.Credentials,
		HTTPClient:   cfg.HTTPClient,
		BaseEndpoint: cfg.BaseEndpoint,
		UsePathStyle: true,
	})

	return &S3Store{client: client}, nil
}

// NewS3StoreWithClient wraps an existing client. Used by tests.
func NewS3StoreWithClient(client *s3.Client) *S3Store {
	return &S3Store{client: client}
}

// Put uploads the object with a private ACL.
func (s *S3Store) Put(ctx context.Context, bucket, path, contentType string, content io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(path),
		Body:        content,
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", bucket, path, err)
	}
	return nil
}

// Get returns the object body and content type.
func (s *S3Store) Get(ctx context.Context, bucket, path string) (io.ReadCloser, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, "", ErrObjectNotFound
		}
		return nil, "", fmt.Errorf("get s3://%s/%s: %w", bucket, path, err)
	}

	contentType := ""
	if out.ContentType != nil {
		contentType = *out.ContentType
	}
	return out.Body, contentType, nil
}

// Delete removes the object. S3 deletes are idempotent, so a missing object
// is not an error.
func (s *S3Store) Delete(ctx context.Context, bucket, path string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("delete s3://%s/%s: %w", bucket, path, err)
	}
	return nil
}
