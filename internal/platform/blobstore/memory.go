package blobstore

import (
	"bytes"
	"context"
	"io"
	"sync"
)

type storedObject struct {
	contentType string
	data        []byte
}

// InMemoryStore is a thread-safe, in-memory BlobStore for testing and
// development.
type InMemoryStore struct {
	mu      sync.RWMutex
	objects map[string]*storedObject
}

// NewInMemoryStore returns a ready-to-use InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		objects: make(map[string]*storedObject),
	}
}

func objectKey(bucket, path string) string {
	return bucket + "\x00" + path
}

// Put stores the object, replacing any existing object at the same path.
func (s *InMemoryStore) Put(_ context.Context, bucket, path, contentType string, content io.Reader) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.objects[objectKey(bucket, path)] = &storedObject{
		contentType: contentType,
		data:        data,
	}
	s.mu.Unlock()
	return nil
}

// Get returns a reader over the object content and its content type.
func (s *InMemoryStore) Get(_ context.Context, bucket, path string) (io.ReadCloser, string, error) {
	s.mu.RLock()
	obj, ok := s.objects[objectKey(bucket, path)]
	s.mu.RUnlock()

	if !ok {
		return nil, "", ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.contentType, nil
}

// Delete removes the object at the given path.
func (s *InMemoryStore) Delete(_ context.Context, bucket, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := objectKey(bucket, path)
	if _, ok := s.objects[key]; !ok {
		return ErrObjectNotFound
	}
	delete(s.objects, key)
	return nil
}

// Len reports the number of stored objects. Test helper.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
