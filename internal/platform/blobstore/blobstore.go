// Package blobstore stores uploaded scan images. It defines the BlobStore
// interface, a filesystem implementation used in production, and an in-memory
// implementation for tests.
package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrBlobNotFound       = errors.New("blob not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
	ErrMissingFileName    = errors.New("file name is required")
)

// MaxFileSize is the maximum allowed image size in bytes (20 MB).
const MaxFileSize = 20 * 1024 * 1024

// AllowedContentTypes lists the image MIME types accepted for scan uploads.
var AllowedContentTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/bmp":  true,
	"image/tiff": true,
}

// BlobStore is the contract for scan-image storage backends. Save returns a
// backend-generated key that is persisted on the scan report row.
type BlobStore interface {
	Save(ctx context.Context, fileName, contentType string, content io.Reader) (key string, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// readLimited reads content enforcing the size cap.
func readLimited(content io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}

func validate(fileName, contentType string) error {
	if fileName == "" {
		return ErrMissingFileName
	}
	if !AllowedContentTypes[contentType] {
		return ErrInvalidContentType
	}
	return nil
}

// newKey builds a storage key from a fresh UUID plus the original extension,
// so keys never collide and never leak the uploader's file name.
func newKey(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return uuid.New().String() + ext
}

// ---------------------------------------------------------------------------
// Filesystem implementation
// ---------------------------------------------------------------------------

// FilesystemStore writes blobs under a base directory, one file per key.
type FilesystemStore struct {
	dir string
}

// NewFilesystemStore creates the base directory if needed and returns a store
// rooted there.
func NewFilesystemStore(dir string) (*FilesystemStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob directory %s: %w", dir, err)
	}
	return &FilesystemStore{dir: dir}, nil
}

// Path returns the on-disk path for a stored key.
func (s *FilesystemStore) Path(key string) string {
	return filepath.Join(s.dir, key)
}

func (s *FilesystemStore) Save(_ context.Context, fileName, contentType string, content io.Reader) (string, error) {
	if err := validate(fileName, contentType); err != nil {
		return "", err
	}
	data, err := readLimited(content)
	if err != nil {
		return "", err
	}

	key := newKey(fileName)
	if err := os.WriteFile(s.Path(key), data, 0o644); err != nil {
		return "", fmt.Errorf("write blob %s: %w", key, err)
	}
	return key, nil
}

func (s *FilesystemStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	// Keys are server-generated; reject anything that escapes the base dir.
	if key != filepath.Base(key) {
		return nil, ErrBlobNotFound
	}
	f, err := os.Open(s.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("open blob %s: %w", key, err)
	}
	return f, nil
}

func (s *FilesystemStore) Delete(_ context.Context, key string) error {
	if key != filepath.Base(key) {
		return ErrBlobNotFound
	}
	if err := os.Remove(s.Path(key)); err != nil {
		if os.IsNotExist(err) {
			return ErrBlobNotFound
		}
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// In-memory implementation
// ---------------------------------------------------------------------------

// InMemoryStore keeps blobs in a map. Suitable for tests and development.
type InMemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{blobs: make(map[string][]byte)}
}

func (s *InMemoryStore) Save(_ context.Context, fileName, contentType string, content io.Reader) (string, error) {
	if err := validate(fileName, contentType); err != nil {
		return "", err
	}
	data, err := readLimited(content)
	if err != nil {
		return "", err
	}

	key := newKey(fileName)
	s.mu.Lock()
	s.blobs[key] = data
	s.mu.Unlock()
	return key, nil
}

func (s *InMemoryStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.blobs[key]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *InMemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[key]; !ok {
		return ErrBlobNotFound
	}
	delete(s.blobs, key)
	return nil
}
