// Package filestore stores uploaded request documents. It defines the Store
// interface, a disk-backed implementation, and an in-memory implementation
// for testing. Paths are derived deterministically from hospital, request,
// and document-type identity, so a re-upload under the same extension
// overwrites in place. A prior file stored under another extension is left
// untouched until the caller deletes it.
package filestore

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
	ErrFileNotFound = errors.New("file not found")
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
)

// Store is the contract for document file storage backends.
type Store interface {
	// Save writes the content and returns the storage path. Saving to the
	// same (hospital, request, docType, ext) slot overwrites the previous
	// file; a file stored under a different extension stays until the
	// caller deletes it.
	Save(ctx context.Context, hospitalID, requestID uuid.UUID, docType, ext string, content io.Reader) (string, error)
	// Open returns a reader over a previously saved file.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete removes a single file. Deleting a missing file is not an error.
	Delete(ctx context.Context, path string) error
	// DeleteRequest removes every file stored for the given request.
	DeleteRequest(ctx context.Context, hospitalID, requestID uuid.UUID) error
}

// slotPath is the deterministic relative path for a document slot.
func slotPath(hospitalID, requestID uuid.UUID, docType, ext string) string {
	return filepath.Join(hospitalID.String(), requestID.String(), docType+ext)
}

// ---------------------------------------------------------------------------
// Disk implementation
// ---------------------------------------------------------------------------

// DiskStore stores files under a root directory on the local filesystem.
type DiskStore struct {
	root     string
	maxBytes int64
}

func NewDiskStore(root string, maxBytes int64) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root %s: %w", root, err)
	}
	return &DiskStore{root: root, maxBytes: maxBytes}, nil
}

func (s *DiskStore) Save(_ context.Context, hospitalID, requestID uuid.UUID, docType, ext string, content io.Reader) (string, error) {
	rel := slotPath(hospitalID, requestID, docType, ext)
	abs := filepath.Join(s.root, rel)

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("create request directory: %w", err)
	}

	// Write to a temp file first so a partial write never lands on the slot.
	tmp, err := os.CreateTemp(filepath.Dir(abs), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	n, err := io.Copy(tmp, io.LimitReader(content, s.maxBytes+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if n > s.maxBytes {
		os.Remove(tmpName)
		return "", ErrFileTooLarge
	}

	if err := os.Rename(tmpName, abs); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("store upload: %w", err)
	}
	return rel, nil
}

func (s *DiskStore) Open(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.root, path))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrFileNotFound
	}
	return f, err
}

func (s *DiskStore) Delete(_ context.Context, path string) error {
	err := os.Remove(filepath.Join(s.root, path))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *DiskStore) DeleteRequest(_ context.Context, hospitalID, requestID uuid.UUID) error {
	return os.RemoveAll(filepath.Join(s.root, hospitalID.String(), requestID.String()))
}

// ---------------------------------------------------------------------------
// In-memory implementation
// ---------------------------------------------------------------------------

// MemStore is a thread-safe, in-memory Store for tests. SaveErr, when set,
// makes every Save fail, which tests use to exercise upload atomicity.
type MemStore struct {
	mu      sync.RWMutex
	files   map[string][]byte
	SaveErr error
}

func NewMemStore() *MemStore {
	return &MemStore{files: make(map[string][]byte)}
}

func (s *MemStore) Save(_ context.Context, hospitalID, requestID uuid.UUID, docType, ext string, content io.Reader) (string, error) {
	if s.SaveErr != nil {
		return "", s.SaveErr
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}

	rel := slotPath(hospitalID, requestID, docType, ext)

	s.mu.Lock()
	s.files[rel] = data
	s.mu.Unlock()
	return rel, nil
}

func (s *MemStore) Open(_ context.Context, path string) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.files[path]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrFileNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	delete(s.files, path)
	s.mu.Unlock()
	return nil
}

func (s *MemStore) DeleteRequest(_ context.Context, hospitalID, requestID uuid.UUID) error {
	prefix := filepath.Join(hospitalID.String(), requestID.String()) + string(filepath.Separator)
	s.mu.Lock()
	defer s.mu.Unlock()
	for path := range s.files {
		if strings.HasPrefix(path, prefix) {
			delete(s.files, path)
		}
	}
	return nil
}

// Len reports how many files are stored. Test helper.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
