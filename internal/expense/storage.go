package expense

import (
	"fmt"
	"os"
	"path/filepath"
)

// Storage is the blob side of the persistence boundary: upload an evidence
// image under a deterministic path and get back a durable reference that
// the record embeds.
type Storage interface {
	// Save stores data under path and returns the durable reference.
	Save(path string, data []byte) (string, error)

	// Get retrieves a blob by its reference.
	Get(ref string) ([]byte, error)

	// Delete removes a blob.
	Delete(ref string) error
}

// LocalStorage implements Storage on the local filesystem. The slash-
// separated storage path doubles as the durable reference.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a LocalStorage rooted at basePath.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// Save writes a blob, creating intermediate directories as needed.
func (l *LocalStorage) Save(path string, data []byte) (string, error) {
	full := filepath.Join(l.basePath, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("creating blob directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return path, nil
}

// Get retrieves a blob by reference.
func (l *LocalStorage) Get(ref string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.basePath, filepath.FromSlash(ref)))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes a blob.
func (l *LocalStorage) Delete(ref string) error {
	if err := os.Remove(filepath.Join(l.basePath, filepath.FromSlash(ref))); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}
