package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"aira/internal/model"
)

// FileStore keeps all properties in one JSON array file, newest first.
// The file is rewritten wholesale on every append.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore opens the store at path, creating an empty array file when missing
func NewFileStore(path string) (*FileStore, error) {
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat data file: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		if err := os.WriteFile(path, []byte("[]\n"), 0o644); err != nil {
			return nil, fmt.Errorf("failed to create data file: %w", err)
		}
	}
	return &FileStore{path: path}, nil
}

// Path returns the backing file path
func (s *FileStore) Path() string {
	return s.path
}

// List returns every property in file order
func (s *FileStore) List(ctx context.Context) ([]model.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Get returns the property with id, or nil, nil
func (s *FileStore) Get(ctx context.Context, id string) (*model.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	properties, err := s.read()
	if err != nil {
		return nil, err
	}
	for i := range properties {
		if properties[i].ID == id {
			return &properties[i], nil
		}
	}
	return nil, nil
}

// Append prepends p and rewrites the file
func (s *FileStore) Append(ctx context.Context, p model.Property) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	properties, err := s.read()
	if err != nil {
		return err
	}
	for _, existing := range properties {
		if existing.ID == p.ID {
			return fmt.Errorf("%w: %s", ErrDuplicateProperty, p.ID)
		}
	}

	properties = append([]model.Property{p}, properties...)
	return s.write(properties)
}

func (s *FileStore) read() ([]model.Property, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}
	properties := []model.Property{}
	if err := json.Unmarshal(data, &properties); err != nil {
		return nil, fmt.Errorf("failed to decode data file %s: %w", s.path, err)
	}
	return properties, nil
}

// write replaces the file atomically via a temp file in the same directory
func (s *FileStore) write(properties []model.Property) error {
	data, err := json.MarshalIndent(properties, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode properties: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".properties-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace data file: %w", err)
	}
	return nil
}
