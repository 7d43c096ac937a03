package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"
)

// MappingFile keeps the last applied column mapping as a JSON array on disk.
type MappingFile struct {
	mu   sync.Mutex
	path string
}

// NewMappingFile returns a mapping store backed by path.
func NewMappingFile(path string) *MappingFile {
	return &MappingFile{path: path}
}

// Path returns the backing file path.
func (m *MappingFile) Path() string {
	return m.path
}

// LoadMapping returns the saved mapping, or nil when nothing was saved.
// A corrupt file is reported as an error; callers fall back to a suggested
// mapping.
func (m *MappingFile) LoadMapping(ctx context.Context) ([]models.ColumnMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read mapping file: %w", err)
	}

	var cols []models.ColumnMapping
	if err := json.Unmarshal(data, &cols); err != nil {
		return nil, fmt.Errorf("parse mapping file %s: %w", m.path, err)
	}
	return cols, nil
}

// SaveMapping replaces the saved mapping.
func (m *MappingFile) SaveMapping(ctx context.Context, columns []models.ColumnMapping) error {
	data, err := json.MarshalIndent(columns, "", "  ")
	if err != nil {
		return fmt.Errorf("encode mapping: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("create mapping directory: %w", err)
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write mapping file: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("replace mapping file: %w", err)
	}
	return nil
}
