package catalog

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/scopeplan/internal/errors"
)

// Repository loads and saves catalog documents
type Repository interface {
	// Load reads and validates a catalog document
	Load(path string) (*Document, error)

	// Save writes a catalog document
	Save(doc *Document, path string) error
}

// FileRepository implements Repository for YAML files
type FileRepository struct{}

// NewFileRepository creates a new file-based catalog repository
func NewFileRepository() *FileRepository {
	return &FileRepository{}
}

// Load reads a catalog document from a YAML file
func (r *FileRepository) Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewFileNotFoundError(path)
		}
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, "read catalog file", err)
	}

	doc, err := Decode(data)
	if err != nil {
		return nil, errors.NewFileUnmarshalError(path, "YAML", err)
	}
	return doc, nil
}

// Save writes a catalog document to a YAML file
func (r *FileRepository) Save(doc *Document, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "create catalog directory", err)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileMarshal, "marshal catalog", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "write catalog file", err)
	}
	return nil
}

// Decode parses and validates a YAML catalog document
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

var _ Repository = (*FileRepository)(nil)
