package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// FileDocumentStore keeps the document in one file on a billy filesystem.
// Writes are atomic: content goes to a temp file in the same directory,
// then a rename replaces the document.
type FileDocumentStore struct {
	fs   billy.Filesystem
	path string
}

func NewFileDocumentStore(fs billy.Filesystem, path string) *FileDocumentStore {
	return &FileDocumentStore{fs: fs, path: path}
}

// Path returns the document's path within the filesystem.
func (s *FileDocumentStore) Path() string { return s.path }

func (s *FileDocumentStore) CurrentText(ctx context.Context) ([]byte, error) {
	data, err := util.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoDocument
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return data, nil
}

func (s *FileDocumentStore) SetText(ctx context.Context, text []byte) error {
	dir := filepath.Dir(s.path)
	if dir != "." && dir != "/" {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	tmp, err := util.TempFile(s.fs, dir, ".trellis-doc-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(text); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("close temp: %w", err)
	}

	if err := s.fs.Rename(tmpName, s.path); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("rename temp to %s: %w", s.path, err)
	}
	return nil
}

var _ DocumentStore = (*FileDocumentStore)(nil)
