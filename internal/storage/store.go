// Package storage persists recipe image assets on disk. Stored names are
// generated, never taken from the upload, so files cannot collide and the
// original filename is not leaked.
package storage

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
)

// Store writes image assets under a base directory. Paths handed out and
// recorded on recipes are relative (uploads/recipe/<id><ext>).
type Store struct {
	base  string
	newID func() string
}

// New returns a store rooted at base.
func New(base string) *Store {
	return &Store{base: base, newID: uuid.NewString}
}

// SetIDGenerator overrides the asset name generator. Tests use a fixed value.
func (s *Store) SetIDGenerator(fn func() string) {
	s.newID = fn
}

// GeneratePath returns the storage path for an uploaded file. Only the
// extension of the original name survives, case included.
func (s *Store) GeneratePath(original string) string {
	ext := filepath.Ext(original)
	return path.Join("uploads", "recipe", s.newID()+ext)
}

// Save writes the asset at relPath. The file is written to a temporary name
// in the target directory and renamed into place, so a crash mid-write never
// leaves a partial asset at the final path.
func (s *Store) Save(relPath string, r io.Reader) error {
	abs := s.abs(relPath)
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), abs)
}

// Remove deletes the asset at relPath. A missing file is not an error.
func (s *Store) Remove(relPath string) error {
	if relPath == "" {
		return nil
	}
	if err := os.Remove(s.abs(relPath)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Exists reports whether the asset at relPath is on disk.
func (s *Store) Exists(relPath string) bool {
	_, err := os.Stat(s.abs(relPath))
	return err == nil
}

func (s *Store) abs(relPath string) string {
	return filepath.Join(s.base, filepath.FromSlash(relPath))
}
