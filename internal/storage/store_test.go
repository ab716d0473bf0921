package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePath(t *testing.T) {
	s := New(t.TempDir())
	s.SetIDGenerator(func() string { return "abc" })

	// Extension case is preserved; the original name is discarded
	assert.Equal(t, "uploads/recipe/abc.JPG", s.GeneratePath("photo.JPG"))
	assert.Equal(t, "uploads/recipe/abc.png", s.GeneratePath("my photo.png"))
	assert.Equal(t, "uploads/recipe/abc", s.GeneratePath("noextension"))
}

func TestGeneratePathUnique(t *testing.T) {
	s := New(t.TempDir())

	first := s.GeneratePath("photo.jpg")
	second := s.GeneratePath("photo.jpg")
	assert.NotEqual(t, first, second)
}

func TestSaveAndRemove(t *testing.T) {
	base := t.TempDir()
	s := New(base)

	relPath := s.GeneratePath("photo.png")
	require.NoError(t, s.Save(relPath, bytes.NewReader([]byte("payload"))))
	assert.True(t, s.Exists(relPath))

	data, err := os.ReadFile(filepath.Join(base, filepath.FromSlash(relPath)))
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	require.NoError(t, s.Remove(relPath))
	assert.False(t, s.Exists(relPath))

	// Removing an already-missing asset is not an error
	require.NoError(t, s.Remove(relPath))
	require.NoError(t, s.Remove(""))
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	base := t.TempDir()
	s := New(base)

	relPath := s.GeneratePath("photo.png")
	require.NoError(t, s.Save(relPath, bytes.NewReader([]byte("payload"))))

	entries, err := os.ReadDir(filepath.Join(base, "uploads", "recipe"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
