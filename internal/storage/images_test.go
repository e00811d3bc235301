package storage

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRecipeImagePath(t *testing.T) {
	p := RecipeImagePath("myimage.jpg")
	assert.True(t, strings.HasPrefix(p, "uploads/recipe/"))
	assert.True(t, strings.HasSuffix(p, ".jpg"))
	assert.Len(t, strings.TrimSuffix(filepath.Base(p), ".jpg"), 36)

	assert.NotEqual(t, p, RecipeImagePath("myimage.jpg"), "each call should use a fresh identifier")
}

func TestDetectFormat(t *testing.T) {
	format, err := DetectFormat(pngBytes(t))
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	_, err = DetectFormat([]byte("notimage"))
	assert.True(t, errors.Is(err, ErrInvalidImage))

	_, err = DetectFormat(nil)
	assert.True(t, errors.Is(err, ErrEmptyFile))
}

func TestFileStorage_SaveAndDelete(t *testing.T) {
	root := t.TempDir()
	s, err := NewFileStorage(root)
	require.NoError(t, err)

	rel, err := s.SaveImage("photo.png", pngBytes(t))
	require.NoError(t, err)
	assert.True(t, s.Exists(rel))

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, pngBytes(t), data)

	require.NoError(t, s.Delete(rel))
	assert.False(t, s.Exists(rel))
	assert.NoError(t, s.Delete(rel), "deleting twice should be a no-op")
}

func TestFileStorage_AddsExtensionFromFormat(t *testing.T) {
	s, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	rel, err := s.SaveImage("upload", pngBytes(t))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(rel, ".png"))
}

func TestFileStorage_RejectsNonImage(t *testing.T) {
	root := t.TempDir()
	s, err := NewFileStorage(root)
	require.NoError(t, err)

	_, err = s.SaveImage("notes.txt", []byte("notimage"))
	assert.True(t, errors.Is(err, ErrInvalidImage))

	entries, err := os.ReadDir(filepath.Join(root, "uploads", "recipe"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileStorage_StaysBelowRoot(t *testing.T) {
	root := t.TempDir()
	s, err := NewFileStorage(root)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(s.abs("../../etc/passwd"), root))
}
