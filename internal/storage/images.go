// Package storage keeps uploaded recipe images on the local filesystem.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

// RecipeImageDir is the directory, relative to the media root, that holds
// recipe images.
const RecipeImageDir = "uploads/recipe"

var (
	ErrInvalidImage = errors.New("invalid image")
	ErrEmptyFile    = errors.New("empty file")
)

// RecipeImagePath builds a fresh storage path for an uploaded file. The name
// is a random UUID; only the extension of the original filename is kept.
func RecipeImagePath(filename string) string {
	ext := filepath.Ext(filename)
	return path.Join(RecipeImageDir, uuid.New().String()+ext)
}

// DetectFormat returns the image format of data ("jpeg", "png", "gif" or
// "webp"), or ErrInvalidImage when data does not decode as an image.
func DetectFormat(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return format, nil
}

// FileStorage stores images below a media root directory.
type FileStorage struct {
	root string
}

// NewFileStorage creates a FileStorage rooted at root, creating the recipe
// image directory if needed.
func NewFileStorage(root string) (*FileStorage, error) {
	if root == "" {
		return nil, fmt.Errorf("media root cannot be empty")
	}
	if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(RecipeImageDir)), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &FileStorage{root: root}, nil
}

// Root returns the media root directory.
func (s *FileStorage) Root() string {
	return s.root
}

// SaveImage validates data as an image and writes it under a new random
// path. It returns the path relative to the media root.
func (s *FileStorage) SaveImage(filename string, data []byte) (string, error) {
	format, err := DetectFormat(data)
	if err != nil {
		return "", err
	}
	if filepath.Ext(filename) == "" {
		filename += "." + format
	}

	rel := RecipeImagePath(filename)
	if err := os.WriteFile(s.abs(rel), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}
	return rel, nil
}

// Delete removes a stored file. Missing files are not an error.
func (s *FileStorage) Delete(rel string) error {
	if rel == "" {
		return nil
	}
	if err := os.Remove(s.abs(rel)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image file: %w", err)
	}
	return nil
}

// Exists reports whether rel is present below the media root.
func (s *FileStorage) Exists(rel string) bool {
	_, err := os.Stat(s.abs(rel))
	return err == nil
}

func (s *FileStorage) abs(rel string) string {
	clean := path.Clean("/" + strings.TrimPrefix(rel, "/"))
	return filepath.Join(s.root, filepath.FromSlash(clean))
}
