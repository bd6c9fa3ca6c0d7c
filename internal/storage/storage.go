// Package storage keeps uploaded recipe images and avatars.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Directories used for uploaded files.
const (
	RecipeImagesDir = "recipes/images"
	AvatarsDir      = "users/avatars"
)

// Storage saves and deletes blobs addressed by a key.
type Storage interface {
	Save(ctx context.Context, dir string, data []byte, ext, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// NewKey returns a fresh object key under dir.
func NewKey(dir, ext string) string {
	return path.Join(dir, uuid.NewString()+"."+strings.TrimPrefix(ext, "."))
}

// Local stores files below a root directory and serves them from baseURL.
type Local struct {
	root    string
	baseURL string
}

// NewLocal creates the root directory if needed.
func NewLocal(root, baseURL string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media root: %w", err)
	}
	return &Local{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (l *Local) Save(_ context.Context, dir string, data []byte, ext, _ string) (string, error) {
	key := NewKey(dir, ext)
	full := l.path(key)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", key, err)
	}
	return key, nil
}

// Delete removes key. Deleting a missing file is not an error.
func (l *Local) Delete(_ context.Context, key string) error {
	err := os.Remove(l.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (l *Local) URL(key string) string {
	return l.baseURL + "/" + key
}

func (l *Local) path(key string) string {
	// Clean against a rooted path so keys cannot escape the media root.
	return filepath.Join(l.root, filepath.FromSlash(path.Clean("/"+key)))
}
