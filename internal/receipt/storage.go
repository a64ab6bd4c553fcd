package receipt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrUnauthenticated is returned by Upload when no owner is identified.
// Uploads are gated on the caller being authenticated.
var ErrUnauthenticated = errors.New("not authenticated")

// ImageStore holds original receipt photographs and serves them back by key
type ImageStore interface {
	// Upload persists image bytes for the given owner and returns a stable
	// storage key usable as the receipt's image reference
	Upload(ctx context.Context, data []byte, ownerID string) (string, error)

	// Get retrieves image bytes by storage key
	Get(key string) ([]byte, error)

	// Delete removes the image for the given key
	Delete(key string) error
}

// LocalImageStore implements ImageStore on the local filesystem
type LocalImageStore struct {
	basePath string
}

// NewLocalImageStore creates a LocalImageStore rooted at basePath
func NewLocalImageStore(basePath string) (*LocalImageStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &LocalImageStore{basePath: basePath}, nil
}

// Upload persists image bytes and returns the generated storage key
func (l *LocalImageStore) Upload(ctx context.Context, data []byte, ownerID string) (string, error) {
	if ownerID == "" {
		return "", ErrUnauthenticated
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s_%s", ownerID, uuid.NewString())
	path := filepath.Join(l.basePath, key)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing image file: %w", err)
	}
	return key, nil
}

// Get retrieves image bytes by storage key
func (l *LocalImageStore) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.basePath, key))
	if err != nil {
		return nil, fmt.Errorf("reading image file: %w", err)
	}
	return data, nil
}

// Delete removes the image for the given key
func (l *LocalImageStore) Delete(key string) error {
	if err := os.Remove(filepath.Join(l.basePath, key)); err != nil {
		return fmt.Errorf("deleting image file: %w", err)
	}
	return nil
}
