package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/port"
)

// UploadsURLPrefix is where the HTTP server exposes LocalAvatarStore files.
const UploadsURLPrefix = "/uploads"

// LocalAvatarStore writes profile images to a directory served as static files.
type LocalAvatarStore struct {
	dir      string
	maxBytes int64
}

func NewLocalAvatarStore(dir string, maxBytes int64) (*LocalAvatarStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalAvatarStore{dir: dir, maxBytes: maxBytes}, nil
}

// Dir is the directory backing UploadsURLPrefix.
func (s *LocalAvatarStore) Dir() string { return s.dir }

func (s *LocalAvatarStore) Store(_ context.Context, accountID string, upload domain.ImageUpload) (string, error) {
	img, err := ValidateImage(upload, s.maxBytes)
	if err != nil {
		return "", err
	}

	key := objectKey(accountID, img.Extension)
	target := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", domain.NewStorageError("create avatar dir", err)
	}
	if err := os.WriteFile(target, upload.Data, 0o644); err != nil {
		return "", domain.NewStorageError("write profile image", err)
	}
	return path.Join(UploadsURLPrefix, key), nil
}

var _ port.AvatarStorage = (*LocalAvatarStore)(nil)
