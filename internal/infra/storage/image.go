package storage

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
)

// DefaultMaxUploadBytes is the profile image size limit.
const DefaultMaxUploadBytes int64 = 5 * 1024 * 1024

// DetectedImage is the sniffed content type of an accepted upload.
type DetectedImage struct {
	MIME      string
	Extension string
}

// ValidateImage sniffs data and rejects anything that is not an image or is
// larger than maxBytes. The declared filename is never trusted.
func ValidateImage(upload domain.ImageUpload, maxBytes int64) (DetectedImage, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if len(upload.Data) == 0 {
		return DetectedImage{}, fmt.Errorf("%w: empty file", domain.ErrUploadRejected)
	}
	if int64(len(upload.Data)) > maxBytes {
		return DetectedImage{}, fmt.Errorf("%w: file exceeds %d bytes", domain.ErrUploadRejected, maxBytes)
	}

	mt := mimetype.Detect(upload.Data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return DetectedImage{}, fmt.Errorf("%w: only image files are allowed", domain.ErrUploadRejected)
	}

	ext := mt.Extension()
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(upload.Filename))
	}
	return DetectedImage{MIME: mt.String(), Extension: ext}, nil
}
