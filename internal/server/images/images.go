// Package images stores recipe images on local disk or in S3-compatible
// object storage and validates uploaded payloads.
package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/recipebook/internal/server/config"
	"github.com/google/uuid"
)

// Prefix is the key prefix for every recipe image.
const Prefix = "uploads/recipe"

var ErrInvalidImage = errors.New("Upload a valid image. The file you uploaded was either not an image or a corrupted image.")

// Store persists image objects under a key.
type Store interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
}

// Detect decodes data and returns its format ("jpeg", "png" or "gif").
func Detect(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrInvalidImage
	}
	_, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", ErrInvalidImage
	}
	return format, nil
}

// NewImagePath returns a fresh key uploads/recipe/<uuid4>.<ext>. The
// extension comes from filename, lower-cased, or from format when the
// filename has none.
func NewImagePath(filename, format string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		ext = format
	}
	return path.Join(Prefix, fmt.Sprintf("%s.%s", uuid.New(), ext))
}

// ContentType maps a decoded format to its MIME type.
func ContentType(format string) string {
	return "image/" + format
}

// URL joins the public media prefix and key.
func URL(mediaURL, key string) string {
	if key == "" {
		return ""
	}
	return strings.TrimRight(mediaURL, "/") + "/" + key
}

// New builds the store selected by cfg.ImageBackend.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.ImageBackend {
	case config.ImagesLocal, "":
		return NewLocalStore(cfg.MediaRoot), nil
	case config.ImagesS3:
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown image backend %q", cfg.ImageBackend)
	}
}
