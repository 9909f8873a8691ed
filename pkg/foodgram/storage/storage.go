// Package storage decodes uploaded recipe images and persists them to a
// local directory or an S3 bucket.
package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mikepea/foodgram/pkg/foodgram/config"
)

// Store persists image objects and returns the public URL they are served from.
type Store interface {
	Save(ctx context.Context, name, contentType string, data []byte) (string, error)
	// Delete removes the object behind a URL previously returned by Save.
	// URLs the store does not own are ignored.
	Delete(ctx context.Context, url string) error
}

// ObjectName returns a fresh object name for a recipe image with the given extension.
func ObjectName(ext string) string {
	return fmt.Sprintf("recipes/%s.%s", uuid.New().String(), ext)
}

// New builds the store selected by cfg.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "local", "":
		return NewLocalStore(cfg.MediaRoot, cfg.MediaURL)
	case "s3":
		return NewS3Store(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
