package storage

import (
	"context"
	"io"
)

// Storage defines the interface for file storage operations.
// Implementations can use local filesystem or any S3-compatible backend.
type Storage interface {
	// Put stores a file and returns its URL for retrieval.
	// The key should be a unique identifier (e.g., "products/12/uuid.jpg").
	Put(ctx context.Context, key string, content io.Reader, contentType string) (string, error)

	// Get retrieves a file by its key.
	// Returns an io.ReadCloser that must be closed by the caller.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a file by its key.
	// Returns nil if the file doesn't exist (idempotent).
	Delete(ctx context.Context, key string) error

	// URL returns the public URL for accessing a stored file.
	URL(key string) string

	// Exists checks if a file exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)
}

// Config selects and configures a backend.
type Config struct {
	Provider string // "local" (default), "s3", "r2" or "none"

	LocalPath string
	LocalURL  string

	Bucket    string
	Region    string
	Endpoint  string // custom endpoint for MinIO and friends
	AccountID string // R2 only; derives the endpoint
	AccessKey string
	SecretKey string
	PublicURL string
}

// NewStorage creates a Storage implementation based on configuration.
// Provider "none" returns nil, nil: image upload is then disabled.
func NewStorage(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Provider {
	case "local", "":
		return NewLocalStorage(cfg.LocalPath, cfg.LocalURL)
	case "s3":
		return NewS3Storage(ctx, S3Config{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			PublicURL: cfg.PublicURL,
		})
	case "r2":
		if cfg.AccountID == "" {
			return nil, ErrR2AccountIDRequired
		}
		return NewS3Storage(ctx, S3Config{
			Bucket:    cfg.Bucket,
			Region:    "auto",
			Endpoint:  "https://" + cfg.AccountID + ".r2.cloudflarestorage.com",
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			PublicURL: cfg.PublicURL,
			PathStyle: true,
		})
	case "none":
		return nil, nil
	default:
		return nil, ErrUnknownProvider(cfg.Provider)
	}
}
