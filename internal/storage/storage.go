package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	cfg "github.com/medsport/attachments/internal/config"
)

var ErrObjectNotFound = errors.New("object not found")

// Object is an open stored file. Callers must Close it.
// For local objects the embedded reader also implements io.Seeker.
type Object struct {
	io.ReadCloser
	Size    int64
	ModTime time.Time
}

// Storage defines the interface for file storage operations.
// Paths are slash separated keys relative to the storage root.
type Storage interface {
	// Save stores the stream at path and returns the number of bytes written.
	// On error nothing is left at path.
	Save(ctx context.Context, path string, r io.Reader) (int64, error)

	// Open returns the stored object or ErrObjectNotFound.
	Open(ctx context.Context, path string) (*Object, error)

	// Delete removes the object at path, returning ErrObjectNotFound if it is absent.
	Delete(ctx context.Context, path string) error
}

// New creates the storage backend selected by STORAGE_DRIVER.
func New(c *cfg.Config) (Storage, error) {
	switch c.StorageDriver {
	case "", "local":
		return NewLocalStorage(c.StorageRoot)
	case "s3":
		return NewS3Storage(S3Config{
			Region:    c.S3Region,
			Bucket:    c.S3Bucket,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Endpoint:  c.S3Endpoint,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
}

// contextReader stops a copy as soon as the context is cancelled,
// so an aborted request never completes a write.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
