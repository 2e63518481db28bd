// Package storage keeps bill attachments on the local filesystem or in an
// S3 compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrInvalidKey     = errors.New("invalid object key")
)

// Object is a stored blob opened for reading. Callers close Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Get(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
}

type Config struct {
	Driver     string // local | s3
	LocalDir   string
	S3Endpoint string
	S3Region   string
	S3Bucket   string
	S3KeyID    string
	S3Secret   string
}

// ConfigFromEnv reads STORAGE_DRIVER, STORAGE_LOCAL_DIR and the S3_* keys.
func ConfigFromEnv() Config {
	driver := os.Getenv("STORAGE_DRIVER")
	if driver == "" {
		driver = "local"
	}
	dir := os.Getenv("STORAGE_LOCAL_DIR")
	if dir == "" {
		dir = "uploads"
	}
	region := os.Getenv("S3_REGION")
	if region == "" {
		region = "us-east-1"
	}
	return Config{
		Driver:     driver,
		LocalDir:   dir,
		S3Endpoint: os.Getenv("S3_ENDPOINT"),
		S3Region:   region,
		S3Bucket:   os.Getenv("S3_BUCKET"),
		S3KeyID:    os.Getenv("S3_KEY_ID"),
		S3Secret:   os.Getenv("S3_SECRET"),
	}
}

// New builds the store selected by cfg.Driver.
func New(cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStore(cfg.LocalDir)
	case "s3":
		return NewS3Store(cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// cleanKey rejects absolute keys and any attempt to climb out of the root.
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return "", ErrInvalidKey
	}
	c := path.Clean(key)
	if c == "." || c == ".." || strings.HasPrefix(c, "../") {
		return "", ErrInvalidKey
	}
	return c, nil
}
