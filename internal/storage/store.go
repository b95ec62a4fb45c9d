// Package storage keeps the bytes of uploaded PDFs and cover images.
//
// Books only hold object keys; the AssetStore behind them is either a local
// directory or a MinIO/S3 bucket, selected by STORAGE_BACKEND.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrInvalidKey     = errors.New("invalid object key")
)

// Key prefixes for the two kinds of assets.
const (
	PrefixBooks  = "books"
	PrefixCovers = "covers"
)

// Object is an opened asset. Callers must close Content.
type Object struct {
	Content     io.ReadCloser
	Size        int64
	ContentType string
	ModifiedAt  time.Time
}

// AssetStore defines the operations the services need from file storage.
type AssetStore interface {
	// Save writes content under key, replacing any existing object.
	Save(ctx context.Context, key string, content io.Reader, size int64, contentType string) error

	// Open returns the object stored under key or ErrObjectNotFound.
	Open(ctx context.Context, key string) (*Object, error)

	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)
}

// NewKey returns a fresh key such as "books/5f0c...e1.pdf".
func NewKey(prefix, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join(prefix, uuid.NewString()+strings.ToLower(ext))
}

// cleanKey rejects absolute keys and keys escaping the store root.
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
