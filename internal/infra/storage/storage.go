// Package storage abstracts blob storage for uploaded and derived asset
// content (original files, extracted images). Processors and ingestion
// handlers depend only on the Provider interface.
package storage

import (
	"context"
	"io"
)

// Provider stores and retrieves opaque blobs addressed by path.
type Provider interface {
	// Put writes the contents of r to path, returning the number of bytes
	// written.
	Put(ctx context.Context, path string, r io.Reader) (int64, error)
	// Get opens path for reading. Callers must close the returned reader.
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
}

// ErrNotFound is returned by Get/Delete when path has no blob.
type ErrNotFound struct {
	Path string
}

func (e *ErrNotFound) Error() string {
	return "storage: no blob at path " + e.Path
}
