package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
)

// LocalProvider stores blobs under a root directory on the local
// filesystem. It is the default backend for single-instance deployments;
// a future object-storage backend would implement the same Provider
// interface without touching any caller.
type LocalProvider struct {
	root string
}

func NewLocalProvider(root string) (*LocalProvider, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &LocalProvider{root: root}, nil
}

// resolve joins path onto the storage root. Prefixing with "/" before
// Clean collapses any ".." segments to the root rather than letting them
// escape it, the same trick net/http.FileServer uses against path
// traversal.
func (p *LocalProvider) resolve(path string) (string, error) {
	cleaned := filepath.Clean("/" + path)
	return filepath.Join(p.root, cleaned), nil
}

func (p *LocalProvider) Put(ctx context.Context, path string, r io.Reader) (int64, error) {
	full, err := p.resolve(path)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return 0, err
	}

	f, err := os.Create(full)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	return io.Copy(f, r)
}

func (p *LocalProvider) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	full, err := p.resolve(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &ErrNotFound{Path: path}
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (p *LocalProvider) Delete(ctx context.Context, path string) error {
	full, err := p.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ErrNotFound{Path: path}
		}
		return err
	}
	return nil
}

func (p *LocalProvider) Exists(ctx context.Context, path string) (bool, error) {
	full, err := p.resolve(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
