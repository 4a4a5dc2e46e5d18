// Package storage reads and writes model files on local disk or in an
// S3-compatible object store.
//
// Locations are given as URIs: "s3://bucket/key" for objects, anything else
// for a local path. Open maps a URI to a FileStore and a path inside it.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

var ErrInvalidPath = errors.New("storage: invalid path")

// FileStore reads and writes whole files. Paths use forward slashes and are
// relative to the store root. Missing files are reported with errors
// wrapping fs.ErrNotExist.
type FileStore interface {
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write truncates an existing file. The returned writer must be closed
	// to commit the data.
	Write(ctx context.Context, path string) (io.WriteCloser, error)

	// Delete of a missing file is not an error.
	Delete(ctx context.Context, path string) error

	Exists(ctx context.Context, path string) (bool, error)
}

// cleanPath rejects absolute paths and paths leaving the store root.
func cleanPath(p string) (string, error) {
	c := path.Clean(strings.TrimPrefix(p, "./"))
	if p == "" || c == "." || path.IsAbs(c) || c == ".." || strings.HasPrefix(c, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return c, nil
}

// ReadFile reads a whole file.
func ReadFile(ctx context.Context, fs FileStore, path string) ([]byte, error) {
	r, err := fs.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// WriteFile writes data to a file, replacing any previous content.
func WriteFile(ctx context.Context, fs FileStore, path string, data []byte) error {
	w, err := fs.Write(ctx, path)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// Open resolves a location to a store and a path within it.
//
// "s3://bucket/dir/model.sim" opens bucket with key "dir/model.sim". With
// no bucket ("s3:///model.sim") the bucket and key prefix come from cfg.
// Any other location is a local file path; the store is rooted at its
// directory.
func Open(loc string, cfg S3Config) (FileStore, string, error) {
	if strings.HasPrefix(loc, "s3://") {
		u, err := url.Parse(loc)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
		}
		key, err := cleanPath(strings.TrimPrefix(u.Path, "/"))
		if err != nil {
			return nil, "", err
		}
		bucket, prefix := u.Host, ""
		if bucket == "" {
			bucket, prefix = cfg.Bucket, cfg.Prefix
		}
		if bucket == "" {
			return nil, "", fmt.Errorf("%w: %q has no bucket and none is configured", ErrInvalidPath, loc)
		}
		return NewS3(NewS3Client(cfg), bucket, prefix), key, nil
	}

	abs, err := filepath.Abs(loc)
	if err != nil {
		return nil, "", err
	}
	l, err := NewLocal(filepath.Dir(abs))
	if err != nil {
		return nil, "", err
	}
	return l, filepath.Base(abs), nil
}
