// Package filesystem implements an ObjectStore on a local directory.
package filesystem

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ajitpratap0/i94dw/pkg/connector/core"
	"github.com/ajitpratap0/i94dw/pkg/connector/registry"
	"github.com/ajitpratap0/i94dw/pkg/errors"
)

func init() {
	_ = registry.Register(func(_ context.Context, loc core.Location, _ core.StoreConfig) (core.ObjectStore, error) {
		return NewStore(loc.Prefix)
	}, "file")
}

// Store keeps objects as files below a root directory.
type Store struct {
	root string
}

// NewStore creates the root directory if needed.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create directory "+root)
	}
	return &Store{root: root}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Put writes body to a temporary file and renames it over key.
func (s *Store) Put(ctx context.Context, key string, body io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dst := s.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create directory").WithDetail("key", key)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create file").WithDetail("key", key)
	}
	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write file").WithDetail("key", key)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close file").WithDetail("key", key)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to rename file").WithDetail("key", key)
	}
	return nil
}

// Get opens the file for key.
func (s *Store) Get(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(key))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open file").WithDetail("key", key)
	}
	return f, nil
}

// List walks the files whose key starts with prefix.
func (s *Store) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to list directory").WithDetail("prefix", prefix)
	}
	sort.Strings(keys)
	return keys, nil
}

// DeletePrefix removes the files under prefix. A prefix naming a directory
// removes the whole directory.
func (s *Store) DeletePrefix(ctx context.Context, prefix string) error {
	target := s.path(prefix)
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		if err := os.RemoveAll(target); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to remove directory").WithDetail("prefix", prefix)
		}
		return nil
	}

	keys, err := s.List(ctx, prefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := os.Remove(s.path(k)); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to remove file").WithDetail("key", k)
		}
	}
	return nil
}

// URI returns the local path of key. A trailing slash marks a directory
// prefix and is kept.
func (s *Store) URI(key string) string {
	p := s.path(key)
	if strings.HasSuffix(key, "/") && !strings.HasSuffix(p, string(filepath.Separator)) {
		p += string(filepath.Separator)
	}
	return p
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
