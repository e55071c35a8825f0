package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileCache keeps each table as <dir>/<kind>/<season>/w<week>/<team>.csv.
type FileCache struct {
	dir string
	settings
}

// NewFileCache creates a file cache rooted at dir.
func NewFileCache(dir string, opts ...Option) *FileCache {
	return &FileCache{dir: dir, settings: newSettings(opts)}
}

// Path returns the file path backing key.
func (c *FileCache) Path(key Key) string {
	return filepath.Join(c.dir, filepath.FromSlash(key.String())+".csv")
}

// Get reads the blob for key.
func (c *FileCache) Get(ctx context.Context, key Key) ([]byte, error) {
	path := c.Path(key)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMiss, key)
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if c.ttl > 0 && c.now().Sub(info.ModTime()) > c.ttl {
		return nil, fmt.Errorf("%w: %s expired", ErrMiss, key)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}

// Put writes the blob atomically through a temp file and rename.
func (c *FileCache) Put(ctx context.Context, key Key, blob []byte) error {
	path := c.Path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	if _, err := tmp.Write(blob); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// Invalidate removes the blob for key. Missing entries are not an error.
func (c *FileCache) Invalidate(ctx context.Context, key Key) error {
	err := os.Remove(c.Path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", c.Path(key), err)
	}
	return nil
}
