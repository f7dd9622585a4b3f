// This file provides the file backend: one file per key with atomic
// temp-file, fsync, rename writes.
package kv

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/mesh-intelligence/basket/pkg/types"
)

// fileExt is appended to each key to form its file name.
const fileExt = ".json"

// File stores each key as a file under a data directory.
type File struct {
	mu     sync.RWMutex
	closed bool
	dir    string
}

// OpenFile creates dir if needed and returns a File store rooted there. An
// empty dir means the current directory.
func OpenFile(dir string) (*File, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating data dir %s", dir)
	}
	return &File{dir: dir}, nil
}

// Path returns the file path backing key.
func (f *File) Path(key string) string {
	return filepath.Join(f.dir, key+fileExt)
}

func (f *File) Get(ctx context.Context, key string) (string, bool, error) {
	if err := validKey(key); err != nil {
		return "", false, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return "", false, types.ErrKVClosed
	}
	data, err := os.ReadFile(f.Path(key))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "reading %s", key)
	}
	return string(data), true, nil
}

func (f *File) Set(ctx context.Context, key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return types.ErrKVClosed
	}
	return writeAtomic(f.Path(key), []byte(value))
}

func (f *File) Delete(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return types.ErrKVClosed
	}
	err := os.Remove(f.Path(key))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing %s", key)
	}
	return nil
}

// Close marks the store closed. Idempotent.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// writeAtomic writes data to path using the temp-file, fsync, rename
// pattern so readers never observe a partial value.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".kv-*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "writing temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "syncing temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "closing temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "renaming temp file")
	}
	return nil
}
