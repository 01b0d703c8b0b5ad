package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// validFileKey restricts keys to names that are safe as file names.
var validFileKey = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// FileEngine implements KV with one file per key.
//
// Writes go to a temp file that is renamed over the target, so a
// reader never observes a partially written value. Files are 0600 and
// the directory is 0700 since values are credentials.
type FileEngine struct {
	dir    string
	mu     sync.RWMutex
	closed bool
}

// NewFileEngine creates a FileEngine rooted at dir, creating it if needed.
func NewFileEngine(dir string) (*FileEngine, error) {
	if dir == "" {
		return nil, fmt.Errorf("file: dir is required")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("file: create dir: %w", err)
	}
	return &FileEngine{dir: dir}, nil
}

// Dir returns the storage directory.
func (e *FileEngine) Dir() string {
	return e.dir
}

func (e *FileEngine) path(key []byte) (string, error) {
	if !validFileKey.Match(key) || string(key) == "." || string(key) == ".." {
		return "", fmt.Errorf("file: invalid key %q", key)
	}
	return filepath.Join(e.dir, string(key)), nil
}

// Get retrieves a value by key.
func (e *FileEngine) Get(ctx context.Context, key []byte) ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, ErrClosed
	}

	p, err := e.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("file: read %s: %w", p, err)
	}
	return data, nil
}

// Set stores a key-value pair.
func (e *FileEngine) Set(ctx context.Context, key, value []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	p, err := e.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(e.dir, "."+filepath.Base(p)+".*")
	if err != nil {
		return fmt.Errorf("file: create temp: %w", err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("file: chmod: %w", err)
	}
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("file: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("file: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("file: close: %w", err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("file: rename: %w", err)
	}
	return nil
}

// Delete removes a key.
func (e *FileEngine) Delete(ctx context.Context, key []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	p, err := e.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("file: remove %s: %w", p, err)
	}
	return nil
}

// Close marks the engine closed. No file handles are held between calls.
func (e *FileEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
