package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"agromitra/internal/pkg/logger"

	"go.uber.org/zap"
)

// File implements Storage on a single JSON document on disk. Every write
// rewrites the document atomically through a temporary file.
type File struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
	log    *logger.Logger
}

// NewFile opens the document at path, creating its directory if needed. A
// missing document starts empty; an unreadable one is reported. A nil logger
// discards the warnings.
func NewFile(path string, l *logger.Logger) (*File, error) {
	if l == nil {
		l = logger.Nop()
	}
	f := &File{path: path, values: map[string]string{}, log: l}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("storage: create dir: %w", err)
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &f.values); err != nil {
			// A corrupt document is dropped rather than blocking the client.
			l.Warn("discarding unreadable storage file", zap.String("path", path), zap.Error(err))
			f.values = map[string]string{}
		}
	}
	return f, nil
}

// Get returns the value stored under key.
func (f *File) Get(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.values[key]
	return v, ok
}

// Set stores value under key and flushes the document.
func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return f.flush()
}

// Remove deletes key and flushes the document.
func (f *File) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[key]; !ok {
		return nil
	}
	delete(f.values, key)
	return f.flush()
}

// Path returns the location of the backing document.
func (f *File) Path() string { return f.path }

// flush must be called with the write lock held.
func (f *File) flush() error {
	raw, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".agromitra-*")
	if err != nil {
		return fmt.Errorf("storage: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: write: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	return nil
}
