package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileConfig holds configuration for the local file backend.
type FileConfig struct {
	Path string `mapstructure:"path"`
}

// FileBackend stores the document in a single local file.
type FileBackend struct {
	path string
}

func NewFileBackend(cfg FileConfig) (*FileBackend, error) {
	if cfg.Path == "" {
		return nil, errors.New("file backend: empty path")
	}
	absPath, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	return &FileBackend{path: absPath}, nil
}

func (f *FileBackend) Name() string { return DriverFile }

func (f *FileBackend) Path() string { return f.path }

func (f *FileBackend) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	return data, nil
}

// Save writes to a temp file next to the target and renames it over the
// target, so readers never observe a partial document.
func (f *FileBackend) Save(_ context.Context, data []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write content: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
