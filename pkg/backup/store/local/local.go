// Package local implements a local filesystem backup store.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/envctl/envctl/pkg/backup/store"
)

func init() {
	store.Register("local", NewStore)
}

// Store keeps backups under a root directory on the local filesystem.
type Store struct {
	basePath string
}

// NewStore creates a local store. The "path" config key sets the root;
// it defaults to ~/.envctl/backups.
func NewStore(config map[string]string) (store.Store, error) {
	path := config["path"]
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, ".envctl", "backups")
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	return &Store{basePath: path}, nil
}

func (s *Store) Type() string {
	return "local"
}

func (s *Store) Read(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath := s.fullPath(key)

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", fullPath, err)
	}

	return file, nil
}

func (s *Store) Write(ctx context.Context, key string, data io.Reader) error {
	fullPath := s.fullPath(key)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// Write to temp file first, then rename for atomicity
	tempFile, err := os.CreateTemp(dir, ".envctl-backup-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	_, err = io.Copy(tempFile, data)
	if closeErr := tempFile.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to write backup: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempPath, fullPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save backup: %w", err)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	fullPath := s.fullPath(key)

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil // Idempotent
		}
		return fmt.Errorf("failed to delete %s: %w", fullPath, err)
	}

	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := s.fullPath(prefix)

	var keys []string
	err := filepath.Walk(fullPrefix, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			// Return key relative to base
			relPath, _ := filepath.Rel(s.basePath, path)
			keys = append(keys, filepath.ToSlash(relPath))
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", fullPrefix, err)
	}

	return keys, nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	fullPath := s.fullPath(key)

	_, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check %s: %w", fullPath, err)
	}

	return true, nil
}

func (s *Store) fullPath(key string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(key))
}
