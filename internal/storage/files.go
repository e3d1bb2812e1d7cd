package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalImageStore writes submitted images to a directory on disk.
// Filenames are derived from the job id upstream, so writes never collide.
type LocalImageStore struct {
	dir string
}

func NewLocalImageStore(dir string) (*LocalImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", dir, err)
	}
	return &LocalImageStore{dir: dir}, nil
}

// Dir returns the root directory, used by the apiserver to mount the
// /uploads static route.
func (s *LocalImageStore) Dir() string {
	return s.dir
}

func (s *LocalImageStore) Save(_ context.Context, filename string, data []byte) (string, error) {
	path := filepath.Join(s.dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image %s: %w", filename, err)
	}
	return path, nil
}

func (s *LocalImageStore) Path(filename string) string {
	return filepath.Join(s.dir, filename)
}
