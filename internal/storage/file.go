package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileSink writes image binaries into a single directory. A second Store
// with the same name replaces the first.
type FileSink struct {
	baseDir string
}

// NewFileSink constructs a filesystem-backed sink, creating baseDir.
func NewFileSink(baseDir string) (*FileSink, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("base directory must be provided")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create image directory: %w", err)
	}
	return &FileSink{baseDir: baseDir}, nil
}

func (s *FileSink) Store(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return &StoreError{Name: name, Err: err}
	}
	clean, err := cleanName(name)
	if err != nil {
		return &StoreError{Name: name, Err: err}
	}

	// write-then-rename so readers never observe a partial image
	tmp, err := os.CreateTemp(s.baseDir, "."+clean+".*.part")
	if err != nil {
		return &StoreError{Name: name, Err: fmt.Errorf("create temp file: %w", err)}
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return &StoreError{Name: name, Err: fmt.Errorf("write image: %w", err)}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return &StoreError{Name: name, Err: fmt.Errorf("close image: %w", err)}
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.baseDir, clean)); err != nil {
		_ = os.Remove(tmp.Name())
		return &StoreError{Name: name, Err: fmt.Errorf("rename image: %w", err)}
	}
	return nil
}

func (s *FileSink) Location() string { return s.baseDir }

func (s *FileSink) Close() error { return nil }
