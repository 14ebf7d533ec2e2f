package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Sink persists downloaded images, one entry per filename.
type Sink interface {
	Store(ctx context.Context, name string, data []byte) error
	// Location names where images end up, for logs and reports.
	Location() string
	Close() error
}

// StoreError wraps a failed Store call.
type StoreError struct {
	Name string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Name, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Options selects and configures a Sink backend.
type Options struct {
	Driver        string // file | sqlite | mongo | discard
	Dir           string
	SQLitePath    string
	MongoURI      string
	MongoDatabase string
	MongoBucket   string
	RunID         string
}

// New opens the backend named by opts.Driver.
func New(ctx context.Context, opts Options) (Sink, error) {
	switch strings.ToLower(opts.Driver) {
	case "", "file":
		return NewFileSink(opts.Dir)
	case "sqlite":
		return OpenSQLite(opts.SQLitePath, opts.RunID)
	case "mongo", "gridfs":
		return NewGridFS(ctx, opts.MongoURI, opts.MongoDatabase, opts.MongoBucket, opts.RunID)
	case "discard", "none":
		return &Discard{}, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", opts.Driver)
	}
}

// cleanName reduces name to a single path element.
func cleanName(name string) (string, error) {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == ".." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return base, nil
}
