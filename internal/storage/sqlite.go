package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteSink keeps images as blobs in a single SQLite file, keyed by filename.
type SQLiteSink struct {
	db     *sql.DB
	dbPath string
	runID  string
}

// OpenSQLite opens or creates the database at dbPath.
func OpenSQLite(dbPath, runID string) (*SQLiteSink, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("sqlite path must be provided")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite only supports one writer; workers serialize on this connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteSink{db: db, dbPath: dbPath, runID: runID}
	if err := s.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteSink) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	schema := `
	CREATE TABLE IF NOT EXISTS images (
		filename TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		size INTEGER NOT NULL,
		run_id TEXT,
		stored_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_images_run ON images(run_id);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

func (s *SQLiteSink) Store(ctx context.Context, name string, data []byte) error {
	clean, err := cleanName(name)
	if err != nil {
		return &StoreError{Name: name, Err: err}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO images (filename, data, size, run_id) VALUES (?, ?, ?, ?)
		ON CONFLICT(filename) DO UPDATE SET
			data = excluded.data,
			size = excluded.size,
			run_id = excluded.run_id,
			stored_at = CURRENT_TIMESTAMP`,
		clean, data, len(data), s.runID)
	if err != nil {
		return &StoreError{Name: name, Err: fmt.Errorf("insert image: %w", err)}
	}
	return nil
}

// Load returns the stored bytes for name, or sql.ErrNoRows.
func (s *SQLiteSink) Load(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM images WHERE filename = ?", name).Scan(&data)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Count returns the number of stored images.
func (s *SQLiteSink) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM images").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *SQLiteSink) Location() string { return s.dbPath }

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
