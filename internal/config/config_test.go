package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultNeedsOnlyRoot(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error without root")
	}
	cfg.Crawl.Root = "https://example.com"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Crawl.MaxPages != 10 || cfg.Crawl.Workers != 2 {
		t.Errorf("unexpected defaults: %+v", cfg.Crawl)
	}
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "crawl.yaml")
	data := `
crawl:
  root: https://example.com/
  max_pages: 25
  workers: 4
  strategy: bfs
  request_timeout: 3s
storage:
  driver: sqlite
  sqlite_path: out/images.db
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Crawl.MaxPages != 25 || cfg.Crawl.Workers != 4 || cfg.Crawl.Strategy != "bfs" {
		t.Errorf("unexpected crawl config: %+v", cfg.Crawl)
	}
	if cfg.Crawl.RequestTimeout.Duration != 3*time.Second {
		t.Errorf("timeout = %v", cfg.Crawl.RequestTimeout.Duration)
	}
	if cfg.Crawl.Parser != "goquery" {
		t.Errorf("expected default parser to survive, got %q", cfg.Crawl.Parser)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Storage.SQLitePath != "out/images.db" {
		t.Errorf("unexpected storage config: %+v", cfg.Storage)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDurationNumericSeconds(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte("crawl:\n  request_timeout: 7\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Crawl.RequestTimeout.Duration != 7*time.Second {
		t.Errorf("timeout = %v", cfg.Crawl.RequestTimeout.Duration)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"CRAWL_ROOT":      "https://example.org",
		"CRAWL_MAX_PAGES": "3",
		"CRAWL_WORKERS":   "8",
		"CRAWL_TIMEOUT":   "500ms",
		"STORAGE_DRIVER":  "mongo",
		"MONGODB_URI":     "mongodb://localhost:27017",
		"LOG_LEVEL":       "",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Crawl.Root != "https://example.org" || cfg.Crawl.MaxPages != 3 || cfg.Crawl.Workers != 8 {
		t.Errorf("unexpected crawl config: %+v", cfg.Crawl)
	}
	if cfg.Crawl.RequestTimeout.Duration != 500*time.Millisecond {
		t.Errorf("timeout = %v", cfg.Crawl.RequestTimeout.Duration)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("empty env value should not override, got %q", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}

	bad := Default()
	if err := bad.ApplyEnv(envMap(map[string]string{"CRAWL_WORKERS": "many"})); err == nil {
		t.Error("expected error for non-numeric CRAWL_WORKERS")
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Crawl.Root = "ftp://example.com"
	cfg.Crawl.MaxPages = 0
	cfg.Crawl.Workers = -1
	cfg.Crawl.Strategy = "random"
	cfg.Storage.Driver = "mongo"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"crawl.root", "max_pages", "workers", "strategy", "mongo_uri"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestValidateAcceptsAliases(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		root, driver string
	}{
		{"HTTPS://Example.com", "file"},
		{"http://example.com:8080/docs", "none"},
		{"https://example.com", "GridFS"},
	} {
		cfg := Default()
		cfg.Crawl.Root = tt.root
		cfg.Storage.Driver = tt.driver
		cfg.Storage.MongoURI = "mongodb://localhost:27017"
		if err := cfg.Validate(); err != nil {
			t.Errorf("root %q driver %q: unexpected error %v", tt.root, tt.driver, err)
		}
	}
}
