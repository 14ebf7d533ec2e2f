package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"imagecrawler/internal/parser"
)

// Config captures everything the crawl command needs.
type Config struct {
	Crawl   CrawlConfig   `yaml:"crawl"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// CrawlConfig controls the walk and the download pool.
type CrawlConfig struct {
	Root           string   `yaml:"root"`
	MaxPages       int      `yaml:"max_pages"`
	Workers        int      `yaml:"workers"`
	Strategy       string   `yaml:"strategy"`
	Parser         string   `yaml:"parser"`
	UserAgent      string   `yaml:"user_agent"`
	RequestTimeout Duration `yaml:"request_timeout"`
	MaxBodyBytes   int64    `yaml:"max_body_bytes"`
}

// StorageConfig selects where images go.
type StorageConfig struct {
	Driver        string `yaml:"driver"`
	Dir           string `yaml:"dir"`
	SQLitePath    string `yaml:"sqlite_path"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`
	MongoBucket   string `yaml:"mongo_bucket"`
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a configuration usable once Crawl.Root is set.
func Default() Config {
	return Config{
		Crawl: CrawlConfig{
			MaxPages:       10,
			Workers:        2,
			Strategy:       "dfs",
			Parser:         "goquery",
			UserAgent:      "ImageCrawler/1.0",
			RequestTimeout: DurationFrom(15 * time.Second),
			MaxBodyBytes:   10 * 1024 * 1024,
		},
		Storage: StorageConfig{
			Driver:        "file",
			Dir:           "images",
			SQLitePath:    "images.db",
			MongoDatabase: "imageCrawler",
			MongoBucket:   "images",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path (if non-empty) over the defaults, then applies
// environment overrides. The result is not validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if cfg, err = Parse(data); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML over Default().
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables looked up via lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("CRAWL_ROOT", &c.Crawl.Root)
	str("CRAWL_STRATEGY", &c.Crawl.Strategy)
	str("CRAWL_PARSER", &c.Crawl.Parser)
	str("CRAWL_USER_AGENT", &c.Crawl.UserAgent)
	str("STORAGE_DRIVER", &c.Storage.Driver)
	str("STORAGE_DIR", &c.Storage.Dir)
	str("SQLITE_PATH", &c.Storage.SQLitePath)
	str("MONGODB_URI", &c.Storage.MongoURI)
	str("MONGODB_DATABASE", &c.Storage.MongoDatabase)
	str("MONGODB_BUCKET", &c.Storage.MongoBucket)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)
	str("METRICS_ADDR", &c.Metrics.Addr)

	if err := num("CRAWL_MAX_PAGES", &c.Crawl.MaxPages); err != nil {
		return err
	}
	if err := num("CRAWL_WORKERS", &c.Crawl.Workers); err != nil {
		return err
	}
	if v, ok := lookup("CRAWL_TIMEOUT"); ok && strings.TrimSpace(v) != "" {
		if err := c.Crawl.RequestTimeout.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
			return fmt.Errorf("CRAWL_TIMEOUT: %w", err)
		}
	}
	return nil
}

// Validate reports every problem with the configuration at once.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Crawl.Root) == "" {
		errs = append(errs, errors.New("crawl.root is required"))
	} else if _, err := parser.NormalizeRoot(c.Crawl.Root); err != nil {
		errs = append(errs, fmt.Errorf("crawl.root: %w", err))
	}
	if c.Crawl.MaxPages <= 0 {
		errs = append(errs, fmt.Errorf("crawl.max_pages must be positive, got %d", c.Crawl.MaxPages))
	}
	if c.Crawl.Workers <= 0 {
		errs = append(errs, fmt.Errorf("crawl.workers must be positive, got %d", c.Crawl.Workers))
	}
	if c.Crawl.RequestTimeout.Duration <= 0 {
		errs = append(errs, errors.New("crawl.request_timeout must be positive"))
	}
	switch strings.ToLower(c.Crawl.Strategy) {
	case "dfs", "bfs":
	default:
		errs = append(errs, fmt.Errorf("crawl.strategy %q must be dfs or bfs", c.Crawl.Strategy))
	}
	switch strings.ToLower(c.Crawl.Parser) {
	case "goquery", "tokenizer":
	default:
		errs = append(errs, fmt.Errorf("crawl.parser %q must be goquery or tokenizer", c.Crawl.Parser))
	}

	switch strings.ToLower(c.Storage.Driver) {
	case "file":
		if strings.TrimSpace(c.Storage.Dir) == "" {
			errs = append(errs, errors.New("storage.dir is required for the file driver"))
		}
	case "sqlite":
		if strings.TrimSpace(c.Storage.SQLitePath) == "" {
			errs = append(errs, errors.New("storage.sqlite_path is required for the sqlite driver"))
		}
	case "mongo", "gridfs":
		if strings.TrimSpace(c.Storage.MongoURI) == "" {
			errs = append(errs, errors.New("storage.mongo_uri (or MONGODB_URI) is required for the mongo driver"))
		}
	case "discard", "none":
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q must be file, sqlite, mongo (gridfs) or discard (none)", c.Storage.Driver))
	}

	return errors.Join(errs...)
}
