package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"imagecrawler/internal/config"
	"imagecrawler/internal/crawler"
	"imagecrawler/internal/fetch"
	"imagecrawler/internal/logging"
	"imagecrawler/internal/metrics"
	"imagecrawler/internal/parser"
	"imagecrawler/internal/storage"
)

type crawlFlags struct {
	configPath  string
	root        string
	maxPages    int
	workers     int
	timeout     time.Duration
	strategy    string
	parser      string
	storage     string
	out         string
	sqlitePath  string
	logLevel    string
	metricsAddr string
}

// NewRootCmd creates the crawl command.
func NewRootCmd() *cobra.Command {
	flags := &crawlFlags{}

	cmd := &cobra.Command{
		Use:   "crawl [root-url]",
		Short: "Crawl a site and download the images on its pages",
		Long: `crawl walks the same-origin link graph starting at root-url until it runs
out of links or reaches --max-pages HTML pages, then downloads every image
those pages reference using --workers concurrent workers. Each image URL is
downloaded at most once.

Settings come from defaults, then the --config YAML file, then environment
variables (a .env file is loaded if present), then flags.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				flags.root = args[0]
			}
			return runCrawl(cmd, flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.configPath, "config", "c", "", "YAML config file")
	f.StringVar(&flags.root, "root", "", "root URL to start crawling from")
	f.IntVarP(&flags.maxPages, "max-pages", "n", 10, "stop the walk after N HTML pages")
	f.IntVarP(&flags.workers, "workers", "w", 2, "number of concurrent image downloaders")
	f.DurationVar(&flags.timeout, "timeout", 15*time.Second, "per-request timeout")
	f.StringVar(&flags.strategy, "strategy", "dfs", "walk order: dfs or bfs")
	f.StringVar(&flags.parser, "parser", "goquery", "html extraction engine: goquery or tokenizer")
	f.StringVar(&flags.storage, "storage", "file", "image sink: file, sqlite, mongo or discard")
	f.StringVarP(&flags.out, "out", "o", "images", "output directory for the file sink")
	f.StringVar(&flags.sqlitePath, "sqlite-path", "images.db", "database file for the sqlite sink")
	f.StringVar(&flags.logLevel, "log-level", "info", "debug, info, warn or error")
	f.StringVar(&flags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :2112)")

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCrawl(cmd *cobra.Command, flags *crawlFlags) error {
	_ = godotenv.Load()

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, flags, &cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
				logger.Error("metrics server", "error", err)
			}
		}()
	}

	extractor, err := parser.NewExtractor(cfg.Crawl.Parser)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	sink, err := storage.New(ctx, storage.Options{
		Driver:        cfg.Storage.Driver,
		Dir:           cfg.Storage.Dir,
		SQLitePath:    cfg.Storage.SQLitePath,
		MongoURI:      cfg.Storage.MongoURI,
		MongoDatabase: cfg.Storage.MongoDatabase,
		MongoBucket:   cfg.Storage.MongoBucket,
		RunID:         runID,
	})
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	logger.Info("storage opened", "driver", cfg.Storage.Driver, "location", sink.Location())
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			logger.Warn("close storage", "error", cerr)
		}
	}()

	fetcher := fetch.NewHTTPFetcher(fetch.Options{
		UserAgent:    cfg.Crawl.UserAgent,
		Timeout:      cfg.Crawl.RequestTimeout.Duration,
		MaxBodyBytes: cfg.Crawl.MaxBodyBytes,
	})

	c := crawler.New(fetcher, extractor, sink, logger)
	summary, err := c.Run(ctx, crawler.Options{
		Root:         cfg.Crawl.Root,
		MaxPages:     cfg.Crawl.MaxPages,
		Workers:      cfg.Crawl.Workers,
		Strategy:     cfg.Crawl.Strategy,
		FetchTimeout: cfg.Crawl.RequestTimeout.Duration,
		RunID:        runID,
	})
	printSummary(cmd.OutOrStdout(), summary, sink.Location())
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("crawl interrupted: %w", err)
	}
	return err
}

// applyFlags copies explicitly set flags over cfg.
func applyFlags(cmd *cobra.Command, flags *crawlFlags, cfg *config.Config) {
	changed := cmd.Flags().Changed

	if flags.root != "" {
		cfg.Crawl.Root = flags.root
	}
	if changed("max-pages") {
		cfg.Crawl.MaxPages = flags.maxPages
	}
	if changed("workers") {
		cfg.Crawl.Workers = flags.workers
	}
	if changed("timeout") {
		cfg.Crawl.RequestTimeout = config.DurationFrom(flags.timeout)
	}
	if changed("strategy") {
		cfg.Crawl.Strategy = flags.strategy
	}
	if changed("parser") {
		cfg.Crawl.Parser = flags.parser
	}
	if changed("storage") {
		cfg.Storage.Driver = flags.storage
	}
	if changed("out") {
		cfg.Storage.Dir = flags.out
	}
	if changed("sqlite-path") {
		cfg.Storage.SQLitePath = flags.sqlitePath
	}
	if changed("log-level") {
		cfg.Logging.Level = flags.logLevel
	}
	if changed("metrics-addr") {
		cfg.Metrics.Addr = flags.metricsAddr
	}
}

func printSummary(w io.Writer, s crawler.Summary, location string) {
	fmt.Fprintln(w, "------- FINAL STATS -------")
	fmt.Fprintf(w, "Run    : %s\n", s.RunID)
	fmt.Fprintf(w, "Links  : %d queued\n", s.LinksQueued)
	fmt.Fprintf(w, "Pages  : %d visited, %d failed, %d abandoned in queue\n", s.PagesVisited, s.PagesFailed, s.Abandoned)
	fmt.Fprintf(w, "Images : %d downloaded, %d failed\n", s.ImagesDownloaded, s.ImagesFailed)
	fmt.Fprintf(w, "Output : %s\n", location)
	fmt.Fprintf(w, "Time   : %s\n", s.Duration.Round(time.Millisecond))
}
