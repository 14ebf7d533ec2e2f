// internal/crawler/engine.go
package crawler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"imagecrawler/internal/fetch"
	"imagecrawler/internal/frontier"
	"imagecrawler/internal/logging"
	"imagecrawler/internal/parser"
	"imagecrawler/internal/storage"
)

// Summary reports the outcome of one Run.
type Summary struct {
	RunID            string
	PagesVisited     int // pages confirmed as HTML during the walk
	ImagesDownloaded int // images fetched and stored
	PagesFailed      int // visited pages the download phase could not refetch
	ImagesFailed     int // claimed images whose fetch or store failed
	Abandoned        int // queue entries dropped when the page budget was hit
	LinksQueued      int // pushes onto the parse queue, root included
	Duration         time.Duration
}

// Crawler walks a site and downloads the images of the pages it finds.
// A Crawler holds no per-run state and may run several crawls at once.
type Crawler struct {
	fetcher   fetch.Fetcher
	extractor parser.Extractor
	sink      storage.Sink
	logger    *slog.Logger
}

func New(f fetch.Fetcher, x parser.Extractor, s storage.Sink, logger *slog.Logger) *Crawler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Crawler{fetcher: f, extractor: x, sink: s, logger: logger}
}

type runStats struct {
	imagesDownloaded atomic.Int64
	imagesFailed     atomic.Int64
	pagesFailed      atomic.Int64
}

// Run walks opts.Root until the queue is empty or opts.MaxPages pages are
// found, then downloads their images with opts.Workers workers. Page and
// image failures are logged and counted, never returned; the error is
// non-nil only for invalid options or a cancelled ctx.
func (c *Crawler) Run(ctx context.Context, opts Options) (Summary, error) {
	root, err := opts.prepare()
	if err != nil {
		return Summary{}, err
	}

	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	summary := Summary{RunID: opts.RunID}
	logger := c.logger.With("run_id", summary.RunID)
	start := time.Now()

	state := frontier.NewState(root.String())

	logger.Info("walk started", "root", root.String(), "max_pages", opts.MaxPages, "strategy", opts.Strategy)
	abandoned, err := c.walk(ctx, logger, state, root, &opts)
	summary.PagesVisited = state.ToVisit.Size()
	summary.Abandoned = abandoned
	summary.LinksQueued = state.Queue.TotalQueued()
	if err != nil {
		summary.Duration = time.Since(start)
		logger.Warn("walk interrupted", "error", err, "pages", summary.PagesVisited)
		return summary, err
	}
	logger.Info("walk finished", "pages", summary.PagesVisited, "abandoned", abandoned)

	// state.Queue is not touched past this point.
	var stats runStats
	g, gctx := errgroup.WithContext(ctx)
	for i := range opts.Workers {
		wlog := logger.With("worker", i+1)
		g.Go(func() error {
			return c.runWorker(gctx, wlog, state, &opts, &stats)
		})
	}
	err = g.Wait()

	summary.ImagesDownloaded = int(stats.imagesDownloaded.Load())
	summary.ImagesFailed = int(stats.imagesFailed.Load())
	summary.PagesFailed = int(stats.pagesFailed.Load())
	summary.Duration = time.Since(start)

	logger.Info("crawl finished",
		"pages_visited", summary.PagesVisited,
		"images_downloaded", summary.ImagesDownloaded,
		"images_failed", summary.ImagesFailed,
		"pages_failed", summary.PagesFailed,
		"duration", summary.Duration,
	)
	return summary, err
}

// get fetches u bounded by timeout.
func (c *Crawler) get(ctx context.Context, u string, timeout time.Duration) (*fetch.Response, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return c.fetcher.Fetch(ctx, u)
}
