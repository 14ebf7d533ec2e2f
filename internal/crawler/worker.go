package crawler

import (
	"context"
	"log/slog"

	"imagecrawler/internal/frontier"
	"imagecrawler/internal/metrics"
	"imagecrawler/internal/parser"
)

// runWorker claims pages until none are left, downloading every image not
// already claimed by another worker. Only ctx cancellation ends it early.
func (c *Crawler) runWorker(ctx context.Context, logger *slog.Logger, st *frontier.State, opts *Options, stats *runStats) error {
	logger.Debug("worker started")
	defer logger.Debug("worker finished")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, ok := st.ClaimNextPage()
		if !ok {
			return nil
		}

		resp, err := c.get(ctx, page, opts.FetchTimeout)
		if err != nil {
			stats.pagesFailed.Add(1)
			logger.Warn("skipping page", "url", page, "error", err)
			continue
		}

		base := resp.Base()
		logger.Info("downloading images", "page", page)
		for _, src := range c.extractor.ExtractImageSources(resp.Body) {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, ok := parser.ResolveImage(base, src)
			if !ok {
				logger.Debug("skipping image source", "page", page, "src", src)
				continue
			}
			if !st.TryClaimImage(img.URL) {
				continue
			}
			if err := c.download(ctx, img, opts); err != nil {
				stats.imagesFailed.Add(1)
				metrics.ImagesFailed.Inc()
				logger.Warn("image download failed", "image", img.URL, "error", err)
				continue
			}
			stats.imagesDownloaded.Add(1)
			metrics.ImagesDownloaded.Inc()
			logger.Debug("downloaded image", "image", img.URL, "file", img.Filename)
		}
	}
}

func (c *Crawler) download(ctx context.Context, img parser.Image, opts *Options) error {
	resp, err := c.get(ctx, img.URL, opts.FetchTimeout)
	if err != nil {
		return err
	}
	return c.sink.Store(ctx, img.Filename, resp.Body)
}
