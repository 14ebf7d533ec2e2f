package crawler

import (
	"context"
	"log/slog"
	"net/url"

	"imagecrawler/internal/fetch"
	"imagecrawler/internal/frontier"
	"imagecrawler/internal/metrics"
	"imagecrawler/internal/parser"
)

// walk drains st.Queue on the calling goroutine, moving every HTML page it
// reaches into st.ToVisit. It stops when the queue is empty or the page
// budget is reached; in the latter case the remaining queue entries are
// dropped and their count returned.
func (c *Crawler) walk(ctx context.Context, logger *slog.Logger, st *frontier.State, root *url.URL, opts *Options) (int, error) {
	// pages that failed or were not HTML; never fetched twice in one walk
	rejected := make(map[string]struct{})

	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		u, ok := opts.SelectURL(st.Queue)
		if !ok {
			return 0, nil
		}
		if st.ToVisit.Has(u) {
			continue
		}
		if _, seen := rejected[u]; seen {
			continue
		}

		resp, err := c.get(ctx, u, opts.FetchTimeout)
		if err != nil {
			rejected[u] = struct{}{}
			logger.Debug("skipping page", "url", u, "kind", fetch.KindOf(err), "error", err)
			continue
		}
		if !fetch.IsHTML(resp.ContentType) {
			rejected[u] = struct{}{}
			logger.Debug("skipping non-html page", "url", u, "content_type", resp.ContentType)
			continue
		}
		base := resp.Base()
		if !parser.SameOrigin(root, base) {
			rejected[u] = struct{}{}
			logger.Debug("skipping page redirected off site", "url", u, "final_url", base)
			continue
		}

		st.ToVisit.TryAdd(u)
		metrics.PagesVisited.Inc()
		logger.Info("added page", "url", u, "pages", st.ToVisit.Size())

		if st.ToVisit.Size() >= opts.MaxPages {
			return st.Queue.Reset(), nil
		}

		for _, href := range c.extractor.ExtractLinks(resp.Body) {
			link := parser.ResolveLink(root, base, href)
			if link == "" || st.ToVisit.Has(link) {
				continue
			}
			if _, seen := rejected[link]; seen {
				continue
			}
			st.Queue.Push(link)
		}
	}
}
