package crawler

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"imagecrawler/internal/frontier"
	"imagecrawler/internal/parser"
)

type Options struct {
	Root         string
	MaxPages     int           // cap on pages queued for image extraction
	Workers      int           // download pool size
	Strategy     string        // dfs (default) or bfs
	FetchTimeout time.Duration // per-request bound; 0 leaves it to the Fetcher
	RunID        string        // generated when empty
}

// prepare validates o and returns the normalized root.
func (o *Options) prepare() (*url.URL, error) {
	root, err := parser.NormalizeRoot(o.Root)
	if err != nil {
		return nil, err
	}
	if o.MaxPages <= 0 {
		return nil, fmt.Errorf("max pages must be positive, got %d", o.MaxPages)
	}
	if o.Workers <= 0 {
		return nil, fmt.Errorf("worker count must be positive, got %d", o.Workers)
	}
	switch strings.ToLower(o.Strategy) {
	case "":
		o.Strategy = "dfs"
	case "dfs", "bfs":
		o.Strategy = strings.ToLower(o.Strategy)
	default:
		return nil, fmt.Errorf("unknown strategy %q", o.Strategy)
	}
	return root, nil
}

// SelectURL pops the next URL to parse: newest first for dfs, oldest
// first for bfs.
func (o *Options) SelectURL(q *frontier.Queue) (string, bool) {
	if o.Strategy == "bfs" {
		return q.PopFront()
	}
	return q.PopBack()
}
