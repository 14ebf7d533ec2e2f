package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PagesFetched = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crawler_pages_fetched_total",
		Help: "Total number of URLs (pages and images) successfully fetched",
	})
	BytesFetched = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crawler_bytes_fetched_total",
		Help: "Total bytes downloaded",
	})
	FetchErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crawler_fetch_errors_total",
		Help: "Failed fetches by error kind",
	}, []string{"kind"})
	PagesVisited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crawler_pages_visited_total",
		Help: "Pages confirmed as HTML and queued for image extraction",
	})
	ImagesDownloaded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crawler_images_downloaded_total",
		Help: "Images fetched and stored",
	})
	ImagesFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crawler_images_failed_total",
		Help: "Images whose fetch or store failed",
	})
)

func init() {
	prometheus.MustRegister(PagesFetched, BytesFetched, FetchErrors, PagesVisited, ImagesDownloaded, ImagesFailed)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve runs a /metrics endpoint on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
