package fetch

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
)

func TestHTTPFetcher(t *testing.T) {
	t.Parallel()

	t.Run("returns body and verbatim content type", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=UTF-8")
			_, _ = w.Write([]byte("<html><body>hi</body></html>"))
		}))
		defer srv.Close()

		resp, err := NewHTTPFetcher(Options{UserAgent: "test"}).Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.ContentType != "text/html; charset=UTF-8" {
			t.Errorf("content type = %q", resp.ContentType)
		}
		if !strings.Contains(string(resp.Body), "hi") {
			t.Errorf("unexpected body %q", resp.Body)
		}
	})

	t.Run("sends user agent", func(t *testing.T) {
		t.Parallel()

		ua := make(chan string, 1)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ua <- r.Header.Get("User-Agent")
		}))
		defer srv.Close()

		if _, err := NewHTTPFetcher(Options{UserAgent: "ImageCrawler/test"}).Fetch(context.Background(), srv.URL); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := <-ua; got != "ImageCrawler/test" {
			t.Errorf("user agent = %q", got)
		}
	})

	t.Run("reports url after redirects", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/docs", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/docs/", http.StatusMovedPermanently)
		})
		mux.HandleFunc("/docs/", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<img src="pic.png">`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		resp, err := NewHTTPFetcher(Options{}).Fetch(context.Background(), srv.URL+"/docs")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.URL != srv.URL+"/docs" {
			t.Errorf("URL = %q, want the requested url", resp.URL)
		}
		if resp.FinalURL != srv.URL+"/docs/" || resp.Base() != resp.FinalURL {
			t.Errorf("FinalURL = %q, Base = %q, want %q", resp.FinalURL, resp.Base(), srv.URL+"/docs/")
		}
	})

	t.Run("status error on 404", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		_, err := NewHTTPFetcher(Options{}).Fetch(context.Background(), srv.URL)
		var fe *FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("expected FetchError, got %v", err)
		}
		if fe.Kind != KindStatus || fe.StatusCode != http.StatusNotFound {
			t.Errorf("unexpected error %+v", fe)
		}
	})

	t.Run("timeout is unreachable", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer srv.Close()

		_, err := NewHTTPFetcher(Options{Timeout: 100 * time.Millisecond}).Fetch(context.Background(), srv.URL)
		if !IsUnreachable(err) {
			t.Fatalf("expected unreachable error, got %v", err)
		}
	})

	t.Run("context deadline is unreachable", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		_, err := NewHTTPFetcher(Options{}).Fetch(ctx, srv.URL)
		if !IsUnreachable(err) {
			t.Fatalf("expected unreachable error, got %v", err)
		}
	})

	t.Run("connection refused is unreachable", func(t *testing.T) {
		t.Parallel()

		_, err := NewHTTPFetcher(Options{Timeout: time.Second}).Fetch(context.Background(), "http://127.0.0.1:1")
		if !IsUnreachable(err) {
			t.Fatalf("expected unreachable error, got %v", err)
		}
	})

	t.Run("body over cap", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(bytes.Repeat([]byte("x"), 64))
		}))
		defer srv.Close()

		_, err := NewHTTPFetcher(Options{MaxBodyBytes: 16}).Fetch(context.Background(), srv.URL)
		if KindOf(err) != KindBody {
			t.Fatalf("expected body error, got %v", err)
		}
	})

	t.Run("decodes gzip and brotli", func(t *testing.T) {
		t.Parallel()

		const payload = "<html>compressed</html>"
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var buf bytes.Buffer
			switch r.URL.Path {
			case "/gz":
				zw := gzip.NewWriter(&buf)
				_, _ = zw.Write([]byte(payload))
				_ = zw.Close()
				w.Header().Set("Content-Encoding", "gzip")
			case "/br":
				bw := brotli.NewWriter(&buf)
				_, _ = bw.Write([]byte(payload))
				_ = bw.Close()
				w.Header().Set("Content-Encoding", "br")
			}
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write(buf.Bytes())
		}))
		defer srv.Close()

		f := NewHTTPFetcher(Options{})
		for _, p := range []string{"/gz", "/br"} {
			resp, err := f.Fetch(context.Background(), srv.URL+p)
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", p, err)
			}
			if string(resp.Body) != payload {
				t.Errorf("%s: body = %q", p, resp.Body)
			}
		}
	})
}

func TestIsHTML(t *testing.T) {
	t.Parallel()

	for ct, want := range map[string]bool{
		"text/html":                true,
		"text/html; charset=utf-8": true,
		"TEXT/HTML":                true,
		"application/xhtml+xml":    true,
		"image/png":                false,
		"application/json":         false,
		"":                         false,
	} {
		if got := IsHTML(ct); got != want {
			t.Errorf("IsHTML(%q) = %v, want %v", ct, got, want)
		}
	}
}
