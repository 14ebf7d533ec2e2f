// internal/parser/link.go
package parser

import (
	"fmt"
	"net"
	"net/url"
	"path"
	"strings"
)

// schemes we follow; anything else (mailto, javascript, tel, data, ...) is dropped
var crawlScheme = map[string]struct{}{
	"http":  {},
	"https": {},
}

// Image is an <img src> resolved against the page that referenced it.
type Image struct {
	URL      string // absolute, fragment dropped, query kept
	Filename string // final path segment, used as the storage name
}

// NormalizeRoot validates the crawl root and returns it in the same
// canonical form ResolveLink produces, so the root is never crawled twice.
func NormalizeRoot(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("parse root url: %w", err)
	}
	if _, ok := crawlScheme[strings.ToLower(u.Scheme)]; !ok {
		return nil, fmt.Errorf("root url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("root url %q: missing host", raw)
	}
	normalize(u)
	return u, nil
}

// ResolveLink converts a raw <a href="…"> found on page into an absolute
// same-origin URL. It returns "" if the link should be ignored: empty or
// fragment-only hrefs, unparsable hrefs, non-http schemes, and hosts other
// than root's.
func ResolveLink(root *url.URL, page, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") {
		return ""
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if ref.Scheme != "" {
		if _, ok := crawlScheme[strings.ToLower(ref.Scheme)]; !ok {
			return ""
		}
	}

	base, err := url.Parse(page)
	if err != nil || base.Host == "" {
		base = root
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme == "" {
		abs.Scheme = root.Scheme
	}
	if abs.Host == "" {
		abs.Host = root.Host
	}
	if hostKey(abs) != hostKey(root) {
		return ""
	}
	normalize(abs)
	return abs.String()
}

// SameOrigin reports whether raw is an http(s) URL on root's host.
func SameOrigin(root *url.URL, raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	if _, ok := crawlScheme[strings.ToLower(u.Scheme)]; !ok {
		return false
	}
	return hostKey(u) == hostKey(root)
}

var defaultPort = map[string]string{
	"http":  "80",
	"https": "443",
}

// hostKey is the lowercased host with the port kept only when it is not
// the default for u's scheme.
func hostKey(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if port == "" || port == defaultPort[strings.ToLower(u.Scheme)] {
		if strings.Contains(host, ":") {
			return "[" + host + "]"
		}
		return host
	}
	return net.JoinHostPort(host, port)
}

// ResolveImage resolves an <img src> against the page URL. Images may live
// on any host; only the scheme is restricted.
func ResolveImage(page, raw string) (Image, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Image{}, false
	}
	base, err := url.Parse(page)
	if err != nil {
		return Image{}, false
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return Image{}, false
	}

	abs := base.ResolveReference(ref)
	if _, ok := crawlScheme[strings.ToLower(abs.Scheme)]; !ok {
		return Image{}, false
	}
	abs.Fragment = ""
	abs.RawFragment = ""

	if abs.Path == "" || strings.HasSuffix(abs.Path, "/") {
		return Image{}, false
	}
	name := path.Base(abs.Path)
	if name == "." || name == "/" || name == ".." {
		return Image{}, false
	}
	return Image{URL: abs.String(), Filename: name}, true
}

// normalize drops query, fragment and a default port, lowercases scheme and
// host and maps an empty path to "/".
func normalize(u *url.URL) {
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = hostKey(u)
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
		u.RawPath = ""
	}
}
